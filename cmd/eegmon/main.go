// Command eegmon is the headless EEG monitor: it acquires samples over a
// serial port, filters them, and serves or records the processed stream.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
