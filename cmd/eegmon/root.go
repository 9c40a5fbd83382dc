package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openexg/eegmon/config"
)

var (
	flagPort        string
	flagBaud        uint
	flagBluetooth   bool
	flagBTName      string
	flagSampleRate  int
	flagHighpass    float64
	flagLowpass     float64
	flagNotch       float64
	flagNoFilter    bool
	flagSensitivity float64
	flagRecordings  string
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "eegmon",
	Short: "Real-time EEG monitor for serial-attached headsets",
	Long: `eegmon reads 16-bit EEG samples from a serial device, runs them through
a highpass/lowpass/notch filter chain and maintains rolling waveform and
spectrogram views. The processed stream can be recorded to disk, exported
to CSV or EDF, and served to clients over websockets.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
	SilenceUsage: true,
}

func init() {
	defaults := config.Default()

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagPort, "port", "p", defaults.SerialPort, "serial device node")
	pf.UintVarP(&flagBaud, "baud", "b", defaults.BaudRate, "serial baud rate")
	pf.BoolVar(&flagBluetooth, "bluetooth", defaults.UseBluetooth, "prefer the Bluetooth headset when present")
	pf.StringVar(&flagBTName, "bluetooth-name", defaults.BluetoothDeviceName, "Bluetooth device name to look for")
	pf.IntVar(&flagSampleRate, "rate", defaults.SampleRate, "sample rate in Hz")
	pf.Float64Var(&flagHighpass, "highpass", defaults.Filter.HighpassHz, "highpass cutoff in Hz (0 disables)")
	pf.Float64Var(&flagLowpass, "lowpass", defaults.Filter.LowpassHz, "lowpass cutoff in Hz (0 disables)")
	pf.Float64Var(&flagNotch, "notch", defaults.Filter.NotchHz, "notch frequency in Hz (0 disables)")
	pf.BoolVar(&flagNoFilter, "no-filter", false, "bypass the filter chain entirely")
	pf.Float64Var(&flagSensitivity, "sensitivity", defaults.Sensitivity, "display amplification factor")
	pf.StringVar(&flagRecordings, "recordings-dir", defaults.RecordingsDir, "directory for raw recordings")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

// settings assembles the runtime configuration from the flag values.
func settings() config.Settings {
	cfg := config.Default()
	cfg.SerialPort = flagPort
	cfg.BaudRate = flagBaud
	cfg.UseBluetooth = flagBluetooth
	cfg.BluetoothDeviceName = flagBTName
	cfg.SampleRate = flagSampleRate
	cfg.Filter = config.FilterSettings{
		HighpassHz: flagHighpass,
		LowpassHz:  flagLowpass,
		NotchHz:    flagNotch,
		Enabled:    !flagNoFilter,
	}
	cfg.Sensitivity = flagSensitivity
	cfg.RecordingsDir = flagRecordings
	return cfg
}
