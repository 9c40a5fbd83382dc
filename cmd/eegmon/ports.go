package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openexg/eegmon/acquisition"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List candidate serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports := acquisition.AvailablePorts(flagBTName)
		if len(ports) == 0 {
			fmt.Println("no serial ports found")
			return nil
		}
		for _, p := range ports {
			if p.IsBluetooth {
				fmt.Printf("%s (bluetooth)\n", p.Device)
			} else {
				fmt.Println(p.Device)
			}
		}
		return nil
	},
}

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Read a few bytes from the device to verify it is sending",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := settings()
		device := acquisition.FindDevice(cfg.SerialPort, cfg.BluetoothDeviceName, cfg.UseBluetooth)

		report, err := acquisition.Probe(acquisition.Config{
			Port:     device,
			BaudRate: cfg.BaudRate,
		}, probeTimeout)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %s\n", device, report)
		return nil
	},
}

func init() {
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 2*time.Second, "how long to wait for data")
	rootCmd.AddCommand(portsCmd, probeCmd)
}
