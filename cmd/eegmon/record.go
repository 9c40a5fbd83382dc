package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openexg/eegmon/monitor"
)

var recordDuration time.Duration

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record raw samples to a timestamped file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecord(cmd.Context())
	},
}

func init() {
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "stop after this long (0 records until interrupted)")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(parent context.Context) error {
	cfg := settings()

	mon, err := monitor.New(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer mon.Close()

	if err := mon.Connect(); err != nil {
		return err
	}
	if err := mon.StartRecording(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if recordDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, recordDuration)
		defer cancel()
	}

	fmt.Println("recording; press Ctrl-C to stop")
	<-ctx.Done()

	path, duration, err := mon.StopRecording()
	if err != nil {
		return err
	}

	fmt.Printf("recording saved: %s (%s)\n", path, duration.Round(time.Second))
	return nil
}
