package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openexg/eegmon/monitor"
	"github.com/openexg/eegmon/render"
	"github.com/openexg/eegmon/server"
)

var (
	flagServe    string
	flagDuration time.Duration
	flagRecord   bool
	flagSnapshot string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the live acquisition and processing pipeline",
	Long: `Connects to the EEG device and runs the streaming pipeline. Band powers
are printed once per second. With --serve the processed stream is also
available to websocket clients; with --record the raw samples go to a
timestamped file in the recordings directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd.Context())
	},
}

func init() {
	monitorCmd.Flags().StringVar(&flagServe, "serve", "", "serve websocket clients on this address (e.g. :8090)")
	monitorCmd.Flags().DurationVar(&flagDuration, "duration", 0, "stop after this long (0 runs until interrupted)")
	monitorCmd.Flags().BoolVar(&flagRecord, "record", false, "record raw samples while monitoring")
	monitorCmd.Flags().StringVar(&flagSnapshot, "snapshot", "", "write a spectrogram PNG to this path on exit")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(parent context.Context) error {
	cfg := settings()
	log := slog.Default()

	mon, err := monitor.New(cfg, log)
	if err != nil {
		return err
	}
	defer mon.Close()

	if err := mon.Connect(); err != nil {
		return err
	}

	if flagRecord {
		if err := mon.StartRecording(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagDuration)
		defer cancel()
	}

	if flagServe != "" {
		srv := server.New(mon, cfg.UpdateInterval, log)
		go srv.Run(ctx)

		httpSrv := &http.Server{Addr: flagServe, Handler: srv.Handler()}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()
		go func() {
			log.Info("serving", "addr", flagServe)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server failed", "err", err)
			}
		}()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return finishMonitor(mon)
		case <-ticker.C:
			printBands(mon)
		}
	}
}

func printBands(mon *monitor.Monitor) {
	snap := mon.Snapshot()
	st := mon.Status()

	if !snap.BandsValid {
		fmt.Printf("%8d samples  %4.0f/s  (gathering data for band powers)\n", st.Samples, st.DataRate)
		return
	}

	b := snap.Bands
	fmt.Printf("%8d samples  %4.0f/s  delta %8.1f  theta %8.1f  alpha %8.1f  beta %8.1f  gamma %8.1f\n",
		st.Samples, st.DataRate, b.Delta, b.Theta, b.Alpha, b.Beta, b.Gamma)
}

func finishMonitor(mon *monitor.Monitor) error {
	if mon.Recording() {
		path, duration, err := mon.StopRecording()
		if err != nil {
			return err
		}
		fmt.Printf("recording saved: %s (%s)\n", path, duration.Round(time.Second))
	}

	if flagSnapshot != "" {
		snap := mon.Snapshot()
		if len(snap.Spectrogram) == 0 {
			return fmt.Errorf("no spectrogram data to snapshot")
		}
		if err := render.WritePNG(flagSnapshot, snap.Spectrogram, render.Options{}); err != nil {
			return err
		}
		fmt.Printf("spectrogram saved: %s\n", flagSnapshot)
	}

	return nil
}
