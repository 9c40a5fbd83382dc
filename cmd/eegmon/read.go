package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openexg/eegmon/dsp/bands"
	"github.com/openexg/eegmon/dsp/filterbank"
	"github.com/openexg/eegmon/dsp/spectrum"
	"github.com/openexg/eegmon/dsp/window"
	"github.com/openexg/eegmon/recording"
	"github.com/openexg/eegmon/render"
)

var (
	readCSV      string
	readEDF      string
	readPNG      string
	readFiltered bool
)

var readCmd = &cobra.Command{
	Use:   "read <recording.dat>",
	Short: "Inspect or convert a raw recording",
	Long: `Loads a raw recording and prints its vital statistics and band powers.
With --filter the analysis and CSV export use a zero-phase pass through the
configured filter chain. Exports: --csv, --edf, --png (spectrogram image).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(args[0])
	},
}

func init() {
	readCmd.Flags().StringVar(&readCSV, "csv", "", "export samples to this CSV file")
	readCmd.Flags().StringVar(&readEDF, "edf", "", "export to this EDF file")
	readCmd.Flags().StringVar(&readPNG, "png", "", "render the spectrogram to this PNG file")
	readCmd.Flags().BoolVar(&readFiltered, "filter", false, "apply a zero-phase filter pass before analysis and CSV export")
	rootCmd.AddCommand(readCmd)
}

func runRead(path string) error {
	cfg := settings()

	samples, rate, meta, err := recording.Load(path, cfg.SampleRate)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("%s contains no samples", path)
	}

	trace := make([]float64, len(samples))
	for i, s := range samples {
		trace[i] = float64(s)
	}
	if readFiltered {
		trace = filterbank.ZeroPhase(cfg.Filter, float64(rate), trace)
	}

	printStats(path, samples, trace, rate, meta)

	if readCSV != "" {
		if readFiltered {
			err = recording.ExportFilteredCSV(readCSV, trace, rate)
		} else {
			err = recording.ExportCSV(readCSV, samples, rate)
		}
		if err != nil {
			return err
		}
		fmt.Printf("csv saved: %s\n", readCSV)
	}

	if readEDF != "" {
		opts := recording.EDFOptions{}
		if readFiltered {
			opts.Prefiltering = fmt.Sprintf("HP:%gHz LP:%gHz N:%gHz",
				cfg.Filter.HighpassHz, cfg.Filter.LowpassHz, cfg.Filter.NotchHz)
		}
		if v, ok := meta["start_time"]; ok {
			if t, perr := time.Parse(time.RFC3339, v); perr == nil {
				opts.StartTime = t
			}
		}
		if err := recording.ExportEDF(readEDF, samples, rate, opts); err != nil {
			return err
		}
		fmt.Printf("edf saved: %s\n", readEDF)
	}

	if readPNG != "" {
		if err := writeSpectrogramPNG(readPNG, trace, rate, cfg.SpectrogramMaxHz); err != nil {
			return err
		}
		fmt.Printf("spectrogram saved: %s\n", readPNG)
	}

	return nil
}

func printStats(path string, samples []int16, trace []float64, rate int, meta recording.Metadata) {
	minV, maxV := samples[0], samples[0]
	sum := 0.0
	for _, s := range samples {
		if s < minV {
			minV = s
		}
		if s > maxV {
			maxV = s
		}
		sum += float64(s)
	}

	duration := float64(len(samples)) / float64(rate)
	fmt.Printf("%s\n", path)
	fmt.Printf("  samples:  %d (%.1f s at %d Hz)\n", len(samples), duration, rate)
	fmt.Printf("  range:    [%d, %d], mean %.1f\n", minV, maxV, sum/float64(len(samples)))
	if v, ok := meta["start_time"]; ok {
		fmt.Printf("  started:  %s\n", v)
	}

	if powers, ok := bands.Compute(trace, float64(rate)); ok {
		fmt.Printf("  bands:    delta %.1f  theta %.1f  alpha %.1f  beta %.1f  gamma %.1f\n",
			powers.Delta, powers.Theta, powers.Alpha, powers.Beta, powers.Gamma)
	}
}

func writeSpectrogramPNG(path string, trace []float64, rate int, maxHz float64) error {
	stft, err := spectrum.NewSTFT(spectrum.STFTConfig{
		SampleRate: float64(rate),
		WindowType: window.TypeHann,
	})
	if err != nil {
		return err
	}

	columns := stft.Push(trace)
	if len(columns) == 0 {
		return fmt.Errorf("recording too short for a spectrogram (%d samples, need %d)",
			len(trace), stft.SegmentLength())
	}

	binLimit := len(columns[0])
	for i, f := range stft.Frequencies() {
		if f > maxHz {
			binLimit = i
			break
		}
	}
	for i := range columns {
		columns[i] = columns[i][:binLimit]
	}

	return render.WritePNG(path, columns, render.Options{})
}
