package recording

import (
	"bufio"
	"fmt"
	"os"
)

// ExportCSV writes "Time,EEG" rows for the samples, with the time axis
// derived from the sample index at the given rate.
func ExportCSV(path string, samples []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("recording: csv export needs a positive sample rate, got %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recording: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString("Time,EEG\n"); err != nil {
		return fmt.Errorf("recording: write %s: %w", path, err)
	}

	dt := 1 / float64(sampleRate)
	for i, s := range samples {
		if _, err := fmt.Fprintf(w, "%.6f,%d\n", float64(i)*dt, s); err != nil {
			return fmt.Errorf("recording: write %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("recording: flush %s: %w", path, err)
	}
	return nil
}

// ExportFilteredCSV writes rows from an already-filtered float64 trace.
func ExportFilteredCSV(path string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("recording: csv export needs a positive sample rate, got %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recording: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString("Time,EEG\n"); err != nil {
		return fmt.Errorf("recording: write %s: %w", path, err)
	}

	dt := 1 / float64(sampleRate)
	for i, s := range samples {
		if _, err := fmt.Fprintf(w, "%.6f,%.3f\n", float64(i)*dt, s); err != nil {
			return fmt.Errorf("recording: write %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("recording: flush %s: %w", path, err)
	}
	return nil
}
