package recording

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openexg/eegmon/acquisition"
)

// EDFOptions describes the session for EDF export. Zero values get
// reasonable defaults.
type EDFOptions struct {
	PatientID    string
	RecordingID  string
	StartTime    time.Time
	SignalLabel  string // e.g. "EEG Fpz-Cz"
	Transducer   string
	Dimension    string // physical dimension, e.g. "uV"
	Prefiltering string // e.g. "HP:0.5Hz LP:70Hz N:60Hz"
}

// ExportEDF writes a single-signal EDF file: a 256-byte global header, one
// 256-byte signal header block and 1-second data records of little-endian
// 16-bit samples. The final record is zero-padded.
//
// Digital and physical ranges both span the full int16 range, so EDF
// readers reconstruct the raw values identically (the device's uV scaling
// is not known at this layer).
func ExportEDF(path string, samples []int16, sampleRate int, opts EDFOptions) error {
	if sampleRate <= 0 {
		return fmt.Errorf("recording: edf export needs a positive sample rate, got %d", sampleRate)
	}
	if len(samples) == 0 {
		return fmt.Errorf("recording: edf export needs samples")
	}

	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}
	if opts.PatientID == "" {
		opts.PatientID = "X X X X"
	}
	if opts.RecordingID == "" {
		opts.RecordingID = "Startdate " + strings.ToUpper(opts.StartTime.Format("02-Jan-2006")) + " X X X"
	}
	if opts.SignalLabel == "" {
		opts.SignalLabel = "EEG"
	}
	if opts.Dimension == "" {
		opts.Dimension = "uV"
	}

	records := (len(samples) + sampleRate - 1) / sampleRate
	headerBytes := 256 + 256 // global + one signal

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recording: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	// Global header, fixed-width ASCII fields.
	writeField(w, "0", 8)
	writeField(w, opts.PatientID, 80)
	writeField(w, opts.RecordingID, 80)
	writeField(w, opts.StartTime.Format("02.01.06"), 8)
	writeField(w, opts.StartTime.Format("15.04.05"), 8)
	writeField(w, fmt.Sprintf("%d", headerBytes), 8)
	writeField(w, "", 44)
	writeField(w, fmt.Sprintf("%d", records), 8)
	writeField(w, "1", 8) // data record duration in seconds
	writeField(w, "1", 4) // signal count

	// Signal header block (field-major layout; trivial with one signal).
	writeField(w, opts.SignalLabel, 16)
	writeField(w, opts.Transducer, 80)
	writeField(w, opts.Dimension, 8)
	writeField(w, "-32768", 8)
	writeField(w, "32767", 8)
	writeField(w, "-32768", 8)
	writeField(w, "32767", 8)
	writeField(w, opts.Prefiltering, 80)
	writeField(w, fmt.Sprintf("%d", sampleRate), 8)
	writeField(w, "", 32)

	// Data records.
	var scratch []byte
	for rec := 0; rec < records; rec++ {
		start := rec * sampleRate
		end := start + sampleRate
		if end > len(samples) {
			end = len(samples)
		}

		scratch = acquisition.EncodeSamples(scratch[:0], samples[start:end])
		for len(scratch) < 2*sampleRate {
			scratch = append(scratch, 0, 0)
		}
		if _, err := w.Write(scratch); err != nil {
			return fmt.Errorf("recording: write %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("recording: flush %s: %w", path, err)
	}
	return nil
}

// writeField emits an ASCII field right-padded with spaces to width.
// Longer values are truncated; EDF readers rely on exact field offsets.
func writeField(w *bufio.Writer, v string, width int) {
	if len(v) > width {
		v = v[:width]
	}
	w.WriteString(v)
	for i := len(v); i < width; i++ {
		w.WriteByte(' ')
	}
}
