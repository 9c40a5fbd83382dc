// Package recording persists raw EEG sample streams and converts them to
// interchange formats (CSV, EDF).
//
// The raw format matches the wire format: little-endian signed 16-bit
// samples, nothing else. A human-readable metadata sidecar
// (<base>_meta.txt) carries the sample rate and session details.
package recording

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/openexg/eegmon/acquisition"
)

const (
	recordingPrefix = "EEG_RECORDING"
	rawExtension    = ".dat"
	metaSuffix      = "_meta.txt"
)

// Metadata is the key/value sidecar stored next to a recording.
type Metadata map[string]string

// Recorder writes raw samples to a timestamped file in dir.
type Recorder struct {
	dir string
	log *slog.Logger

	file    *os.File
	w       *bufio.Writer
	path    string
	started time.Time
	samples uint64
	scratch []byte
}

// NewRecorder prepares a recorder rooted at dir, creating it if needed.
func NewRecorder(dir string, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("recording: create dir %s: %w", dir, err)
	}
	return &Recorder{dir: dir, log: logger}, nil
}

// Recording reports whether a file is currently open.
func (r *Recorder) Recording() bool { return r.file != nil }

// Path returns the current (or last) recording file path.
func (r *Recorder) Path() string { return r.path }

// Samples returns the number of samples written to the current file.
func (r *Recorder) Samples() uint64 { return r.samples }

// Start opens a new timestamped recording file. Starting while recording is
// an error; stop first.
func (r *Recorder) Start() error {
	if r.file != nil {
		return fmt.Errorf("recording: already recording to %s", r.path)
	}

	name := fmt.Sprintf("%s_%s%s", recordingPrefix, time.Now().Format("20060102-150405"), rawExtension)
	path := filepath.Join(r.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recording: create %s: %w", path, err)
	}

	r.file = f
	r.w = bufio.NewWriter(f)
	r.path = path
	r.started = time.Now()
	r.samples = 0
	r.log.Info("recording started", "file", path)
	return nil
}

// Write appends samples to the open recording. A no-op when not recording.
func (r *Recorder) Write(samples []int16) error {
	if r.file == nil {
		return nil
	}

	r.scratch = acquisition.EncodeSamples(r.scratch[:0], samples)
	if _, err := r.w.Write(r.scratch); err != nil {
		return fmt.Errorf("recording: write %s: %w", r.path, err)
	}
	r.samples += uint64(len(samples))
	return nil
}

// Stop flushes and closes the recording and writes the metadata sidecar.
// It returns the file path and the recording duration.
func (r *Recorder) Stop(meta Metadata) (string, time.Duration, error) {
	if r.file == nil {
		return "", 0, fmt.Errorf("recording: not recording")
	}

	path := r.path
	duration := time.Since(r.started)

	flushErr := r.w.Flush()
	closeErr := r.file.Close()
	r.file = nil
	r.w = nil

	if flushErr != nil {
		return path, duration, fmt.Errorf("recording: flush %s: %w", path, flushErr)
	}
	if closeErr != nil {
		return path, duration, fmt.Errorf("recording: close %s: %w", path, closeErr)
	}

	if meta == nil {
		meta = Metadata{}
	}
	if _, ok := meta["start_time"]; !ok {
		meta["start_time"] = r.started.Format(time.RFC3339)
	}
	meta["duration_seconds"] = fmt.Sprintf("%.1f", duration.Seconds())
	meta["samples"] = fmt.Sprintf("%d", r.samples)

	if err := WriteMetadata(path, meta); err != nil {
		return path, duration, err
	}

	r.log.Info("recording stopped", "file", path, "duration", duration, "samples", r.samples)
	return path, duration, nil
}

// MetadataPath returns the sidecar path for a recording file.
func MetadataPath(recordingPath string) string {
	base := strings.TrimSuffix(recordingPath, filepath.Ext(recordingPath))
	return base + metaSuffix
}

// WriteMetadata stores meta as "key: value" lines next to the recording,
// sorted by key for stable output.
func WriteMetadata(recordingPath string, meta Metadata) error {
	path := MetadataPath(recordingPath)

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, meta[k])
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("recording: write metadata %s: %w", path, err)
	}
	return nil
}

// ReadMetadata loads the sidecar for a recording, returning an empty map
// when none exists.
func ReadMetadata(recordingPath string) (Metadata, error) {
	data, err := os.ReadFile(MetadataPath(recordingPath))
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, nil
		}
		return nil, fmt.Errorf("recording: read metadata: %w", err)
	}

	meta := Metadata{}
	for _, line := range strings.Split(string(data), "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return meta, nil
}
