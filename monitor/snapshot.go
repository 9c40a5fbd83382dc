package monitor

import (
	"time"

	"github.com/openexg/eegmon/config"
	"github.com/openexg/eegmon/dsp/bands"
)

// Snapshot is a consistent view of the pipeline for rendering or streaming.
// Slices are freshly allocated; callers may retain them.
type Snapshot struct {
	SampleRate int `json:"sample_rate"`

	// Filtered waveform window, oldest first, sensitivity applied. Times
	// holds the matching time axis in seconds since the stream started,
	// derived from the monotonic sample index.
	Samples []float64 `json:"samples"`
	Times   []float64 `json:"times"`

	// Spectrogram columns oldest first, each column dB density values from
	// DC up to the display frequency limit. Frequencies labels the bins.
	Spectrogram    [][]float64 `json:"spectrogram"`
	Frequencies    []float64   `json:"frequencies"`
	ColumnInterval float64     `json:"column_interval"`

	Bands      bands.Powers `json:"bands"`
	BandsValid bool         `json:"bands_valid"`
}

// Status describes the monitor's control state.
type Status struct {
	Connected     bool                  `json:"connected"`
	Device        string                `json:"device,omitempty"`
	Recording     bool                  `json:"recording"`
	RecordingPath string                `json:"recording_path,omitempty"`
	Samples       uint64                `json:"samples"`
	DataRate      float64               `json:"data_rate"` // samples/s over the trailing second
	Filter        config.FilterSettings `json:"filter"`
	Sensitivity   float64               `json:"sensitivity"`
}

// Snapshot captures the current display window, spectrogram and band powers.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	fs := float64(m.cfg.SampleRate)

	samples := m.display.Snapshot(nil)
	if m.sensitivity != 1 {
		for i := range samples {
			samples[i] *= m.sensitivity
		}
	}

	times := make([]float64, len(samples))
	start := m.display.Total() - uint64(len(samples))
	for i := range times {
		times[i] = float64(start+uint64(i)) / fs
	}

	spec := make([][]float64, len(m.columns))
	for i, col := range m.columns {
		spec[i] = append([]float64(nil), col...)
	}

	window := m.analysis.Snapshot(nil)
	powers, ok := bands.Compute(window, fs)

	return Snapshot{
		SampleRate:     m.cfg.SampleRate,
		Samples:        samples,
		Times:          times,
		Spectrogram:    spec,
		Frequencies:    append([]float64(nil), m.freqs...),
		ColumnInterval: m.stft.ColumnInterval(),
		Bands:          powers,
		BandsValid:     ok,
	}
}

// Status reports connection, recording and control state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		Recording:   m.rec.Recording(),
		Samples:     m.display.Total(),
		DataRate:    m.dataRate(time.Now()),
		Filter:      m.bank.Settings(),
		Sensitivity: m.sensitivity,
	}
	if m.source != nil {
		st.Connected = true
		st.Device = m.source.Device()
	}
	if st.Recording {
		st.RecordingPath = m.rec.Path()
	}
	return st
}

// dataRate sums the samples that arrived in the second before now.
// Callers hold m.mu.
func (m *Monitor) dataRate(now time.Time) float64 {
	cutoff := now.Add(-time.Second)
	total := 0
	for _, e := range m.rate {
		if e.t.After(cutoff) {
			total += e.n
		}
	}
	return float64(total)
}
