// Package monitor ties acquisition, filtering, buffering, spectral analysis
// and recording together into the live EEG processing pipeline.
package monitor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/openexg/eegmon/acquisition"
	"github.com/openexg/eegmon/config"
	"github.com/openexg/eegmon/dsp/buffer"
	"github.com/openexg/eegmon/dsp/filterbank"
	"github.com/openexg/eegmon/dsp/spectrum"
	"github.com/openexg/eegmon/dsp/window"
	"github.com/openexg/eegmon/recording"
)

// bandWindowSeconds is the analysis window for band-power estimation.
// Four seconds gives two full Welch segments at the default settings.
const bandWindowSeconds = 4

// Source delivers decoded sample blocks. *acquisition.Reader satisfies it;
// tests and replay tools provide their own.
type Source interface {
	Blocks() <-chan acquisition.Block
	Device() string
	Err() error
	Close() error
}

// Monitor runs the streaming pipeline: raw samples from a Source are
// recorded, filtered, buffered for display and pushed through the streaming
// spectrogram. All methods are safe for concurrent use.
type Monitor struct {
	cfg config.Settings
	log *slog.Logger

	mu          sync.Mutex
	source      Source
	done        chan struct{}
	bank        *filterbank.Bank
	display     *buffer.Ring // filtered waveform window
	analysis    *buffer.Ring // filtered band-power window
	stft        *spectrum.STFT
	columns     [][]float64 // spectrogram dB columns, oldest first
	maxColumns  int
	binLimit    int // bins kept per column, capped at SpectrogramMaxHz
	freqs       []float64
	rec         *recording.Recorder
	sensitivity float64
	scratch     []float64
	rate        []rateEvent
}

// rateEvent records one block arrival for the trailing data-rate estimate.
type rateEvent struct {
	t time.Time
	n int
}

// New builds a Monitor from validated settings.
func New(cfg config.Settings, logger *slog.Logger) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	stft, err := spectrum.NewSTFT(spectrum.STFTConfig{
		SampleRate: float64(cfg.SampleRate),
		WindowType: window.TypeHann,
	})
	if err != nil {
		return nil, err
	}

	rec, err := recording.NewRecorder(cfg.RecordingsDir, logger)
	if err != nil {
		return nil, err
	}

	allFreqs := stft.Frequencies()
	binLimit := len(allFreqs)
	for i, f := range allFreqs {
		if f > cfg.SpectrogramMaxHz {
			binLimit = i
			break
		}
	}

	// Column history spans the same samples a 30 s ring would hold.
	maxColumns := cfg.SpectrogramBufferSize() / stft.HopSize()
	if maxColumns < 1 {
		maxColumns = 1
	}

	return &Monitor{
		cfg:         cfg,
		log:         logger,
		bank:        filterbank.New(cfg.Filter, float64(cfg.SampleRate)),
		display:     buffer.NewRing(cfg.DisplayBufferSize()),
		analysis:    buffer.NewRing(bandWindowSeconds * cfg.SampleRate),
		stft:        stft,
		maxColumns:  maxColumns,
		binLimit:    binLimit,
		freqs:       allFreqs[:binLimit],
		rec:         rec,
		sensitivity: cfg.Sensitivity,
	}, nil
}

// Connect opens the configured serial device and starts processing. The port
// is auto-detected when Bluetooth is preferred and the headset is present.
func (m *Monitor) Connect() error {
	device := acquisition.FindDevice(m.cfg.SerialPort, m.cfg.BluetoothDeviceName, m.cfg.UseBluetooth)

	src, err := acquisition.Open(acquisition.Config{
		Port:     device,
		BaudRate: m.cfg.BaudRate,
	}, m.log)
	if err != nil {
		return err
	}

	if err := m.Attach(src); err != nil {
		src.Close()
		return err
	}
	return nil
}

// Attach starts processing blocks from an already-open source. The pipeline
// state is reset so stale samples never bleed into the new session.
func (m *Monitor) Attach(src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.source != nil {
		return fmt.Errorf("monitor: already connected to %s", m.source.Device())
	}

	m.bank.Reset()
	m.display.Clear()
	m.analysis.Clear()
	m.stft.Reset()
	m.columns = nil
	m.rate = nil

	m.source = src
	m.done = make(chan struct{})
	go m.run(src, m.done)

	m.log.Info("monitor attached", "device", src.Device())
	return nil
}

// Disconnect stops processing and closes the source. An open recording keeps
// running so a dropped connection does not lose the session file.
func (m *Monitor) Disconnect() error {
	m.mu.Lock()
	src := m.source
	done := m.done
	m.mu.Unlock()

	if src == nil {
		return nil
	}

	err := src.Close()
	if done != nil {
		<-done
	}
	return err
}

// Close disconnects and finalizes any open recording.
func (m *Monitor) Close() error {
	err := m.Disconnect()

	m.mu.Lock()
	open := m.rec.Recording()
	m.mu.Unlock()
	if open {
		if _, _, stopErr := m.StopRecording(); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	return err
}

func (m *Monitor) run(src Source, done chan struct{}) {
	defer close(done)

	for blk := range src.Blocks() {
		m.ingest(blk)
	}

	if err := src.Err(); err != nil {
		m.log.Error("source terminated", "device", src.Device(), "err", err)
	}

	m.mu.Lock()
	if m.source == src {
		m.source = nil
	}
	m.mu.Unlock()
}

func (m *Monitor) ingest(blk acquisition.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rec.Recording() {
		if err := m.rec.Write(blk.Samples); err != nil {
			m.log.Error("recording write failed", "err", err)
		}
	}

	m.rate = append(m.rate, rateEvent{t: blk.Time, n: len(blk.Samples)})
	cutoff := blk.Time.Add(-time.Second)
	for len(m.rate) > 0 && m.rate[0].t.Before(cutoff) {
		m.rate = m.rate[1:]
	}

	m.scratch = acquisition.SamplesToFloat(m.scratch[:0], blk.Samples)
	m.bank.Process(m.scratch)

	m.display.Append(m.scratch)
	m.analysis.Append(m.scratch)

	for _, col := range m.stft.Push(m.scratch) {
		m.columns = append(m.columns, col[:m.binLimit])
		if len(m.columns) > m.maxColumns {
			m.columns = m.columns[1:]
		}
	}
}

// Connected reports whether a source is currently attached.
func (m *Monitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source != nil
}

// SetFilter applies new filter settings to the running stream.
func (m *Monitor) SetFilter(cfg config.FilterSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bank.Update(cfg)
	m.cfg.Filter = cfg
	m.log.Info("filter updated",
		"highpass", cfg.HighpassHz, "lowpass", cfg.LowpassHz,
		"notch", cfg.NotchHz, "enabled", cfg.Enabled)
}

// Filter returns the active filter settings.
func (m *Monitor) Filter() config.FilterSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bank.Settings()
}

// SetSensitivity sets the display amplification factor.
func (m *Monitor) SetSensitivity(s float64) error {
	if s <= 0 {
		return fmt.Errorf("monitor: sensitivity must be > 0, got %v", s)
	}
	m.mu.Lock()
	m.sensitivity = s
	m.mu.Unlock()
	return nil
}

// StartRecording opens a new raw recording file.
func (m *Monitor) StartRecording() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.Start()
}

// StopRecording closes the recording and writes its metadata sidecar.
func (m *Monitor) StopRecording() (string, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	device := ""
	if m.source != nil {
		device = m.source.Device()
	}
	f := m.bank.Settings()

	return m.rec.Stop(recording.Metadata{
		"sample_rate": fmt.Sprintf("%d", m.cfg.SampleRate),
		"device":      device,
		"highpass_hz": fmt.Sprintf("%g", f.HighpassHz),
		"lowpass_hz":  fmt.Sprintf("%g", f.LowpassHz),
		"notch_hz":    fmt.Sprintf("%g", f.NotchHz),
	})
}

// ToggleRecording starts a recording when idle and stops the active one
// otherwise. It reports whether a recording is open after the call.
func (m *Monitor) ToggleRecording() (bool, error) {
	if m.Recording() {
		_, _, err := m.StopRecording()
		return false, err
	}
	return true, m.StartRecording()
}

// Recording reports whether a raw recording file is open.
func (m *Monitor) Recording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.Recording()
}
