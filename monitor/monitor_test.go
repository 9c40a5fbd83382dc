package monitor

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/openexg/eegmon/acquisition"
	"github.com/openexg/eegmon/config"
	"github.com/openexg/eegmon/recording"
)

type fakeSource struct {
	blocks chan acquisition.Block
	once   sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{blocks: make(chan acquisition.Block, 64)}
}

func (f *fakeSource) Blocks() <-chan acquisition.Block { return f.blocks }
func (f *fakeSource) Device() string                   { return "fake" }
func (f *fakeSource) Err() error                       { return nil }

func (f *fakeSource) Close() error {
	f.once.Do(func() { close(f.blocks) })
	return nil
}

func (f *fakeSource) send(samples []int16) {
	f.blocks <- acquisition.Block{Samples: samples, Time: time.Now()}
}

func testSettings(t *testing.T) config.Settings {
	cfg := config.Default()
	cfg.RecordingsDir = t.TempDir()
	return cfg
}

func waitForSamples(t *testing.T, m *Monitor, n uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Status().Samples >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d samples, have %d", n, m.Status().Samples)
}

func sineInt16(freq, fs float64, amplitude float64, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amplitude * math.Sin(2*math.Pi*freq*float64(i)/fs))
	}
	return out
}

func TestMonitor_PipelineSnapshot(t *testing.T) {
	m, err := New(testSettings(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	src := newFakeSource()
	if err := m.Attach(src); err != nil {
		t.Fatal(err)
	}
	if err := m.Attach(newFakeSource()); err == nil {
		t.Fatal("second attach should fail")
	}

	// Three seconds of 10 Hz alpha-band sine, fed in serial-sized blocks.
	wave := sineInt16(10, 500, 1000, 1500)
	for i := 0; i < len(wave); i += 100 {
		src.send(wave[i : i+100])
	}
	waitForSamples(t, m, 1500)

	snap := m.Snapshot()
	if snap.SampleRate != 500 {
		t.Fatalf("sample rate %d", snap.SampleRate)
	}
	if len(snap.Samples) != 1500 {
		t.Fatalf("display holds %d samples, want 1500", len(snap.Samples))
	}
	if len(snap.Times) != len(snap.Samples) {
		t.Fatalf("time axis length %d", len(snap.Times))
	}
	if got, want := snap.Times[len(snap.Times)-1], 1499.0/500; math.Abs(got-want) > 1e-9 {
		t.Fatalf("last timestamp %v, want %v", got, want)
	}
	for i := 1; i < len(snap.Times); i++ {
		if snap.Times[i] <= snap.Times[i-1] {
			t.Fatalf("time axis not monotonic at %d", i)
		}
	}

	// Three seconds with 2 s segments and 50% overlap completes two columns.
	if len(snap.Spectrogram) != 2 {
		t.Fatalf("spectrogram has %d columns, want 2", len(snap.Spectrogram))
	}
	if len(snap.Frequencies) != len(snap.Spectrogram[0]) {
		t.Fatalf("bin count mismatch: %d freqs, %d values",
			len(snap.Frequencies), len(snap.Spectrogram[0]))
	}
	if top := snap.Frequencies[len(snap.Frequencies)-1]; top > 70 {
		t.Fatalf("frequency axis reaches %v Hz, want <= 70", top)
	}

	if !snap.BandsValid {
		t.Fatal("band powers should be available after 3 s")
	}
	if snap.Bands.Alpha <= snap.Bands.Gamma {
		t.Fatalf("10 Hz tone should dominate alpha: alpha=%g gamma=%g",
			snap.Bands.Alpha, snap.Bands.Gamma)
	}

	st := m.Status()
	if !st.Connected || st.Device != "fake" {
		t.Fatalf("status %+v", st)
	}

	if err := m.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if m.Status().Connected {
		t.Fatal("still connected after disconnect")
	}
	if err := m.Disconnect(); err != nil {
		t.Fatal("second disconnect should be a no-op")
	}
}

func TestMonitor_SensitivityScalesDisplay(t *testing.T) {
	cfg := testSettings(t)
	cfg.Filter.Enabled = false

	m, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	src := newFakeSource()
	if err := m.Attach(src); err != nil {
		t.Fatal(err)
	}

	src.send([]int16{100, -200})
	waitForSamples(t, m, 2)

	if err := m.SetSensitivity(0); err == nil {
		t.Fatal("zero sensitivity should be rejected")
	}
	if err := m.SetSensitivity(2); err != nil {
		t.Fatal(err)
	}

	snap := m.Snapshot()
	if snap.Samples[0] != 200 || snap.Samples[1] != -400 {
		t.Fatalf("scaled samples %v", snap.Samples)
	}
}

func TestMonitor_FilterToggle(t *testing.T) {
	m, err := New(testSettings(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	f := m.Filter()
	if !f.Enabled {
		t.Fatal("default filter should be enabled")
	}

	f.Enabled = false
	m.SetFilter(f)
	if m.Filter().Enabled {
		t.Fatal("filter still enabled after toggle")
	}
	if m.Status().Filter.Enabled {
		t.Fatal("status reports stale filter state")
	}
}

func TestMonitor_DataRate(t *testing.T) {
	cfg := testSettings(t)
	cfg.Filter.Enabled = false

	m, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	src := newFakeSource()
	if err := m.Attach(src); err != nil {
		t.Fatal(err)
	}

	src.send(make([]int16, 300))
	src.send(make([]int16, 200))
	waitForSamples(t, m, 500)

	// Both blocks arrived within the last second.
	if rate := m.Status().DataRate; rate != 500 {
		t.Fatalf("data rate %v, want 500", rate)
	}
}

func TestMonitor_DataRateWindow(t *testing.T) {
	m, err := New(testSettings(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	now := time.Now()
	m.rate = []rateEvent{
		{t: now.Add(-1500 * time.Millisecond), n: 500}, // too old
		{t: now.Add(-800 * time.Millisecond), n: 400},
		{t: now.Add(-100 * time.Millisecond), n: 100},
	}

	if rate := m.dataRate(now); rate != 500 {
		t.Fatalf("data rate %v, want 500 (stale block excluded)", rate)
	}
}

func TestMonitor_ToggleRecording(t *testing.T) {
	m, err := New(testSettings(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	open, err := m.ToggleRecording()
	if err != nil {
		t.Fatal(err)
	}
	if !open || !m.Recording() {
		t.Fatal("first toggle should start recording")
	}

	open, err = m.ToggleRecording()
	if err != nil {
		t.Fatal(err)
	}
	if open || m.Recording() {
		t.Fatal("second toggle should stop recording")
	}
}

func TestMonitor_RecordingRoundTrip(t *testing.T) {
	cfg := testSettings(t)
	cfg.Filter.Enabled = false

	m, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	src := newFakeSource()
	if err := m.Attach(src); err != nil {
		t.Fatal(err)
	}

	if err := m.StartRecording(); err != nil {
		t.Fatal(err)
	}
	if !m.Recording() {
		t.Fatal("not recording after start")
	}

	want := []int16{10, -20, 30}
	src.send(want)
	waitForSamples(t, m, uint64(len(want)))

	path, _, err := m.StopRecording()
	if err != nil {
		t.Fatal(err)
	}

	samples, rate, meta, err := recording.Load(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 500 {
		t.Fatalf("rate %d from sidecar, want 500", rate)
	}
	if meta["device"] != "fake" {
		t.Fatalf("device metadata %q", meta["device"])
	}
	if len(samples) != len(want) {
		t.Fatalf("recorded %v, want %v", samples, want)
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Fatalf("sample %d: got %d, want %d", i, samples[i], want[i])
		}
	}
}
