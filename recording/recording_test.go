package recording

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorder_WriteStopLoad(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRecorder(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	if r.Recording() {
		t.Fatal("fresh recorder should not be recording")
	}
	if err := r.Write([]int16{1, 2}); err != nil {
		t.Fatalf("write while idle must be a no-op: %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err == nil {
		t.Fatal("double start should fail")
	}

	if err := r.Write([]int16{100, -200, 300}); err != nil {
		t.Fatal(err)
	}
	if err := r.Write([]int16{-400}); err != nil {
		t.Fatal(err)
	}
	if r.Samples() != 4 {
		t.Fatalf("samples=%d, want 4", r.Samples())
	}

	path, _, err := r.Stop(Metadata{"sample_rate": "500", "device": "/dev/ttyUSB0"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(filepath.Base(path), "EEG_RECORDING_") {
		t.Fatalf("unexpected file name %q", path)
	}

	samples, rate, meta, err := Load(path, 250)
	if err != nil {
		t.Fatal(err)
	}
	want := []int16{100, -200, 300, -400}
	if len(samples) != len(want) {
		t.Fatalf("got %v, want %v", samples, want)
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Fatalf("sample %d: got %d, want %d", i, samples[i], want[i])
		}
	}
	if rate != 500 {
		t.Fatalf("rate=%d, want 500 from sidecar", rate)
	}
	if meta["device"] != "/dev/ttyUSB0" {
		t.Fatalf("metadata lost: %v", meta)
	}
	if meta["samples"] != "4" {
		t.Fatalf("sample count not recorded: %v", meta)
	}
}

func TestRecorder_StopWithoutStart(t *testing.T) {
	r, err := NewRecorder(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.Stop(nil); err == nil {
		t.Fatal("stop without start should fail")
	}
}

func TestLoad_NoSidecarUsesFallbackRate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orphan.dat")
	if err := os.WriteFile(path, []byte{0x01, 0x00, 0x02, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	samples, rate, meta, err := Load(path, 250)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 250 {
		t.Fatalf("rate=%d, want fallback 250", rate)
	}
	if len(samples) != 2 || len(meta) != 0 {
		t.Fatalf("samples=%v meta=%v", samples, meta)
	}
}

func TestLoad_TruncatedFinalByte(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cut.dat")
	if err := os.WriteFile(path, []byte{0x05, 0x00, 0xff}, 0o644); err != nil {
		t.Fatal(err)
	}

	samples, _, _, err := Load(path, 500)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 1 || samples[0] != 5 {
		t.Fatalf("got %v, want [5]", samples)
	}
}

func TestMetadata_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec := filepath.Join(dir, "x.dat")

	meta := Metadata{"sample_rate": "500", "note": "eyes closed: baseline"}
	if err := WriteMetadata(rec, meta); err != nil {
		t.Fatal(err)
	}

	got, err := ReadMetadata(rec)
	if err != nil {
		t.Fatal(err)
	}
	// Values containing ':' must survive (split on first colon only).
	if got["note"] != "eyes closed: baseline" {
		t.Fatalf("note mangled: %q", got["note"])
	}
	if got["sample_rate"] != "500" {
		t.Fatalf("sample_rate lost: %v", got)
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := ExportCSV(path, []int16{10, -20}, 500); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "Time,EEG" {
		t.Fatalf("header %q", lines[0])
	}
	if lines[1] != "0.000000,10" {
		t.Fatalf("row 1: %q", lines[1])
	}
	if lines[2] != "0.002000,-20" {
		t.Fatalf("row 2: %q", lines[2])
	}
}

func TestExportEDF_HeaderLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.edf")
	start := time.Date(2026, 8, 25, 13, 45, 7, 0, time.UTC)

	samples := make([]int16, 750) // 1.5 s at 500 Hz -> 2 records, padded
	samples[0] = 1234

	err := ExportEDF(path, samples, 500, EDFOptions{
		PatientID:   "anon-01",
		SignalLabel: "EEG Fpz-Cz",
		StartTime:   start,
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// 512-byte header + 2 records of 500 samples.
	if len(data) != 512+2*500*2 {
		t.Fatalf("file size %d", len(data))
	}

	field := func(off, width int) string {
		return strings.TrimSpace(string(data[off : off+width]))
	}
	if field(0, 8) != "0" {
		t.Errorf("version field %q", field(0, 8))
	}
	if field(8, 80) != "anon-01" {
		t.Errorf("patient field %q", field(8, 80))
	}
	if field(168, 8) != "25.08.26" {
		t.Errorf("start date %q", field(168, 8))
	}
	if field(176, 8) != "13.45.07" {
		t.Errorf("start time %q", field(176, 8))
	}
	if field(184, 8) != "512" {
		t.Errorf("header bytes %q", field(184, 8))
	}
	if field(236, 8) != "2" {
		t.Errorf("record count %q", field(236, 8))
	}
	if field(252, 4) != "1" {
		t.Errorf("signal count %q", field(252, 4))
	}
	if field(256, 16) != "EEG Fpz-Cz" {
		t.Errorf("label %q", field(256, 16))
	}

	// First sample little-endian after the header.
	if got := int16(uint16(data[512]) | uint16(data[513])<<8); got != 1234 {
		t.Errorf("first sample %d", got)
	}

	// Padding of the final record is zeros.
	for i := 512 + 2*750; i < len(data); i += 2 {
		if data[i] != 0 || data[i+1] != 0 {
			t.Fatalf("padding not zero at %d", i)
		}
	}
}

func TestExportEDF_Validation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.edf")
	if err := ExportEDF(path, nil, 500, EDFOptions{}); err == nil {
		t.Fatal("empty samples should fail")
	}
	if err := ExportEDF(path, []int16{1}, 0, EDFOptions{}); err == nil {
		t.Fatal("zero rate should fail")
	}
}
