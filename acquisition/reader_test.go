package acquisition

import (
	"io"
	"testing"
	"time"
)

// pipePort adapts an io.Pipe to the ReadWriteCloser the Reader expects.
type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func newPipePort() *pipePort {
	r, w := io.Pipe()
	return &pipePort{r: r, w: w}
}

func (p *pipePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *pipePort) Close() error {
	p.w.Close()
	return p.r.Close()
}

func collect(t *testing.T, r *Reader, n int, timeout time.Duration) []int16 {
	t.Helper()
	var out []int16
	deadline := time.After(timeout)
	for len(out) < n {
		select {
		case blk, ok := <-r.Blocks():
			if !ok {
				t.Fatalf("blocks channel closed early (have %d of %d), err=%v", len(out), n, r.Err())
			}
			out = append(out, blk.Samples...)
		case <-deadline:
			t.Fatalf("timeout waiting for %d samples, have %d", n, len(out))
		}
	}
	return out
}

func TestReader_DecodesStream(t *testing.T) {
	port := newPipePort()
	r := NewFromPort(port, "pipe", nil)
	defer r.Close()

	go port.w.Write(EncodeSamples(nil, []int16{10, -20, 30}))

	got := collect(t, r, 3, time.Second)
	want := []int16{10, -20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestReader_SplitSampleAcrossWrites(t *testing.T) {
	port := newPipePort()
	r := NewFromPort(port, "pipe", nil)
	defer r.Close()

	go func() {
		port.w.Write([]byte{0x34})
		time.Sleep(10 * time.Millisecond)
		port.w.Write([]byte{0x12})
	}()

	got := collect(t, r, 1, time.Second)
	if got[0] != 0x1234 {
		t.Fatalf("got %#x, want 0x1234", got[0])
	}
}

func TestReader_CloseStopsLoop(t *testing.T) {
	port := newPipePort()
	r := NewFromPort(port, "pipe", nil)

	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	select {
	case _, ok := <-r.Blocks():
		if ok {
			t.Fatal("expected channel to close without data")
		}
	case <-time.After(time.Second):
		t.Fatal("blocks channel did not close")
	}

	if err := r.Err(); err != nil {
		t.Fatalf("close is not a read error, got %v", err)
	}
}

func TestReader_EOFClosesCleanly(t *testing.T) {
	port := newPipePort()
	r := NewFromPort(port, "pipe", nil)
	defer r.Close()

	go func() {
		port.w.Write(EncodeSamples(nil, []int16{7}))
		port.w.Close()
	}()

	got := collect(t, r, 1, time.Second)
	if got[0] != 7 {
		t.Fatalf("got %d, want 7", got[0])
	}

	select {
	case _, ok := <-r.Blocks():
		if ok {
			t.Fatal("expected close after EOF")
		}
	case <-time.After(time.Second):
		t.Fatal("blocks channel did not close after EOF")
	}
	if err := r.Err(); err != nil {
		t.Fatalf("EOF should not be reported as an error, got %v", err)
	}
}

func TestFindDevice_FallsBackToDefault(t *testing.T) {
	// No device named like this exists on a build machine.
	got := FindDevice("/dev/ttyUSB9", "no-such-headset", true)
	if got != "/dev/ttyUSB9" {
		t.Fatalf("got %q, want default", got)
	}
	if got := FindDevice("/dev/x", "headset", false); got != "/dev/x" {
		t.Fatalf("bluetooth disabled should return default, got %q", got)
	}
}
