// Package acquisition reads the EEG device's serial byte stream and decodes
// it into 16-bit samples.
package acquisition

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"
)

// ErrClosed is returned by operations on a closed Reader.
var ErrClosed = errors.New("acquisition: reader closed")

// Block is one serial read worth of decoded samples plus the receive time.
type Block struct {
	Samples []int16
	Time    time.Time
}

// Config holds the serial line parameters.
type Config struct {
	Port     string
	BaudRate uint
}

// Reader owns the serial port and decodes its byte stream in a background
// goroutine. Decoded blocks are delivered on Blocks; the channel closes when
// the reader stops, either via Close or a read error.
type Reader struct {
	port   io.ReadWriteCloser
	device string
	log    *slog.Logger

	blocks chan Block

	mu      sync.Mutex
	closed  bool
	readErr error
}

// Open connects to the serial port at 8N1 and starts the read loop.
func Open(cfg Config, logger *slog.Logger) (*Reader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	port, err := serial.Open(serial.OpenOptions{
		PortName:        cfg.Port,
		BaudRate:        cfg.BaudRate,
		DataBits:        8,
		ParityMode:      serial.PARITY_NONE,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("acquisition: open %s: %w", cfg.Port, err)
	}

	r := newReader(port, cfg.Port, logger)
	logger.Info("serial port opened", "port", cfg.Port, "baud", cfg.BaudRate)
	return r, nil
}

// NewFromPort wraps an already-open port. Used by tests and by replay tools
// that feed recorded byte streams through the same decode path.
func NewFromPort(port io.ReadWriteCloser, device string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return newReader(port, device, logger)
}

func newReader(port io.ReadWriteCloser, device string, logger *slog.Logger) *Reader {
	r := &Reader{
		port:   port,
		device: device,
		log:    logger,
		blocks: make(chan Block, 16),
	}
	go r.readLoop()
	return r
}

// Blocks returns the channel of decoded sample blocks.
func (r *Reader) Blocks() <-chan Block { return r.blocks }

// Device returns the device node the reader was opened on.
func (r *Reader) Device() string { return r.device }

// Err returns the error that terminated the read loop, if any.
// It is meaningful once Blocks is closed.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	return r.readErr
}

// Close shuts the port down and stops the read loop. Safe to call twice.
func (r *Reader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	// Closing the port unblocks the pending Read in readLoop.
	return r.port.Close()
}

func (r *Reader) readLoop() {
	defer close(r.blocks)

	var dec Decoder
	buf := make([]byte, 4096)

	for {
		n, err := r.port.Read(buf)
		if n > 0 {
			samples := dec.Decode(nil, buf[:n])
			if len(samples) > 0 {
				r.blocks <- Block{Samples: samples, Time: time.Now()}
			}
		}
		if err != nil {
			r.mu.Lock()
			closed := r.closed
			if !closed && !errors.Is(err, io.EOF) {
				r.readErr = err
			}
			r.mu.Unlock()

			if !closed && !errors.Is(err, io.EOF) {
				r.log.Error("serial read failed", "port", r.device, "err", err)
			}
			return
		}
	}
}

// Probe reads up to 20 bytes with a deadline and reports them in hex,
// mirroring the desktop app's "test connection" button.
func Probe(cfg Config, timeout time.Duration) (string, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              cfg.Port,
		BaudRate:              cfg.BaudRate,
		DataBits:              8,
		ParityMode:            serial.PARITY_NONE,
		StopBits:              1,
		InterCharacterTimeout: uint(timeout.Milliseconds()),
		MinimumReadSize:       0,
	})
	if err != nil {
		return "", fmt.Errorf("acquisition: open %s: %w", cfg.Port, err)
	}
	defer port.Close()

	buf := make([]byte, 20)
	n, err := port.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("acquisition: probe read: %w", err)
	}
	if n == 0 {
		return "no data in buffer; verify the device is sending", nil
	}

	hex := ""
	for i, b := range buf[:n] {
		if i > 0 {
			hex += " "
		}
		hex += fmt.Sprintf("%02x", b)
	}
	return fmt.Sprintf("data received (%d bytes): %s", n, hex), nil
}
