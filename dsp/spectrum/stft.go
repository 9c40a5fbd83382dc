package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/openexg/eegmon/dsp/window"
)

// STFTConfig holds streaming spectrogram parameters.
//
// Zero values select the monitor defaults: 2-second segments, 50% overlap.
// The window is generated in periodic form from WindowType (rectangular
// when unset).
type STFTConfig struct {
	SampleRate    float64
	SegmentLength int     // samples per analysis segment
	Overlap       float64 // fraction of segment shared with the previous one, [0, 1)
	WindowType    window.Type
	PowerFloor    float64 // additive floor before dB conversion
}

// STFT computes a streaming spectrogram: callers push samples as they arrive
// and receive completed power-spectral-density columns in dB.
//
// Segments are windowed, zero-padded to a power-of-two FFT size and reduced
// to one-sided density bins, matching a Welch-style periodogram per column.
type STFT struct {
	cfg     STFTConfig
	plan    *algofft.Plan[complex128]
	win     []float64
	winNorm float64 // fs * sum(w[n]^2), density scaling denominator
	fftSize int
	hop     int

	pending []float64
	seg     []float64
	in      []complex128
	out     []complex128
}

// NewSTFT validates the config and prepares FFT plan and window.
func NewSTFT(cfg STFTConfig) (*STFT, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("stft: sample rate must be > 0: %f", cfg.SampleRate)
	}
	if cfg.SegmentLength <= 0 {
		cfg.SegmentLength = int(2 * cfg.SampleRate)
	}
	if cfg.SegmentLength < 2 {
		return nil, fmt.Errorf("stft: segment length too short: %d", cfg.SegmentLength)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= 1 {
		cfg.Overlap = 0.5
	}
	if cfg.PowerFloor <= 0 {
		cfg.PowerFloor = DefaultPowerFloor
	}

	hop := int(math.Round(float64(cfg.SegmentLength) * (1 - cfg.Overlap)))
	if hop < 1 {
		hop = 1
	}

	fftSize := nextPowerOf2(cfg.SegmentLength)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("stft: fft plan: %w", err)
	}

	win := window.Generate(cfg.WindowType, cfg.SegmentLength, window.WithPeriodic())

	sumSq := 0.0
	for _, w := range win {
		sumSq += w * w
	}
	if sumSq == 0 {
		return nil, fmt.Errorf("stft: degenerate window")
	}

	return &STFT{
		cfg:     cfg,
		plan:    plan,
		win:     win,
		winNorm: cfg.SampleRate * sumSq,
		fftSize: fftSize,
		hop:     hop,
		seg:     make([]float64, cfg.SegmentLength),
		in:      make([]complex128, fftSize),
		out:     make([]complex128, fftSize),
	}, nil
}

// Push appends samples to the analysis buffer and returns the spectrogram
// columns completed by this call (possibly none). Each column holds
// NumBins() density values in dB, bin 0 = DC.
//
// Returned columns are freshly allocated and safe to retain.
func (s *STFT) Push(samples []float64) [][]float64 {
	if len(samples) == 0 {
		return nil
	}

	s.pending = append(s.pending, samples...)

	var cols [][]float64
	for len(s.pending) >= s.cfg.SegmentLength {
		cols = append(cols, s.transform(s.pending[:s.cfg.SegmentLength]))

		n := copy(s.pending, s.pending[s.hop:])
		s.pending = s.pending[:n]
	}

	return cols
}

// Reset discards buffered samples so the next column starts fresh.
func (s *STFT) Reset() {
	s.pending = s.pending[:0]
}

// NumBins returns the number of one-sided frequency bins per column.
func (s *STFT) NumBins() int { return s.fftSize/2 + 1 }

// FFTSize returns the (power-of-two) transform size.
func (s *STFT) FFTSize() int { return s.fftSize }

// HopSize returns the stride between consecutive columns in samples.
func (s *STFT) HopSize() int { return s.hop }

// SegmentLength returns the analysis segment length in samples.
func (s *STFT) SegmentLength() int { return s.cfg.SegmentLength }

// ColumnInterval returns the time between consecutive columns in seconds.
func (s *STFT) ColumnInterval() float64 {
	return float64(s.hop) / s.cfg.SampleRate
}

// Frequencies returns the center frequency of each bin in Hz.
func (s *STFT) Frequencies() []float64 {
	return Frequencies(s.fftSize, s.cfg.SampleRate)
}

func (s *STFT) transform(segment []float64) []float64 {
	copy(s.seg, segment)
	window.ApplyCoefficients(s.seg, s.win)

	for i := range s.in {
		s.in[i] = 0
	}
	for i, x := range s.seg {
		s.in[i] = complex(x, 0)
	}

	if err := s.plan.Forward(s.out, s.in); err != nil {
		// The plan was validated at construction; a failure here means the
		// scratch slices were corrupted, which is a programming error.
		panic(fmt.Sprintf("stft: forward fft: %v", err))
	}

	bins := s.NumBins()
	re, im, buf := getScratch(bins)
	for k := 0; k < bins; k++ {
		re[k] = real(s.out[k])
		im[k] = imag(s.out[k])
	}

	col := make([]float64, bins)
	PowerFromParts(col, re, im)
	putScratch(buf)

	inv := 1 / s.winNorm
	for k := range col {
		col[k] *= inv
		// One-sided density: interior bins carry the energy of both the
		// positive and negative frequency, DC and Nyquist appear once.
		if k != 0 && k != s.fftSize/2 {
			col[k] *= 2
		}
	}
	PowerToDB(col, s.cfg.PowerFloor)

	return col
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
