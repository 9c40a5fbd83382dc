// Package filterbank assembles the monitor's streaming filter chain:
// a 4th-order Butterworth highpass, a 4th-order Butterworth lowpass and a
// Q=30 notch for mains hum, each stage individually optional.
package filterbank

import (
	"github.com/openexg/eegmon/config"
	"github.com/openexg/eegmon/dsp/filter/biquad"
	"github.com/openexg/eegmon/dsp/filter/design"
	"github.com/openexg/eegmon/dsp/filter/design/pass"
)

const (
	butterworthOrder = 4
	notchQ           = 30
)

// Bank is the streaming filter cascade. Stages whose cutoff is zero or
// outside (0, Nyquist) are absent rather than degenerate.
type Bank struct {
	sampleRate float64
	cfg        config.FilterSettings

	highpass *biquad.Chain
	lowpass  *biquad.Chain
	notch    *biquad.Chain
}

// New builds a Bank for the given settings.
func New(cfg config.FilterSettings, sampleRate float64) *Bank {
	b := &Bank{sampleRate: sampleRate}
	b.rebuild(cfg)
	return b
}

func (b *Bank) rebuild(cfg config.FilterSettings) {
	b.cfg = cfg
	nyquist := b.sampleRate / 2

	b.highpass = nil
	b.lowpass = nil
	b.notch = nil

	if !cfg.Enabled {
		return
	}

	if cfg.HighpassHz > 0 && cfg.HighpassHz < nyquist {
		b.highpass = biquad.NewChain(pass.ButterworthHP(cfg.HighpassHz, butterworthOrder, b.sampleRate))
	}
	if cfg.LowpassHz > 0 && cfg.LowpassHz < nyquist {
		b.lowpass = biquad.NewChain(pass.ButterworthLP(cfg.LowpassHz, butterworthOrder, b.sampleRate))
	}
	if cfg.NotchHz > 0 && cfg.NotchHz < nyquist {
		b.notch = biquad.NewChain([]biquad.Coefficients{design.Notch(cfg.NotchHz, notchQ, b.sampleRate)})
	}
}

// Process filters buf in-place through all active stages.
func (b *Bank) Process(buf []float64) {
	if b.highpass != nil {
		b.highpass.ProcessBlock(buf)
	}
	if b.lowpass != nil {
		b.lowpass.ProcessBlock(buf)
	}
	if b.notch != nil {
		b.notch.ProcessBlock(buf)
	}
}

// Update applies new settings while streaming. Stages that keep their
// section count retain their delay-line state, so a cutoff tweak does not
// kick a transient into the display.
func (b *Bank) Update(cfg config.FilterSettings) {
	old := b.cfg
	nyquist := b.sampleRate / 2

	sameShape := cfg.Enabled == old.Enabled &&
		stagePresent(cfg.HighpassHz, nyquist) == stagePresent(old.HighpassHz, nyquist) &&
		stagePresent(cfg.LowpassHz, nyquist) == stagePresent(old.LowpassHz, nyquist) &&
		stagePresent(cfg.NotchHz, nyquist) == stagePresent(old.NotchHz, nyquist)

	if !sameShape || !cfg.Enabled {
		b.rebuild(cfg)
		return
	}

	b.cfg = cfg
	if b.highpass != nil {
		b.highpass.UpdateCoefficients(pass.ButterworthHP(cfg.HighpassHz, butterworthOrder, b.sampleRate), 1)
	}
	if b.lowpass != nil {
		b.lowpass.UpdateCoefficients(pass.ButterworthLP(cfg.LowpassHz, butterworthOrder, b.sampleRate), 1)
	}
	if b.notch != nil {
		b.notch.UpdateCoefficients([]biquad.Coefficients{design.Notch(cfg.NotchHz, notchQ, b.sampleRate)}, 1)
	}
}

// Reset clears all stage delay lines.
func (b *Bank) Reset() {
	if b.highpass != nil {
		b.highpass.Reset()
	}
	if b.lowpass != nil {
		b.lowpass.Reset()
	}
	if b.notch != nil {
		b.notch.Reset()
	}
}

// Settings returns the bank's current configuration.
func (b *Bank) Settings() config.FilterSettings { return b.cfg }

// Active reports whether any stage is processing.
func (b *Bank) Active() bool {
	return b.highpass != nil || b.lowpass != nil || b.notch != nil
}

func stagePresent(freq, nyquist float64) bool {
	return freq > 0 && freq < nyquist
}

// ZeroPhase filters a complete record forward and then backward through a
// fresh bank, cancelling the cascade's phase shift. This is the offline
// analogue of the streaming Process, used by the export path. The input is
// not modified.
func ZeroPhase(cfg config.FilterSettings, sampleRate float64, data []float64) []float64 {
	out := append([]float64(nil), data...)

	// Very short records cannot absorb the filter transient; return them
	// unfiltered like the original did.
	if len(out) < 30 {
		return out
	}

	fwd := New(cfg, sampleRate)
	fwd.Process(out)

	reverse(out)
	bwd := New(cfg, sampleRate)
	bwd.Process(out)
	reverse(out)

	return out
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
