// Package bands computes EEG frequency-band powers (delta through gamma)
// from a window of samples using Welch's method.
package bands

import (
	"github.com/mjibson/go-dsp/spectral"
	dspwindow "github.com/mjibson/go-dsp/window"
)

// Band is a named frequency range in Hz, inclusive on both edges.
type Band struct {
	Name string
	Low  float64
	High float64
}

// Standard lists the conventional EEG bands.
var Standard = []Band{
	{"delta", 0.5, 4},
	{"theta", 4, 8},
	{"alpha", 8, 13},
	{"beta", 13, 30},
	{"gamma", 30, 70},
}

// Powers holds the mean power spectral density per EEG band.
type Powers struct {
	Delta float64 `json:"delta"`
	Theta float64 `json:"theta"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Map returns the band powers keyed by band name.
func (p Powers) Map() map[string]float64 {
	return map[string]float64{
		"delta": p.Delta,
		"theta": p.Theta,
		"alpha": p.Alpha,
		"beta":  p.Beta,
		"gamma": p.Gamma,
	}
}

// Compute estimates band powers with Welch's method: 2-second Hann-windowed
// segments with 50% overlap, density scaling.
//
// Fewer than two seconds of samples cannot resolve the delta band; in that
// case Compute returns zero powers and ok=false, matching the monitor's
// behavior of showing empty band meters until enough data has arrived.
func Compute(samples []float64, sampleRate float64) (Powers, bool) {
	if sampleRate <= 0 {
		return Powers{}, false
	}

	nseg := int(2 * sampleRate)
	if len(samples) < nseg || nseg < 2 {
		return Powers{}, false
	}

	opts := &spectral.PwelchOptions{
		NFFT:     nseg,
		Noverlap: nseg / 2,
		Window:   dspwindow.Hann,
	}
	psd, freqs := spectral.Pwelch(samples, sampleRate, opts)

	var p Powers
	p.Delta = meanInBand(psd, freqs, Standard[0])
	p.Theta = meanInBand(psd, freqs, Standard[1])
	p.Alpha = meanInBand(psd, freqs, Standard[2])
	p.Beta = meanInBand(psd, freqs, Standard[3])
	p.Gamma = meanInBand(psd, freqs, Standard[4])

	return p, true
}

func meanInBand(psd, freqs []float64, b Band) float64 {
	sum := 0.0
	n := 0
	for i, f := range freqs {
		if f < b.Low || f > b.High {
			continue
		}
		sum += psd[i]
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
