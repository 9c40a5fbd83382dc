// Package biquad implements second-order IIR filter sections (biquads) and
// cascades of them, using the Direct Form II Transposed structure.
//
// A Section holds one set of transfer-function coefficients plus its delay
// line. A Chain cascades sections in series and is the building block for
// the monitor's highpass/lowpass/notch stages. Coefficients can be swapped
// while streaming; the delay-line state survives the swap so live cutoff
// changes do not produce output discontinuities.
package biquad
