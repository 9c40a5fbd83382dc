package acquisition

// Decoder converts the device byte stream into signed 16-bit samples
// (little-endian). Serial reads can split a sample across two calls; the
// trailing odd byte is carried over so no sample is lost at read boundaries.
type Decoder struct {
	carry    byte
	hasCarry bool
}

// Decode appends the samples contained in buf to dst and returns it.
// A trailing partial sample is retained for the next call.
func (d *Decoder) Decode(dst []int16, buf []byte) []int16 {
	i := 0
	if d.hasCarry && len(buf) > 0 {
		dst = append(dst, int16(uint16(d.carry)|uint16(buf[0])<<8))
		d.hasCarry = false
		i = 1
	}

	for ; i+1 < len(buf); i += 2 {
		dst = append(dst, int16(uint16(buf[i])|uint16(buf[i+1])<<8))
	}

	if i < len(buf) {
		d.carry = buf[i]
		d.hasCarry = true
	}

	return dst
}

// Pending reports whether a partial sample is buffered.
func (d *Decoder) Pending() bool { return d.hasCarry }

// Reset drops any buffered partial sample.
func (d *Decoder) Reset() {
	d.hasCarry = false
}

// SamplesToFloat converts decoded samples to float64 for the DSP chain,
// appending to dst.
func SamplesToFloat(dst []float64, samples []int16) []float64 {
	for _, s := range samples {
		dst = append(dst, float64(s))
	}
	return dst
}

// EncodeSamples appends the little-endian wire form of samples to dst.
// This is the exact byte layout written to raw recordings.
func EncodeSamples(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = append(dst, byte(uint16(s)), byte(uint16(s)>>8))
	}
	return dst
}
