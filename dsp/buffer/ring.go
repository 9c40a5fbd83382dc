// Package buffer provides the rolling sample windows backing the waveform
// and spectrogram views.
package buffer

// Ring is a fixed-capacity rolling window over float64 samples. Appending
// past capacity overwrites the oldest samples. It is not safe for concurrent
// use; the monitor serializes access.
type Ring struct {
	data  []float64
	write int
	count int    // valid samples, <= cap
	total uint64 // samples ever appended, monotonic
}

// NewRing returns a Ring holding up to capacity samples.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{data: make([]float64, capacity)}
}

// Append adds samples in order, overwriting the oldest when full.
func (r *Ring) Append(samples []float64) {
	n := len(r.data)
	if len(samples) >= n {
		// Only the newest capacity-worth survives.
		copy(r.data, samples[len(samples)-n:])
		r.write = 0
		r.count = n
		r.total += uint64(len(samples))
		return
	}

	for _, s := range samples {
		r.data[r.write] = s
		r.write++
		if r.write == n {
			r.write = 0
		}
	}
	r.count += len(samples)
	if r.count > n {
		r.count = n
	}
	r.total += uint64(len(samples))
}

// Snapshot appends the buffered samples in chronological order to dst and
// returns the result. Pass nil to allocate.
func (r *Ring) Snapshot(dst []float64) []float64 {
	if r.count == 0 {
		return dst
	}

	start := r.write - r.count
	if start < 0 {
		start += len(r.data)
	}

	tail := len(r.data) - start
	if tail >= r.count {
		return append(dst, r.data[start:start+r.count]...)
	}

	dst = append(dst, r.data[start:]...)
	return append(dst, r.data[:r.count-tail]...)
}

// Latest appends the newest n samples (or fewer if not available) in
// chronological order to dst and returns the result.
func (r *Ring) Latest(dst []float64, n int) []float64 {
	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return dst
	}

	start := r.write - n
	if start < 0 {
		start += len(r.data)
	}

	tail := len(r.data) - start
	if tail >= n {
		return append(dst, r.data[start:start+n]...)
	}

	dst = append(dst, r.data[start:]...)
	return append(dst, r.data[:n-tail]...)
}

// Len returns the number of valid samples currently buffered.
func (r *Ring) Len() int { return r.count }

// Cap returns the ring capacity.
func (r *Ring) Cap() int { return len(r.data) }

// Total returns the number of samples ever appended.
func (r *Ring) Total() uint64 { return r.total }

// Clear drops all buffered samples. Total is preserved.
func (r *Ring) Clear() {
	r.write = 0
	r.count = 0
}
