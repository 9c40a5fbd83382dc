package biquad

import "testing"

func BenchmarkSectionProcessSample(b *testing.B) {
	s := NewSection(Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04})

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.ProcessSample(1)
	}
}

func BenchmarkSectionProcessBlock(b *testing.B) {
	s := NewSection(Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04})
	buf := make([]float64, 4096)
	for i := range buf {
		buf[i] = float64(i%7) * 0.1
	}

	b.ReportAllocs()
	b.SetBytes(int64(len(buf) * 8))
	for i := 0; i < b.N; i++ {
		s.ProcessBlock(buf)
	}
}

func BenchmarkChainProcessBlock(b *testing.B) {
	coeffs := []Coefficients{
		{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04},
		{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04},
	}
	c := NewChain(coeffs)
	buf := make([]float64, 4096)

	b.ReportAllocs()
	b.SetBytes(int64(len(buf) * 8))
	for i := 0; i < b.N; i++ {
		c.ProcessBlock(buf)
	}
}
