package sstv

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// BandpassTapCount is the default bandpass FIR length (spec.md §4.2:
// "a small tap count (~31) suffices").
const BandpassTapCount = 31

func sincNorm(x float64) float64 {
	if x == 0 {
		return 1.0
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// bandpassGainAt evaluates the linear-phase FIR's real-valued magnitude
// response at freq, used to normalize the passband instead of the
// near-zero DC sum.
func bandpassGainAt(coeffs []float64, freq, sampleRate float64) float64 {
	center := float64(len(coeffs)-1) / 2.0
	omega := 2.0 * math.Pi * freq / sampleRate
	var sum float64
	for i, c := range coeffs {
		n := float64(i) - center
		sum += c * math.Cos(omega*n)
	}
	return sum
}

// makeBandpassCoeffs designs a Hamming-windowed sinc bandpass filter as
// LPF(high) − LPF(low), grounded on
// original_source/src/dsp_filters.cpp make_fir_coeffs. Unlike that
// reference (which relies on a downstream DC blocker to mop up residual
// DC gain), the coefficients here are normalized against the passband
// itself, so the filter's own DC response stays near zero.
func makeBandpassCoeffs(tapCount int, sampleRate, cutoffLow, cutoffHigh float64) []float64 {
	coeffs := make([]float64, tapCount)
	fc1 := cutoffLow / sampleRate
	fc2 := cutoffHigh / sampleRate
	m := float64(tapCount - 1)

	for i := 0; i < tapCount; i++ {
		n := float64(i) - m/2.0
		coeffs[i] = 2.0*fc2*sincNorm(2.0*fc2*n) - 2.0*fc1*sincNorm(2.0*fc1*n)
	}
	window.Hamming(coeffs)

	center := (cutoffLow + cutoffHigh) / 2.0
	if gain := bandpassGainAt(coeffs, center, sampleRate); gain != 0 {
		for i := range coeffs {
			coeffs[i] /= gain
		}
	}
	return coeffs
}

// BandpassFilter is a stateful FIR band-pass over the SSTV audio band.
type BandpassFilter struct {
	fir *firFilter
}

// NewBandpassFilter builds the 500-2500 Hz filter at the given internal
// sample rate.
func NewBandpassFilter(sampleRate float64) *BandpassFilter {
	coeffs := makeBandpassCoeffs(BandpassTapCount, sampleRate, 500.0, 2500.0)
	return &BandpassFilter{fir: newFIRFilter(coeffs)}
}

// Process filters one sample.
func (b *BandpassFilter) Process(x float64) float64 {
	return b.fir.process(x)
}

// Clear zeros the delay line and write pointer.
func (b *BandpassFilter) Clear() {
	b.fir.clear()
}

// TapCount returns the configured tap count.
func (b *BandpassFilter) TapCount() int {
	return b.fir.tapCount()
}
