package sstv

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// hilbertTapCount must be odd so the filter has a well-defined center
// tap and an integer group delay.
const hilbertTapCount = 65

func makeHilbertCoeffs(tapCount int) []float64 {
	coeffs := make([]float64, tapCount)
	center := float64(tapCount-1) / 2.0
	for i := 0; i < tapCount; i++ {
		n := float64(i) - center
		ni := int(math.Round(n))
		if ni%2 != 0 {
			coeffs[i] = 2.0 / (math.Pi * n)
		}
	}
	window.Blackman(coeffs)
	return coeffs
}

// FrequencyEstimator recovers instantaneous frequency via Hilbert
// quadrature demodulation followed by complex differentiation
// (spec.md §4.4). This is the only frequency-extraction method used in
// this module; zero-crossing and phase-unwrap variants are intentionally
// not implemented anywhere.
type FrequencyEstimator struct {
	sampleRate float64
	hilbert    *firFilter
	inLine     *delayLine
	groupDelay int

	prevI, prevQ float64
	prevFreq     float64
	samplesSeen  int
}

// NewFrequencyEstimator builds the estimator at the given internal rate.
func NewFrequencyEstimator(sampleRate float64) *FrequencyEstimator {
	coeffs := makeHilbertCoeffs(hilbertTapCount)
	return &FrequencyEstimator{
		sampleRate: sampleRate,
		hilbert:    newFIRFilter(coeffs),
		inLine:     newDelayLine(hilbertTapCount),
		groupDelay: hilbertTapCount / 2,
	}
}

// Process returns the instantaneous frequency estimate, in Hz, for one
// input sample. Returns 0 during the startup transient (first
// tap_count samples).
func (f *FrequencyEstimator) Process(x float64) float64 {
	f.inLine.push(x)
	q := f.hilbert.process(x)

	f.samplesSeen++
	if f.samplesSeen <= hilbertTapCount {
		return 0
	}

	i := f.inLine.at(f.groupDelay)

	if i*i+q*q < 1e-7 {
		return f.prevFreq
	}

	dot := i*f.prevI + q*f.prevQ
	cross := q*f.prevI - i*f.prevQ
	dphi := math.Atan2(cross, dot)
	freq := dphi * f.sampleRate / (2.0 * math.Pi)

	f.prevI, f.prevQ = i, q
	f.prevFreq = freq
	return freq
}

// Reset returns the estimator to its post-construction state without
// reallocating.
func (f *FrequencyEstimator) Reset() {
	f.hilbert.clear()
	f.inLine.clear()
	f.prevI, f.prevQ, f.prevFreq = 0, 0, 0
	f.samplesSeen = 0
}
