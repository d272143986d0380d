package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestFrequencyEstimatorTracksPureTone exercises the property that a
// pure sinusoid at f in [500,2500] Hz is tracked to within a few Hz once
// the Hilbert filter's startup transient and the first complex-difference
// sample have settled.
func TestFrequencyEstimatorTracksPureTone(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := rapid.Float64Range(500, 2500).Draw(rt, "f")
		est := NewFrequencyEstimator(InternalSampleRate)

		const settle = hilbertTapCount + 50
		const measure = 200
		var sum float64
		var count int

		for n := 0; n < settle+measure; n++ {
			x := math.Sin(2 * math.Pi * f * float64(n) / InternalSampleRate)
			out := est.Process(x)
			if n >= settle {
				sum += out
				count++
			}
		}

		avg := sum / float64(count)
		assert.InDelta(t, f, avg, 5.0)
	})
}

func TestFrequencyEstimatorZeroDuringStartup(t *testing.T) {
	est := NewFrequencyEstimator(InternalSampleRate)
	for n := 0; n < hilbertTapCount; n++ {
		out := est.Process(math.Sin(2 * math.Pi * 1500 * float64(n) / InternalSampleRate))
		assert.Equal(t, 0.0, out)
	}
}

func TestFrequencyEstimatorHoldsLastFrequencyOnSilence(t *testing.T) {
	est := NewFrequencyEstimator(InternalSampleRate)
	for n := 0; n < hilbertTapCount+100; n++ {
		est.Process(math.Sin(2 * math.Pi * 1900 * float64(n) / InternalSampleRate))
	}
	// I and Q come from delay lines, so the noise gate only sees silence
	// once a full tap count of zeros has flushed them.
	for n := 0; n < hilbertTapCount; n++ {
		est.Process(0.0)
	}
	held := est.prevFreq
	out := est.Process(0.0)
	assert.Equal(t, held, out)
}

func TestFrequencyEstimatorReset(t *testing.T) {
	est := NewFrequencyEstimator(InternalSampleRate)
	for n := 0; n < hilbertTapCount+10; n++ {
		est.Process(math.Sin(2 * math.Pi * 1500 * float64(n) / InternalSampleRate))
	}
	est.Reset()
	assert.Equal(t, 0, est.samplesSeen)
	assert.Equal(t, 0.0, est.prevI)
	assert.Equal(t, 0.0, est.prevQ)
}
