package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDCBlockerRemovesOffset(t *testing.T) {
	d := NewDCBlocker()
	var last float64
	for i := 0; i < 2000; i++ {
		last = d.Process(0.7)
	}
	assert.Less(t, math.Abs(last), 0.05)
}

func TestDCBlockerPassesAlternatingSignal(t *testing.T) {
	d := NewDCBlocker()
	var sum float64
	for i := 0; i < 100; i++ {
		x := 1.0
		if i%2 == 1 {
			x = -1.0
		}
		sum += math.Abs(d.Process(x))
	}
	assert.Greater(t, sum, 50.0)
}

func TestDCBlockerReset(t *testing.T) {
	d := NewDCBlocker()
	d.Process(1.0)
	d.Reset()
	assert.Equal(t, 0.0, d.prevX)
	assert.Equal(t, 0.0, d.prevY)
}

func TestAGCConvergesToTargetAmplitude(t *testing.T) {
	a := NewAGC()
	const amp = 0.05
	var last float64
	for i := 0; i < 5000; i++ {
		x := amp
		if i%2 == 1 {
			x = -amp
		}
		last = a.Process(x)
	}
	assert.InDelta(t, a.target, math.Abs(last), 0.1)
}

func TestAGCNeverAmplifiesSilenceToInfinity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := NewAGC()
		n := rapid.IntRange(0, 500).Draw(rt, "n")
		for i := 0; i < n; i++ {
			out := a.Process(0.0)
			assert.False(t, math.IsNaN(out))
			assert.False(t, math.IsInf(out, 0))
		}
	})
}

func TestAGCReset(t *testing.T) {
	a := NewAGC()
	a.Process(0.9)
	a.Reset()
	assert.Equal(t, 0.0, a.envelope)
	assert.Equal(t, 1.0, a.gain)
}
