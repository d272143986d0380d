package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandpassAttenuatesDC(t *testing.T) {
	b := NewBandpassFilter(InternalSampleRate)
	var last float64
	for i := 0; i < 2000; i++ {
		last = b.Process(1.0)
	}
	assert.Less(t, math.Abs(last), 0.05)
}

func TestBandpassPassesMidBandTone(t *testing.T) {
	b := NewBandpassFilter(InternalSampleRate)
	const freq = 1500.0
	n := 4000
	var peak float64
	for i := 0; i < n; i++ {
		x := math.Sin(2 * math.Pi * freq * float64(i) / InternalSampleRate)
		y := b.Process(x)
		if i > n/2 { // past the settling transient
			if math.Abs(y) > peak {
				peak = math.Abs(y)
			}
		}
	}
	assert.Greater(t, peak, 0.5)
}

func TestBandpassRejectsOutOfBandTone(t *testing.T) {
	b := NewBandpassFilter(InternalSampleRate)
	const freq = 100.0 // well below the 500Hz cutoff
	n := 4000
	var peak float64
	for i := 0; i < n; i++ {
		x := math.Sin(2 * math.Pi * freq * float64(i) / InternalSampleRate)
		y := b.Process(x)
		if i > n/2 {
			if math.Abs(y) > peak {
				peak = math.Abs(y)
			}
		}
	}
	assert.Less(t, peak, 0.3)
}

func TestBandpassClearResetsState(t *testing.T) {
	b := NewBandpassFilter(InternalSampleRate)
	for i := 0; i < 100; i++ {
		b.Process(1.0)
	}
	b.Clear()
	assert.Equal(t, 0.0, b.Process(0.0))
}
