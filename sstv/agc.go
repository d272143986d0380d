package sstv

import "math"

// DCBlocker is a one-pole IIR DC remover (spec.md §4.3):
// y[n] = x[n] - x[n-1] + alpha*y[n-1].
type DCBlocker struct {
	alpha float64
	prevX float64
	prevY float64
}

const dcBlockerAlpha = 0.995

// NewDCBlocker constructs a blocker with the recommended alpha.
func NewDCBlocker() *DCBlocker {
	return &DCBlocker{alpha: dcBlockerAlpha}
}

func (d *DCBlocker) Process(x float64) float64 {
	y := x - d.prevX + d.alpha*d.prevY
	d.prevX = x
	d.prevY = y
	return y
}

func (d *DCBlocker) Reset() {
	d.prevX = 0
	d.prevY = 0
}

// AGC normalizes amplitude via an asymmetric attack/release envelope
// follower, grounded on original_source/include/dsp_agc.h. Gain is
// smoothed with a 0.1/0.9 one-pole to avoid modulation noise.
type AGC struct {
	target, attack, release float64
	envelope, gain          float64
}

// NewAGC builds an AGC with the default target (0.5), attack (0.01) and
// release (0.001).
func NewAGC() *AGC {
	return &AGC{
		target:  0.5,
		attack:  0.01,
		release: 0.001,
		gain:    1.0,
	}
}

func (a *AGC) Process(x float64) float64 {
	absX := math.Abs(x)
	if absX > a.envelope {
		a.envelope = a.attack*absX + (1.0-a.attack)*a.envelope
	} else {
		a.envelope = a.release*absX + (1.0-a.release)*a.envelope
	}

	if a.envelope > 1e-6 {
		desiredGain := a.target / a.envelope
		a.gain = 0.1*desiredGain + 0.9*a.gain
	}

	return x * a.gain
}

func (a *AGC) Reset() {
	a.envelope = 0
	a.gain = 1.0
}
