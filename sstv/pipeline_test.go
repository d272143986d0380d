package sstv

import (
	"log"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedPipelineTone drives raw time-domain audio at freqHz through the
// already-resampled internal rate, bypassing the Resampler stage (test
// constructs the Pipeline at InternalSampleRate so Process is a no-op
// resample) for the given duration.
func feedPipelineTone(p *Pipeline, freqHz, durationMs float64) {
	n := int(math.Round(durationMs * (InternalSampleRate / 1000.0)))
	samples := make([]float64, n)
	phase := 0.0
	step := 2 * math.Pi * freqHz / InternalSampleRate
	for i := range samples {
		samples[i] = math.Sin(phase)
		phase += step
	}
	p.Process(samples)
}

// TestPipelineUnknownVISStillNotifiesAndResets is grounded on spec
// scenario S4/S5: an unsupported VIS code still fires OnModeDetected once,
// then the Pipeline falls back to SEARCHING_VIS rather than decoding.
func TestPipelineUnknownVISStillNotifiesAndResets(t *testing.T) {
	p := NewPipeline(InternalSampleRate, log.Default())

	var notified []ModeDescriptor
	p.OnModeDetected(func(d ModeDescriptor) { notified = append(notified, d) })

	samplesPerMs := InternalSampleRate / 1000.0
	feedVisHeader(p.visDecoder, 1, samplesPerMs, false) // code 1 is not in the PD registry

	require.Len(t, notified, 1)
	assert.Equal(t, FamilyUnknown, notified[0].Family)
	assert.Equal(t, SearchingVIS, p.State())
}

// TestPipelineLocksModeAndDecodesFlatGreyImage is grounded on scenario
// S2/S3: a valid PD50 header followed by a uniform grey line-group
// drives the Pipeline through DECODING_IMAGE_DATA to IMAGE_COMPLETE.
func TestPipelineLocksModeAndDecodesFlatGreyImage(t *testing.T) {
	p := NewPipeline(InternalSampleRate, log.Default())

	var detected ModeDescriptor
	var lineCount int
	var completedW, completedH int
	completed := false

	p.OnModeDetected(func(d ModeDescriptor) { detected = d })
	p.OnLineDecoded(func(idx int, px []Pixel) { lineCount++ })
	p.OnImageComplete(func(w, h int) {
		completed = true
		completedW, completedH = w, h
	})

	samplesPerMs := InternalSampleRate / 1000.0
	feedVisHeader(p.visDecoder, 93, samplesPerMs, false) // PD50

	require.Equal(t, "PD50", detected.Name)
	require.Equal(t, DecodingImageData, p.State())

	mode := p.CurrentMode()
	timings, ok := lookupTimings(93)
	require.True(t, ok)

	grey := 1900.0
	for line := 0; line < mode.Height && !completed; line += 2 {
		feedPipelineTone(p, SyncFreq, timings.SyncMs)
		feedPipelineTone(p, BlackFreq, timings.PorchMs)
		feedPipelineTone(p, grey, timings.SegmentMs)
		feedPipelineTone(p, grey, timings.SegmentMs)
		feedPipelineTone(p, grey, timings.SegmentMs)
		feedPipelineTone(p, grey, timings.SegmentMs)
	}
	// Trailing silence lets the bandpass and Hilbert filter delay flush
	// the last Y2 segment through to the demodulator.
	p.Process(make([]float64, 1000))

	assert.True(t, completed)
	assert.Equal(t, mode.Width, completedW)
	assert.Equal(t, mode.Height, completedH)
	assert.Equal(t, mode.Height, lineCount)
	assert.Equal(t, ImageComplete, p.State())
}

// TestPipelineResetReturnsToSearching covers spec scenario S1: a fresh
// Pipeline starts in SEARCHING_VIS, and an explicit Reset always returns
// there regardless of prior state.
func TestPipelineResetReturnsToSearching(t *testing.T) {
	p := NewPipeline(InternalSampleRate, log.Default())
	assert.Equal(t, SearchingVIS, p.State())

	samplesPerMs := InternalSampleRate / 1000.0
	feedVisHeader(p.visDecoder, 93, samplesPerMs, false)
	require.Equal(t, DecodingImageData, p.State())

	p.Reset()
	assert.Equal(t, SearchingVIS, p.State())
	assert.Equal(t, ModeDescriptor{}, p.CurrentMode())
}

func TestPipelineBypassesResamplerAtMatchingRates(t *testing.T) {
	p := NewPipeline(InternalSampleRate, log.Default())
	assert.True(t, p.resampler.Bypassed())
}

func TestPipelineResamplesAtMismatchedRates(t *testing.T) {
	p := NewPipeline(44100, log.Default())
	assert.False(t, p.resampler.Bypassed())

	samples := make([]float64, 4096)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * 1900 * float64(i) / 44100)
	}
	// Process must not panic across the resample boundary.
	p.Process(samples)
	assert.Equal(t, SearchingVIS, p.State())
}
