package sstv

import "math"

// PdSegment is a step in the per-line-group segment state machine
// (spec.md §4.6).
type PdSegment int

const (
	PdIdle PdSegment = iota
	PdSync
	PdPorch
	PdY1
	PdRY
	PdBY
	PdY2
)

const defaultPdAfcAlpha = 0.1
const pdSyncToleranceHz = 60.0
const pdSmartSyncMs = 15.0

// FreqToPixel clamps f to [BLACK,WHITE] and maps it linearly to [0,255]
// (spec.md §4.6).
func FreqToPixel(f float64) uint8 {
	if f < BlackFreq {
		f = BlackFreq
	}
	if f > WhiteFreq {
		f = WhiteFreq
	}
	v := (f - BlackFreq) / FreqRange * 255.0
	return uint8(math.Round(v))
}

// YCbCrToRGB applies the BT.601 fixed-point approximation used by the
// PD family (spec.md §4.6).
func YCbCrToRGB(y, cb, cr uint8) Pixel {
	yy := int(y) - 16
	u := int(cb) - 128
	v := int(cr) - 128

	r := (298*yy + 409*v + 128) >> 8
	g := (298*yy - 100*u - 208*v + 128) >> 8
	b := (298*yy + 516*u + 128) >> 8

	return Pixel{R: clampByte(r), G: clampByte(g), B: clampByte(b)}
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// PdDemodulator reconstructs image rows from a PD-family frequency
// stream, grounded on
// original_source/src/sstv_pd120_demodulator.cpp generalized across the
// PD timing table.
type PdDemodulator struct {
	sampleRate   float64
	samplesPerMs float64

	mode    ModeDescriptor
	timings PdTimings

	syncSamples, porchSamples, segmentSamples float64

	afcAlpha float64

	state        PdSegment
	segmentTimer float64
	freqOffset   float64

	segmentBuffer []float64

	y1, y2, cr, cb []uint8

	currentLineIdx int
	completed      bool

	onLineDecoded   func(lineIndex int, pixels []Pixel)
	onImageComplete func(width, height int)
	onAFCUpdate     func(offsetHz float64)
}

// NewPdDemodulator constructs an unconfigured demodulator. Configure
// must be called before Process.
func NewPdDemodulator(sampleRate float64, onLineDecoded func(int, []Pixel), onImageComplete func(int, int)) *PdDemodulator {
	return &PdDemodulator{
		sampleRate:      sampleRate,
		samplesPerMs:    sampleRate / 1000.0,
		afcAlpha:        defaultPdAfcAlpha,
		onLineDecoded:   onLineDecoded,
		onImageComplete: onImageComplete,
	}
}

// SetAFCAlpha overrides the AFC loop's smoothing coefficient
// (internal/config surfaces this as pd.afc_alpha). Safe to call at any
// time, including mid-decode.
func (p *PdDemodulator) SetAFCAlpha(alpha float64) {
	p.afcAlpha = alpha
}

// OnAFCUpdate registers an optional observer invoked every time the AFC
// loop updates its frequency offset estimate (SPEC_FULL.md §4.11). It
// never changes decode timing.
func (p *PdDemodulator) OnAFCUpdate(fn func(offsetHz float64)) {
	p.onAFCUpdate = fn
}

// Configure binds a detected mode and its timings, and resets to IDLE.
func (p *PdDemodulator) Configure(mode ModeDescriptor, timings PdTimings) {
	p.mode = mode
	p.timings = timings
	p.syncSamples = timings.SyncMs * p.samplesPerMs
	p.porchSamples = timings.PorchMs * p.samplesPerMs
	p.segmentSamples = timings.SegmentMs * p.samplesPerMs

	p.y1 = make([]uint8, mode.Width)
	p.y2 = make([]uint8, mode.Width)
	p.cr = make([]uint8, mode.Width)
	p.cb = make([]uint8, mode.Width)

	slack := int(p.segmentSamples) + 64
	p.segmentBuffer = make([]float64, 0, slack)

	p.Reset()
}

// Reset returns the demodulator to IDLE without reallocating the
// per-mode buffers.
func (p *PdDemodulator) Reset() {
	p.state = PdIdle
	p.segmentTimer = 0
	p.freqOffset = 0
	p.segmentBuffer = p.segmentBuffer[:0]
	p.currentLineIdx = 0
	p.completed = false
}

// CurrentLine returns the next line index to be emitted, in [0,height].
func (p *PdDemodulator) CurrentLine() int {
	return p.currentLineIdx
}

// Process consumes one frequency sample. It never panics.
func (p *PdDemodulator) Process(freqHz float64) {
	if p.completed {
		return
	}

	switch p.state {
	case PdIdle:
		if near(freqHz, SyncFreq, pdSyncToleranceHz) {
			p.state = PdSync
			p.segmentTimer = 0
		}

	case PdSync:
		p.segmentTimer++
		tms := p.segmentTimer / p.samplesPerMs

		if tms > 5 && tms <= pdSmartSyncMs {
			measured := freqHz - SyncFreq
			p.freqOffset = p.afcAlpha*measured + (1-p.afcAlpha)*p.freqOffset
			if p.onAFCUpdate != nil {
				p.onAFCUpdate(p.freqOffset)
			}
		}

		corrected := freqHz - p.freqOffset
		if tms > pdSmartSyncMs && math.Abs(corrected-BlackFreq) < math.Abs(corrected-SyncFreq) {
			p.state = PdPorch
			p.segmentTimer = 0
		} else if p.segmentTimer >= p.syncSamples {
			p.state = PdPorch
			p.segmentTimer = 0
		}

	case PdPorch:
		p.segmentTimer++
		if p.segmentTimer >= p.porchSamples {
			p.state = PdY1
			p.segmentTimer = 0
			p.segmentBuffer = p.segmentBuffer[:0]
		}

	case PdY1, PdRY, PdBY, PdY2:
		corrected := freqHz - p.freqOffset
		p.segmentBuffer = append(p.segmentBuffer, corrected)
		p.segmentTimer++

		if p.segmentTimer >= p.segmentSamples {
			values := resampleSegment(p.segmentBuffer, p.mode.Width)
			switch p.state {
			case PdY1:
				copy(p.y1, values)
			case PdRY:
				copy(p.cr, values)
			case PdBY:
				copy(p.cb, values)
			case PdY2:
				copy(p.y2, values)
			}
			p.segmentBuffer = p.segmentBuffer[:0]

			switch p.state {
			case PdY1:
				p.state = PdRY
				p.segmentTimer -= p.segmentSamples
			case PdRY:
				p.state = PdBY
				p.segmentTimer -= p.segmentSamples
			case PdBY:
				p.state = PdY2
				p.segmentTimer -= p.segmentSamples
			case PdY2:
				p.finalizeLineGroup()
				p.state = PdIdle
				p.segmentTimer = 0
			}
		}
	}
}

// resampleSegment linearly interpolates the accumulated frequency
// samples down to exactly width pixel values, interpolating frequency
// before quantizing to a pixel level.
func resampleSegment(buf []float64, width int) []uint8 {
	out := make([]uint8, width)
	n := len(buf)
	if n == 0 {
		return out
	}
	for i := 0; i < width; i++ {
		pos := (float64(i) / float64(width)) * float64(n)
		idxA := int(pos)
		if idxA >= n {
			idxA = n - 1
		}
		idxB := idxA + 1
		if idxB >= n {
			idxB = n - 1
		}
		weight := pos - float64(idxA)
		freq := buf[idxA]*(1-weight) + buf[idxB]*weight
		out[i] = FreqToPixel(freq)
	}
	return out
}

func (p *PdDemodulator) finalizeLineGroup() {
	p.emitLine(p.y1)
	p.emitLine(p.y2)

	if p.currentLineIdx >= p.mode.Height {
		p.completed = true
		if p.onImageComplete != nil {
			p.onImageComplete(p.mode.Width, p.mode.Height)
		}
	}
}

func (p *PdDemodulator) emitLine(y []uint8) {
	if p.currentLineIdx >= p.mode.Height {
		return
	}
	pixels := make([]Pixel, p.mode.Width)
	for x := 0; x < p.mode.Width; x++ {
		pixels[x] = YCbCrToRGB(y[x], p.cb[x], p.cr[x])
	}
	if p.onLineDecoded != nil {
		p.onLineDecoded(p.currentLineIdx, pixels)
	}
	p.currentLineIdx++
}
