package sstv

import "log"

// PipelineState is the top-level decode state (spec.md §4.7).
type PipelineState int

const (
	SearchingVIS PipelineState = iota
	DecodingImageData
	ImageComplete
)

// Pipeline owns every DSP and protocol stage and orchestrates
// Resampler -> BandpassFilter -> DCBlocker -> AGC -> FrequencyEstimator,
// dispatching each frequency sample to the VisDecoder or the
// PdDemodulator depending on state (spec.md §4.7).
//
// Callbacks are stored by value as owning closures; VisDecoder and
// PdDemodulator are constructed with forwarding closures that let the
// Pipeline intercept and update its own state before the caller's
// callback runs, never holding a back-reference to the Pipeline
// (spec.md §9).
type Pipeline struct {
	internalRate float64

	resampler *Resampler
	bandpass  *BandpassFilter
	dcBlocker *DCBlocker
	agc       *AGC
	freqEst   *FrequencyEstimator

	visDecoder *VisDecoder
	pdDemod    *PdDemodulator

	state PipelineState
	mode  ModeDescriptor

	logger *log.Logger

	userOnModeDetected  func(ModeDescriptor)
	userOnLineDecoded   func(lineIndex int, pixels []Pixel)
	userOnImageComplete func(width, height int)
	userOnVISReset      func(reason string)
	userOnAFCUpdate     func(mode string, offsetHz float64)
}

// NewPipeline constructs a decoder reading audio at inputRate Hz. If
// logger is nil, log.Default() is used.
func NewPipeline(inputRate float64, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}

	p := &Pipeline{
		internalRate: InternalSampleRate,
		resampler:    NewResampler(inputRate, InternalSampleRate),
		bandpass:     NewBandpassFilter(InternalSampleRate),
		dcBlocker:    NewDCBlocker(),
		agc:          NewAGC(),
		freqEst:      NewFrequencyEstimator(InternalSampleRate),
		logger:       logger,
		state:        SearchingVIS,
	}

	p.visDecoder = NewVisDecoder(InternalSampleRate, p.handleModeDetected)
	p.pdDemod = NewPdDemodulator(InternalSampleRate, p.handleLineDecoded, p.handleImageComplete)
	p.visDecoder.SetOnReset(p.handleVISReset)
	p.pdDemod.OnAFCUpdate(p.handleAFCUpdate)

	return p
}

// OnModeDetected registers the mode-detected callback.
func (p *Pipeline) OnModeDetected(fn func(ModeDescriptor)) {
	p.userOnModeDetected = fn
}

// OnLineDecoded registers the line-decoded callback.
func (p *Pipeline) OnLineDecoded(fn func(lineIndex int, pixels []Pixel)) {
	p.userOnLineDecoded = fn
}

// OnImageComplete registers the image-complete callback.
func (p *Pipeline) OnImageComplete(fn func(width, height int)) {
	p.userOnImageComplete = fn
}

// OnVISReset registers a callback invoked whenever the VIS header state
// machine abandons an in-progress decode (SPEC_FULL.md §4.10's
// vis_resets_total metric).
func (p *Pipeline) OnVISReset(fn func(reason string)) {
	p.userOnVISReset = fn
}

// OnAFCUpdate registers a callback invoked whenever the PD demodulator's
// AFC loop updates its frequency offset estimate (SPEC_FULL.md §4.11's
// afc_offset_hz metric).
func (p *Pipeline) OnAFCUpdate(fn func(mode string, offsetHz float64)) {
	p.userOnAFCUpdate = fn
}

// ApplyTuning overrides the VIS tone tolerance/grace window and the PD
// AFC smoothing coefficient, surfaced by internal/config's YAML schema.
// Safe to call before or during a decode.
func (p *Pipeline) ApplyTuning(visToleranceHz, visMaxErrorMs, pdAFCAlpha float64) {
	p.visDecoder.SetTuning(visToleranceHz, visMaxErrorMs)
	p.pdDemod.SetAFCAlpha(pdAFCAlpha)
}

// State returns the current top-level decode state.
func (p *Pipeline) State() PipelineState {
	return p.state
}

// CurrentMode returns the ModeDescriptor currently locked, or the zero
// value while SEARCHING_VIS.
func (p *Pipeline) CurrentMode() ModeDescriptor {
	return p.mode
}

// Process feeds one block of audio samples (nominally in [-1,1]) through
// the full DSP chain and dispatches the resulting frequency stream to
// the protocol state machines. It runs to completion synchronously and
// never blocks internally.
func (p *Pipeline) Process(samples []float64) {
	input := samples
	if !p.resampler.Bypassed() {
		input = p.resampler.ProcessBlock(samples)
	}

	for _, x := range input {
		bp := p.bandpass.Process(x)
		dc := p.dcBlocker.Process(bp)
		ag := p.agc.Process(dc)
		freq := p.freqEst.Process(ag)

		switch p.state {
		case SearchingVIS:
			p.visDecoder.Process(freq)
		case DecodingImageData:
			p.pdDemod.Process(freq)
		case ImageComplete:
			// Awaiting caller Reset(); ignore further samples.
		}
	}
}

// Reset clears every stage and returns to SEARCHING_VIS without
// reallocating.
func (p *Pipeline) Reset() {
	p.resampler.Reset()
	p.bandpass.Clear()
	p.dcBlocker.Reset()
	p.agc.Reset()
	p.freqEst.Reset()
	p.visDecoder.Reset()
	p.pdDemod.Reset()
	p.mode = ModeDescriptor{}
	p.state = SearchingVIS
	p.logger.Printf("sstv: pipeline reset, searching for VIS")
}

// resetToSearching reverts only the protocol layer (VIS/PD state
// machines) to SEARCHING_VIS, leaving the DSP chain's continuous
// streaming state untouched. Used when a detected mode turns out to be
// unsupported or unknown.
func (p *Pipeline) resetToSearching() {
	p.visDecoder.Reset()
	p.pdDemod.Reset()
	p.mode = ModeDescriptor{}
	p.state = SearchingVIS
}

func (p *Pipeline) handleModeDetected(desc ModeDescriptor) {
	if p.userOnModeDetected != nil {
		p.userOnModeDetected(desc)
	}

	timings, ok := lookupTimings(desc.VISCode)
	if desc.Family == FamilyPD && ok {
		p.mode = desc
		p.pdDemod.Configure(desc, timings)
		p.state = DecodingImageData
		p.logger.Printf("sstv: mode detected %s vis=%d %dx%d", desc.Name, desc.VISCode, desc.Width, desc.Height)
		return
	}

	p.logger.Printf("sstv: unsupported or unknown vis code %d, resetting", desc.VISCode)
	p.resetToSearching()
	p.handleVISReset(ResetReasonUnsupportedFamily)
}

func (p *Pipeline) handleVISReset(reason string) {
	p.logger.Printf("sstv: vis reset: %s", reason)
	if p.userOnVISReset != nil {
		p.userOnVISReset(reason)
	}
}

func (p *Pipeline) handleAFCUpdate(offsetHz float64) {
	if p.userOnAFCUpdate != nil {
		p.userOnAFCUpdate(p.mode.Name, offsetHz)
	}
}

func (p *Pipeline) handleLineDecoded(lineIndex int, pixels []Pixel) {
	if p.userOnLineDecoded != nil {
		p.userOnLineDecoded(lineIndex, pixels)
	}
}

func (p *Pipeline) handleImageComplete(width, height int) {
	p.state = ImageComplete
	p.logger.Printf("sstv: image complete %dx%d", width, height)
	if p.userOnImageComplete != nil {
		p.userOnImageComplete(width, height)
	}
}
