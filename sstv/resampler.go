package sstv

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// resamplerPhases/resamplerTapsPerPhase follow the recommendation in
// spec.md §4.1 (P=64, T=16).
const (
	resamplerPhases       = 64
	resamplerTapsPerPhase = 16
)

// Resampler performs streaming polyphase FIR rate conversion, grounded
// on original_source/src/dsp_resampler.cpp. It is bypassed by the
// Pipeline whenever |input_rate-target_rate| < 1 Hz.
type Resampler struct {
	inputRate, targetRate float64
	ratio                 float64
	filterBank            [][]float64 // [phase][tap]
	history               []float64
	outputIndexFrac       float64
}

// NewResampler builds the polyphase filter bank for the given rate pair.
func NewResampler(inputRate, targetRate float64) *Resampler {
	r := &Resampler{
		inputRate:  inputRate,
		targetRate: targetRate,
		ratio:      inputRate / targetRate,
	}
	r.designFilter()
	r.Reset()
	return r
}

func (r *Resampler) designFilter() {
	totalTaps := resamplerPhases * resamplerTapsPerPhase
	proto := make([]float64, totalTaps)

	fsInternal := r.inputRate * resamplerPhases
	cutoff := math.Min(r.inputRate, r.targetRate) * 0.45
	omegaC := 2.0 * math.Pi * cutoff / fsInternal

	center := float64(totalTaps-1) / 2.0

	for i := 0; i < totalTaps; i++ {
		n := float64(i) - center
		if math.Abs(n) < 1e-9 {
			proto[i] = omegaC / math.Pi
		} else {
			proto[i] = math.Sin(omegaC*n) / (math.Pi * n)
		}
	}
	window.Blackman(proto)

	r.filterBank = make([][]float64, resamplerPhases)
	for p := 0; p < resamplerPhases; p++ {
		row := make([]float64, resamplerTapsPerPhase)
		var phaseSum float64
		for t := 0; t < resamplerTapsPerPhase; t++ {
			row[t] = proto[p+t*resamplerPhases]
			phaseSum += row[t]
		}
		// Normalize so a DC input yields unity gain per phase.
		for t := range row {
			row[t] /= phaseSum
		}
		r.filterBank[p] = row
	}
}

// Reset returns the Resampler to its post-construction state without
// reallocating the filter bank or the history buffer.
func (r *Resampler) Reset() {
	if cap(r.history) < resamplerTapsPerPhase {
		r.history = make([]float64, resamplerTapsPerPhase)
	} else {
		r.history = r.history[:resamplerTapsPerPhase]
		for i := range r.history {
			r.history[i] = 0
		}
	}
	r.outputIndexFrac = 0.0
}

// Bypassed reports whether input and target rates are close enough that
// resampling would be a no-op.
func (r *Resampler) Bypassed() bool {
	return math.Abs(r.inputRate-r.targetRate) < 1.0
}

// ProcessBlock converts one block of input samples, retaining streaming
// state (trailing history and fractional output index) across calls.
func (r *Resampler) ProcessBlock(input []float64) []float64 {
	work := make([]float64, 0, len(r.history)+len(input))
	work = append(work, r.history...)
	work = append(work, input...)

	out := make([]float64, 0, int(float64(len(input))/r.ratio)+1)
	total := len(work)

	for {
		baseIdx := int(r.outputIndexFrac)
		if baseIdx+resamplerTapsPerPhase > total {
			break
		}

		frac := r.outputIndexFrac - math.Floor(r.outputIndexFrac)
		phaseIdx := int(frac * resamplerPhases)
		if phaseIdx >= resamplerPhases {
			phaseIdx = resamplerPhases - 1
		}
		if phaseIdx < 0 {
			phaseIdx = 0
		}

		coeffs := r.filterBank[phaseIdx]
		var sum float64
		for t := 0; t < resamplerTapsPerPhase; t++ {
			sum += work[baseIdx+t] * coeffs[t]
		}
		out = append(out, sum)

		r.outputIndexFrac += r.ratio
	}

	processedInt := int(r.outputIndexFrac)
	r.outputIndexFrac -= float64(processedInt)

	if processedInt < total {
		tail := work[processedInt:]
		r.history = make([]float64, len(tail))
		copy(r.history, tail)
	} else {
		r.history = make([]float64, resamplerTapsPerPhase)
	}

	return out
}
