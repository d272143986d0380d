package sstv

import "fmt"

// Pixel is a single reconstructed RGB sample.
type Pixel struct {
	R, G, B uint8
}

// Family tags which per-mode demodulator a ModeDescriptor belongs to.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyPD
)

func (f Family) String() string {
	switch f {
	case FamilyPD:
		return "PD"
	default:
		return "UNKNOWN"
	}
}

// ModeDescriptor is the stable identity of a detected SSTV mode.
type ModeDescriptor struct {
	Name      string
	VISCode   int
	Width     int
	Height    int
	DurationS float64
	Family    Family
}

// PdTimings holds the per-segment durations (milliseconds) for one PD mode.
type PdTimings struct {
	SyncMs    float64
	PorchMs   float64
	SegmentMs float64
}

// builtinModes is the module-scope, read-only PD registry (spec.md §6).
// Never mutated after init; RegisterMode populates a separate overlay.
var builtinModes = map[int]ModeDescriptor{
	93: {Name: "PD50", VISCode: 93, Width: 320, Height: 256, DurationS: 50, Family: FamilyPD},
	95: {Name: "PD120", VISCode: 95, Width: 640, Height: 496, DurationS: 126, Family: FamilyPD},
	96: {Name: "PD180", VISCode: 96, Width: 640, Height: 496, DurationS: 187, Family: FamilyPD},
	97: {Name: "PD240", VISCode: 97, Width: 640, Height: 496, DurationS: 248, Family: FamilyPD},
	98: {Name: "PD160", VISCode: 98, Width: 512, Height: 400, DurationS: 161, Family: FamilyPD},
	99: {Name: "PD90", VISCode: 99, Width: 320, Height: 256, DurationS: 90, Family: FamilyPD},
}

var builtinTimings = map[int]PdTimings{
	93: {SyncMs: 20, PorchMs: 2.08, SegmentMs: 91.52},
	95: {SyncMs: 20, PorchMs: 2.08, SegmentMs: 121.60},
	96: {SyncMs: 20, PorchMs: 2.08, SegmentMs: 183.04},
	97: {SyncMs: 20, PorchMs: 2.08, SegmentMs: 244.48},
	98: {SyncMs: 20, PorchMs: 2.08, SegmentMs: 195.85},
	99: {SyncMs: 20, PorchMs: 2.08, SegmentMs: 170.24},
}

// extraModes/extraTimings is the mutable overlay consulted after the
// built-in registry, populated only through RegisterMode (see
// internal/config for the YAML-driven caller). Never written to by the
// core decoder itself.
var extraModes = map[int]ModeDescriptor{}
var extraTimings = map[int]PdTimings{}

// RegisterMode adds an operator-supplied PD-family mode to the registry
// overlay. It never mutates the built-in table.
func RegisterMode(desc ModeDescriptor, timings PdTimings) error {
	if desc.VISCode < 0 || desc.VISCode > 127 {
		return fmt.Errorf("sstv: vis_code %d out of range [0,127]", desc.VISCode)
	}
	if _, exists := builtinModes[desc.VISCode]; exists {
		return fmt.Errorf("sstv: vis_code %d already built in", desc.VISCode)
	}
	extraModes[desc.VISCode] = desc
	extraTimings[desc.VISCode] = timings
	return nil
}

// lookupMode resolves a 7-bit VIS code to a descriptor. Unknown codes
// yield a synthetic UNKNOWN descriptor carrying the raw code, never an
// error, per spec.md §3.
func lookupMode(code int) ModeDescriptor {
	if d, ok := builtinModes[code]; ok {
		return d
	}
	if d, ok := extraModes[code]; ok {
		return d
	}
	return ModeDescriptor{Name: "UNKNOWN", VISCode: code, Family: FamilyUnknown}
}

// lookupTimings resolves a VIS code to its PdTimings. ok is false if the
// mode has no known timings (e.g. FamilyUnknown).
func lookupTimings(code int) (PdTimings, bool) {
	if t, ok := builtinTimings[code]; ok {
		return t, true
	}
	t, ok := extraTimings[code]
	return t, ok
}
