// Package config loads YAML-driven tuning for the SSTV decoder and
// registers operator-supplied PD-family modes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwsl/pd-sstv-decoder/sstv"
)

// VISConfig tunes the VIS header state machine.
type VISConfig struct {
	ToneToleranceHz float64 `yaml:"tone_tolerance_hz"`
	MaxErrorMs      float64 `yaml:"max_error_ms"`
}

// PDConfig tunes the PD segment state machine's AFC loop.
type PDConfig struct {
	AFCAlpha float64 `yaml:"afc_alpha"`
}

// ExtraMode is an operator-supplied PD-family mode, merged into the
// registry overlay at load time.
type ExtraMode struct {
	Name      string  `yaml:"name"`
	VISCode   int     `yaml:"vis_code"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	DurationS float64 `yaml:"duration_s"`
	SyncMs    float64 `yaml:"sync_ms"`
	PorchMs   float64 `yaml:"porch_ms"`
	SegmentMs float64 `yaml:"segment_ms"`
}

// Config is the top-level YAML document.
type Config struct {
	InternalSampleRate float64     `yaml:"internal_sample_rate"`
	VIS                VISConfig   `yaml:"vis"`
	PD                 PDConfig    `yaml:"pd"`
	ExtraModes         []ExtraMode `yaml:"extra_modes"`
}

// Default returns the configuration matching the module's built-in
// constants, used when no YAML file is supplied.
func Default() Config {
	return Config{
		InternalSampleRate: sstv.InternalSampleRate,
		VIS: VISConfig{
			ToneToleranceHz: 60,
			MaxErrorMs:      15,
		},
		PD: PDConfig{
			AFCAlpha: 0.1,
		},
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("sstv/config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("sstv/config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// RegisterExtraModes merges the config's extra_modes into the sstv
// package's mutable registry overlay. It never touches the built-in,
// read-only table.
func RegisterExtraModes(cfg Config) error {
	for _, m := range cfg.ExtraModes {
		desc := sstv.ModeDescriptor{
			Name:      m.Name,
			VISCode:   m.VISCode,
			Width:     m.Width,
			Height:    m.Height,
			DurationS: m.DurationS,
			Family:    sstv.FamilyPD,
		}
		timings := sstv.PdTimings{
			SyncMs:    m.SyncMs,
			PorchMs:   m.PorchMs,
			SegmentMs: m.SegmentMs,
		}
		if err := sstv.RegisterMode(desc, timings); err != nil {
			return fmt.Errorf("sstv/config: register mode %q: %w", m.Name, err)
		}
	}
	return nil
}
