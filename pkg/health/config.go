package health

import (
	"github.com/reliabilitypro/reliabilitypro/pkg/electrical"
	"github.com/reliabilitypro/reliabilitypro/pkg/hydraulic"
	"github.com/reliabilitypro/reliabilitypro/pkg/spectrum"
	"github.com/reliabilitypro/reliabilitypro/pkg/vibration"
)

// Config is the central threshold table, loaded from the "thresholds"
// section of the agent and server configuration files.
type Config struct {
	Vibration  vibration.Thresholds  `yaml:"vibration"`
	Electrical electrical.Thresholds `yaml:"electrical"`
	Hydraulic  hydraulic.Thresholds  `yaml:"hydraulic"`
	Spectrum   spectrum.Thresholds   `yaml:"spectrum"`
	Health     Thresholds            `yaml:"health"`
}

// DefaultConfig returns every analyzer's default thresholds.
func DefaultConfig() Config {
	return Config{
		Vibration:  vibration.DefaultThresholds(),
		Electrical: electrical.DefaultThresholds(),
		Hydraulic:  hydraulic.DefaultThresholds(),
		Spectrum:   spectrum.DefaultThresholds(),
		Health:     DefaultThresholds(),
	}
}

// Toolkit is the set of analyzers built from one Config. It is immutable and
// may be shared between sessions and goroutines.
type Toolkit struct {
	Vibration  *vibration.Analyzer
	Electrical *electrical.Analyzer
	Hydraulic  *hydraulic.Analyzer
	Spectrum   *spectrum.Analyzer
	Synth      *Synthesizer
}

// NewToolkit builds the analyzers for cfg.
func NewToolkit(cfg Config) *Toolkit {
	return &Toolkit{
		Vibration:  vibration.New(cfg.Vibration),
		Electrical: electrical.New(cfg.Electrical),
		Hydraulic:  hydraulic.New(cfg.Hydraulic),
		Spectrum:   spectrum.New(cfg.Spectrum),
		Synth:      NewSynthesizer(cfg.Health),
	}
}
