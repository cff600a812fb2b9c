package health

import (
	"fmt"

	"github.com/reliabilitypro/reliabilitypro/pkg/asset"
	"github.com/reliabilitypro/reliabilitypro/pkg/electrical"
	"github.com/reliabilitypro/reliabilitypro/pkg/fault"
	"github.com/reliabilitypro/reliabilitypro/pkg/hydraulic"
	"github.com/reliabilitypro/reliabilitypro/pkg/spectrum"
	"github.com/reliabilitypro/reliabilitypro/pkg/vibration"
	"github.com/reliabilitypro/reliabilitypro/pkg/visual"
)

// Results is the latest result of each domain. Nil means not run.
type Results struct {
	Vibration  *vibration.Result  `json:"vibration,omitempty"`
	Electrical *electrical.Result `json:"electrical,omitempty"`
	Hydraulic  *hydraulic.Result  `json:"hydraulic,omitempty"`
	Spectrum   *spectrum.Result   `json:"spectrum,omitempty"`
	Visual     *visual.Result     `json:"visual,omitempty"`
}

// Faults returns every domain's faults in domain order.
func (r Results) Faults() []fault.Fault {
	var out []fault.Fault
	if r.Vibration != nil {
		out = append(out, r.Vibration.Faults...)
	}
	if r.Electrical != nil {
		out = append(out, r.Electrical.Faults...)
	}
	if r.Hydraulic != nil {
		out = append(out, r.Hydraulic.Faults...)
	}
	return out
}

// Input builds the synthesizer input from whatever domains are populated.
func (r Results) Input() Input {
	in := Input{Faults: r.Faults(), Hydraulic: r.Hydraulic}
	if r.Vibration != nil {
		in.VibrationZone = r.Vibration.Zone
		in.MaxTemperature = r.Vibration.MaxTemperature
	}
	if r.Electrical != nil {
		in.ElectricalStatus = r.Electrical.Status
	}
	if r.Spectrum != nil {
		in.Contributing = r.Spectrum.Causes
	}
	if r.Visual != nil {
		in.PhysicalIssues = r.Visual.Issues
	}
	return in
}

// Session accumulates domain results for one asset. A failed run leaves the
// previous result of that domain in place.
type Session struct {
	asset   *asset.Asset
	tk      *Toolkit
	results Results
}

// NewSession starts an empty session for a using the thresholds in cfg.
func NewSession(a *asset.Asset, cfg Config) *Session {
	return NewSessionWith(a, NewToolkit(cfg))
}

// NewSessionWith starts an empty session sharing an existing Toolkit.
func NewSessionWith(a *asset.Asset, tk *Toolkit) *Session {
	return &Session{asset: a, tk: tk}
}

// Asset returns the session's asset.
func (s *Session) Asset() *asset.Asset { return s.asset }

// RunVibration analyzes velocity readings against the asset limits and
// augments them with bearing temperatures and noise character.
func (s *Session) RunVibration(r vibration.Readings, temps map[string]float64, noise vibration.Noise) (*vibration.Result, error) {
	res, err := s.tk.Vibration.Analyze(r, s.asset.Warning(), s.asset.Alarm())
	if err != nil {
		return nil, fmt.Errorf("health: %s: %w", s.asset.Tag(), err)
	}
	res, err = s.tk.Vibration.Augment(res, temps, noise)
	if err != nil {
		return nil, fmt.Errorf("health: %s: %w", s.asset.Tag(), err)
	}
	s.results.Vibration = res
	return res, nil
}

// RunElectrical analyzes phase readings against the motor nameplate.
func (s *Session) RunElectrical(r electrical.Readings) (*electrical.Result, error) {
	spec := s.asset.Spec()
	res, err := s.tk.Electrical.Analyze(r, spec.RatedVoltage, spec.RatedCurrent)
	if err != nil {
		return nil, fmt.Errorf("health: %s: %w", s.asset.Tag(), err)
	}
	s.results.Electrical = res
	return res, nil
}

// RunHydraulic compares head and flow with the design point.
func (s *Session) RunHydraulic(r hydraulic.Readings, d hydraulic.Design) (*hydraulic.Result, error) {
	res, err := s.tk.Hydraulic.Analyze(r, d)
	if err != nil {
		return nil, fmt.Errorf("health: %s: %w", s.asset.Tag(), err)
	}
	s.results.Hydraulic = res
	return res, nil
}

// RunSpectrum correlates peaks with the asset's running speed.
func (s *Session) RunSpectrum(peaks []spectrum.Peak) (*spectrum.Result, error) {
	res, err := s.tk.Spectrum.Analyze(s.asset.RPM(), peaks)
	if err != nil {
		return nil, fmt.Errorf("health: %s: %w", s.asset.Tag(), err)
	}
	s.results.Spectrum = res
	return res, nil
}

// RunVisual grades the walk-down checklist.
func (s *Session) RunVisual(c visual.Checklist) (*visual.Result, error) {
	res, err := visual.Inspect(c)
	if err != nil {
		return nil, fmt.Errorf("health: %s: %w", s.asset.Tag(), err)
	}
	s.results.Visual = res
	return res, nil
}

// Results returns a copy of the current domain results.
func (s *Session) Results() Results { return s.results }

// Verdict synthesizes the populated domains. Domains not yet run contribute
// nothing.
func (s *Session) Verdict() Verdict {
	return s.tk.Synth.Assess(s.results.Input())
}
