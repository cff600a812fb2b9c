// Package spectrum correlates manually entered spectrum peaks with running
// speed harmonics. It does not compute spectra; peaks come from a portable
// analyzer or the inspector's notes.
//
// The output is a list of contributing causes used to refine
// recommendations. It never sets the asset condition by itself.
package spectrum

import (
	"fmt"
	"math"

	"github.com/reliabilitypro/reliabilitypro/pkg/fault"
	"github.com/reliabilitypro/reliabilitypro/pkg/types"
	"github.com/reliabilitypro/reliabilitypro/pkg/validate"
)

// Peak is one spectral line.
type Peak struct {
	FrequencyHz float64 `yaml:"frequency_hz" json:"frequency_hz" validate:"gte=0"`
	Amplitude   float64 `yaml:"amplitude"    json:"amplitude"    validate:"gte=0"`
}

// Thresholds tune peak acceptance and order matching.
type Thresholds struct {
	// OrderTolerance is the half-width of each harmonic band as a fraction
	// of the order: 0.15 accepts 1.7X to 2.3X as 2X. The bearing test uses it
	// as an absolute distance from the nearest integer order.
	OrderTolerance float64 `yaml:"order_tolerance"`
	// Peaks below MinAmplitude or below RelativeFloor x the largest peak are
	// treated as noise.
	MinAmplitude    float64 `yaml:"min_amplitude"`
	RelativeFloor   float64 `yaml:"relative_floor"`
	BearingMinOrder float64 `yaml:"bearing_min_order"`
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OrderTolerance:  0.15,
		MinAmplitude:    0.1,
		RelativeFloor:   0.1,
		BearingMinOrder: 3.5,
	}
}

// Match is the classification of one accepted peak. Kind is KindUnknown when
// the order matches no rule.
type Match struct {
	Peak  Peak       `json:"peak"`
	Order float64    `json:"order"`
	Kind  fault.Kind `json:"-"`
	Label string     `json:"label,omitempty"`
}

// Result lists the matched peaks and the distinct causes in the order they
// were first detected.
type Result struct {
	RunningSpeedHz float64      `json:"running_speed_hz"`
	NoiseFloor     float64      `json:"noise_floor"`
	Matches        []Match      `json:"matches"`
	Causes         []string     `json:"causes"`
	Kinds          []fault.Kind `json:"-"`
}

var labels = map[fault.Kind]string{
	fault.KindUnbalance:     "Unbalance",
	fault.KindMisalignment:  "Misalignment",
	fault.KindLooseness:     "Looseness",
	fault.KindBearingDefect: "Bearing Defect",
}

// Analyzer applies Thresholds. It holds no mutable state.
type Analyzer struct {
	th Thresholds
}

// New returns an Analyzer. Zero fields take their defaults.
func New(th Thresholds) *Analyzer {
	def := DefaultThresholds()
	// Above 0.2 the 2X and 3X bands overlap.
	if th.OrderTolerance <= 0 || th.OrderTolerance >= 0.2 {
		th.OrderTolerance = def.OrderTolerance
	}
	if th.MinAmplitude < 0 {
		th.MinAmplitude = def.MinAmplitude
	}
	if th.RelativeFloor <= 0 || th.RelativeFloor >= 1 {
		th.RelativeFloor = def.RelativeFloor
	}
	if th.BearingMinOrder <= 0 {
		th.BearingMinOrder = def.BearingMinOrder
	}
	return &Analyzer{th: th}
}

// Thresholds returns the effective thresholds.
func (an *Analyzer) Thresholds() Thresholds { return an.th }

// Analyze converts each peak to an order of running speed (rpm/60) and
// classifies it: 1X unbalance, 2X misalignment, 3X looseness, non-integer
// orders above BearingMinOrder bearing defect.
func (an *Analyzer) Analyze(rpm float64, peaks []Peak) (*Result, error) {
	if rpm <= 0 {
		return nil, fmt.Errorf("spectrum: %w: rpm must be > 0, got %v", types.ErrInvalidSpecification, rpm)
	}
	var largest float64
	for i := range peaks {
		if err := validate.Get().Measurement(&peaks[i]); err != nil {
			return nil, fmt.Errorf("spectrum: peak %d: %w", i, err)
		}
		largest = math.Max(largest, peaks[i].Amplitude)
	}

	res := &Result{
		RunningSpeedHz: rpm / 60,
		NoiseFloor:     math.Max(an.th.MinAmplitude, an.th.RelativeFloor*largest),
	}
	seen := make(map[fault.Kind]bool)
	for _, p := range peaks {
		if p.Amplitude < res.NoiseFloor || p.Amplitude == 0 {
			continue
		}
		order := p.FrequencyHz / res.RunningSpeedHz
		k := an.classify(order)
		m := Match{Peak: p, Order: order, Kind: k, Label: labels[k]}
		res.Matches = append(res.Matches, m)
		if k != fault.KindUnknown && !seen[k] {
			seen[k] = true
			res.Kinds = append(res.Kinds, k)
			res.Causes = append(res.Causes, m.Label)
		}
	}
	return res, nil
}

func (an *Analyzer) classify(order float64) fault.Kind {
	tol := an.th.OrderTolerance
	switch {
	case math.Abs(order-1) <= tol:
		return fault.KindUnbalance
	case math.Abs(order-2) <= 2*tol:
		return fault.KindMisalignment
	case math.Abs(order-3) <= 3*tol:
		return fault.KindLooseness
	case order > an.th.BearingMinOrder && math.Abs(order-math.Round(order)) > tol:
		return fault.KindBearingDefect
	}
	return fault.KindUnknown
}
