// Package hydraulic compares field head and flow against the pump's design
// point (API 610 / ISO 13709).
package hydraulic

import (
	"fmt"

	"github.com/reliabilitypro/reliabilitypro/pkg/fault"
	"github.com/reliabilitypro/reliabilitypro/pkg/types"
	"github.com/reliabilitypro/reliabilitypro/pkg/validate"
)

// BarToMeters converts 1 bar into metres of water column.
const BarToMeters = 10.197

// Design is the duty point from the pump data sheet.
type Design struct {
	SpecificGravity float64 `yaml:"specific_gravity" json:"specific_gravity" validate:"gt=0"`
	HeadM           float64 `yaml:"design_head_m"    json:"design_head_m"    validate:"gt=0"`
	// Flow is optional; 0 disables the flow-ratio checks.
	Flow float64 `yaml:"design_flow" json:"design_flow,omitempty" validate:"omitempty,gt=0"`
}

// Readings are gauge pressures in bar and the optional measured flow in the
// same unit as Design.Flow.
type Readings struct {
	SuctionBar   float64  `yaml:"suction_bar"   json:"suction_bar"   validate:"gte=-1.01325"`
	DischargeBar float64  `yaml:"discharge_bar" json:"discharge_bar" validate:"gte=-1.01325"`
	Flow         *float64 `yaml:"flow"          json:"flow,omitempty" validate:"omitempty,gte=0"`
}

// Performance is the head-deviation tier.
type Performance string

const (
	HighResistance Performance = "HIGH SYSTEM RESISTANCE"
	Excellent      Performance = "EXCELLENT"
	Good           Performance = "GOOD / ACCEPTABLE DEGRADATION"
	Poor           Performance = "POOR / MAINTENANCE REQUIRED"
)

// Thresholds are deviation and flow-ratio limits in percent.
type Thresholds struct {
	HighResistancePct float64 `yaml:"high_resistance_pct"`
	ExcellentFloorPct float64 `yaml:"excellent_floor_pct"`
	GoodFloorPct      float64 `yaml:"good_floor_pct"`
	RecirculationPct  float64 `yaml:"recirculation_pct"`
	PreferredFloorPct float64 `yaml:"preferred_floor_pct"`
	RunOutPct         float64 `yaml:"run_out_pct"`
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighResistancePct: 5,
		ExcellentFloorPct: -3,
		GoodFloorPct:      -10,
		RecirculationPct:  60,
		PreferredFloorPct: 70,
		RunOutPct:         120,
	}
}

// Result is the outcome of one hydraulic analysis.
type Result struct {
	HeadM        float64       `json:"head_m"`
	DeviationPct float64       `json:"deviation_pct"`
	FlowPct      float64       `json:"flow_pct,omitempty"`
	Performance  Performance   `json:"performance"`
	Description  string        `json:"description"`
	Action       string        `json:"action"`
	Color        string        `json:"color"`
	Faults       []fault.Fault `json:"faults"`
	Status       types.Status  `json:"status"`
}

// Analyzer applies Thresholds to readings. It holds no mutable state.
type Analyzer struct {
	th Thresholds
}

// New returns an Analyzer. Zero fields take their defaults.
func New(th Thresholds) *Analyzer {
	def := DefaultThresholds()
	if th.HighResistancePct <= 0 {
		th.HighResistancePct = def.HighResistancePct
	}
	if th.ExcellentFloorPct >= 0 {
		th.ExcellentFloorPct = def.ExcellentFloorPct
	}
	if th.GoodFloorPct >= th.ExcellentFloorPct {
		th.GoodFloorPct = def.GoodFloorPct
	}
	if th.RecirculationPct <= 0 {
		th.RecirculationPct = def.RecirculationPct
	}
	if th.PreferredFloorPct <= 0 {
		th.PreferredFloorPct = def.PreferredFloorPct
	}
	if th.RunOutPct <= 0 {
		th.RunOutPct = def.RunOutPct
	}
	return &Analyzer{th: th}
}

// Thresholds returns the effective thresholds.
func (an *Analyzer) Thresholds() Thresholds { return an.th }

// Head returns total dynamic head in metres of liquid column.
func Head(suctionBar, dischargeBar, sg float64) (float64, error) {
	if sg <= 0 {
		return 0, fmt.Errorf("hydraulic: %w: specific gravity must be > 0, got %v", types.ErrInvalidSpecification, sg)
	}
	return (dischargeBar - suctionBar) * BarToMeters / sg, nil
}

// Analyze classifies head deviation and, when both flows are known, the
// operating point relative to BEP.
func (an *Analyzer) Analyze(r Readings, d Design) (*Result, error) {
	if err := validate.Get().Specification(&d); err != nil {
		return nil, fmt.Errorf("hydraulic: %w", err)
	}
	if err := validate.Get().Measurement(&r); err != nil {
		return nil, fmt.Errorf("hydraulic: %w", err)
	}
	head, err := Head(r.SuctionBar, r.DischargeBar, d.SpecificGravity)
	if err != nil {
		return nil, err
	}

	th := an.th
	res := &Result{HeadM: head, DeviationPct: (head - d.HeadM) / d.HeadM * 100}
	raise := func(f fault.Fault) {
		res.Faults = append(res.Faults, f)
		res.Status = res.Status.Escalate(f.Severity)
	}

	dev := res.DeviationPct
	switch {
	case dev > th.HighResistancePct:
		res.Performance = HighResistance
		res.Description = fmt.Sprintf("Head %.1f%% above design. Flow is restricted and the pump runs toward shut-off, risking shaft deflection.", dev)
		res.Action = "Check discharge valve opening and look for blocked lines or filters."
		res.Color = "orange"
		raise(fault.New(fault.KindHighSystemResistance, dev,
			fmt.Sprintf("head %.1f m is %+.1f%% vs design %.1f m (> %+.0f%%)", head, dev, d.HeadM, th.HighResistancePct)))
	case dev >= th.ExcellentFloorPct:
		res.Performance = Excellent
		res.Description = "Head within factory acceptance tolerance."
		res.Action = "Continue operation."
		res.Color = "green"
	case dev >= th.GoodFloorPct:
		res.Performance = Good
		res.Description = fmt.Sprintf("Head %.1f%% below design, consistent with normal wear.", -dev)
		res.Action = "Continue operation and trend head at the next inspection."
		res.Color = "green"
	default:
		res.Performance = Poor
		res.Description = fmt.Sprintf("Head %.1f%% below design. Impeller or wear-ring wear indicated.", -dev)
		res.Action = "Check wear-ring clearance and impeller condition at overhaul."
		res.Color = "red"
		raise(fault.New(fault.KindPerformanceLoss, dev,
			fmt.Sprintf("head %.1f m is %.1f%% vs design %.1f m (< %.0f%%)", head, dev, d.HeadM, th.GoodFloorPct)))
	}

	if r.Flow != nil && d.Flow > 0 {
		ratio := *r.Flow / d.Flow * 100
		res.FlowPct = ratio
		switch {
		case ratio < th.RecirculationPct:
			raise(fault.New(fault.KindRecirculation, ratio,
				fmt.Sprintf("flow %.0f%% of BEP < %.0f%%", ratio, th.RecirculationPct)))
		case ratio < th.PreferredFloorPct:
			raise(fault.New(fault.KindOffBEP, ratio,
				fmt.Sprintf("flow %.0f%% of BEP < %.0f%%", ratio, th.PreferredFloorPct)))
		case ratio > th.RunOutPct:
			raise(fault.New(fault.KindRunOut, ratio,
				fmt.Sprintf("flow %.0f%% of BEP > %.0f%%", ratio, th.RunOutPct)))
		}
	}

	if r.SuctionBar < 0 {
		raise(fault.New(fault.KindSuctionCavitation, r.SuctionBar,
			fmt.Sprintf("suction pressure %.2f bar below atmospheric", r.SuctionBar)))
	}
	return res, nil
}
