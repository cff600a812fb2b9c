// Package electrical checks three-phase supply quality and motor loading
// against IEC 60034 and NEMA MG-1 practice.
package electrical

import (
	"fmt"
	"math"

	"github.com/reliabilitypro/reliabilitypro/pkg/fault"
	"github.com/reliabilitypro/reliabilitypro/pkg/types"
	"github.com/reliabilitypro/reliabilitypro/pkg/validate"
)

// Readings are phase voltages (V), phase currents (A) and the optional
// ground-fault current (A) and motor body temperature (°C).
type Readings struct {
	Voltages      [3]float64 `yaml:"voltages"       json:"voltages"       validate:"dive,gte=0"`
	Currents      [3]float64 `yaml:"currents"       json:"currents"       validate:"dive,gte=0"`
	GroundCurrent *float64   `yaml:"ground_current" json:"ground_current" validate:"omitempty,gte=0"`
	BodyTemp      *float64   `yaml:"body_temp"      json:"body_temp"      validate:"omitempty,gte=0"`
}

// Thresholds for the rule cascade. Percentages are in percent.
type Thresholds struct {
	VoltageUnbalanceWarning  float64 `yaml:"voltage_unbalance_warning"`
	VoltageUnbalanceCritical float64 `yaml:"voltage_unbalance_critical"`
	CurrentUnbalanceWarning  float64 `yaml:"current_unbalance_warning"`
	// Current unbalance is ignored below this average phase current.
	CurrentUnbalanceMinAmps float64 `yaml:"current_unbalance_min_amps"`
	OverloadFactor          float64 `yaml:"overload_factor"`
	VoltageDeviationPct     float64 `yaml:"voltage_deviation_pct"`
	SinglePhaseOpenAmps     float64 `yaml:"single_phase_open_amps"`
	SinglePhaseLoadedAmps   float64 `yaml:"single_phase_loaded_amps"`
	GroundFaultAmps         float64 `yaml:"ground_fault_amps"`
	BodyTempWarning         float64 `yaml:"body_temp_warning"`
	BodyTempCritical        float64 `yaml:"body_temp_critical"`
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VoltageUnbalanceWarning:  2.0,
		VoltageUnbalanceCritical: 5.0,
		CurrentUnbalanceWarning:  10.0,
		CurrentUnbalanceMinAmps:  1.0,
		OverloadFactor:           1.05,
		VoltageDeviationPct:      5.0,
		SinglePhaseOpenAmps:      1.0,
		SinglePhaseLoadedAmps:    5.0,
		GroundFaultAmps:          0.5,
		BodyTempWarning:          75,
		BodyTempCritical:         90,
	}
}

// Row is one line of the electrical report.
type Row struct {
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Limit     string  `json:"limit"`
	Remark    string  `json:"remark"`
}

// Result is the outcome of one electrical analysis.
type Result struct {
	Rows             []Row         `json:"rows"`
	Faults           []fault.Fault `json:"faults"`
	Status           types.Status  `json:"status"`
	LoadPct          float64       `json:"load_pct"`
	VoltageUnbalance float64       `json:"voltage_unbalance_pct"`
	CurrentUnbalance float64       `json:"current_unbalance_pct"`
	AvgVoltage       float64       `json:"avg_voltage"`
	AvgCurrent       float64       `json:"avg_current"`
}

// Analyzer applies Thresholds to readings. It holds no mutable state.
type Analyzer struct {
	th Thresholds
}

// New returns an Analyzer with th. Zero fields take their defaults.
func New(th Thresholds) *Analyzer {
	def := DefaultThresholds()
	fill := func(v *float64, d float64) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&th.VoltageUnbalanceWarning, def.VoltageUnbalanceWarning)
	fill(&th.VoltageUnbalanceCritical, def.VoltageUnbalanceCritical)
	fill(&th.CurrentUnbalanceWarning, def.CurrentUnbalanceWarning)
	fill(&th.CurrentUnbalanceMinAmps, def.CurrentUnbalanceMinAmps)
	fill(&th.OverloadFactor, def.OverloadFactor)
	fill(&th.VoltageDeviationPct, def.VoltageDeviationPct)
	fill(&th.SinglePhaseOpenAmps, def.SinglePhaseOpenAmps)
	fill(&th.SinglePhaseLoadedAmps, def.SinglePhaseLoadedAmps)
	fill(&th.GroundFaultAmps, def.GroundFaultAmps)
	fill(&th.BodyTempWarning, def.BodyTempWarning)
	fill(&th.BodyTempCritical, def.BodyTempCritical)
	return &Analyzer{th: th}
}

// Thresholds returns the effective thresholds.
func (an *Analyzer) Thresholds() Thresholds { return an.th }

// Unbalance returns the NEMA unbalance of a phase triplet:
// max|x - avg| / avg x 100. It is 0 for zero spread or zero average.
func Unbalance(phases [3]float64) float64 {
	lo, hi := minMax(phases)
	avg := mean(phases)
	// (x+x+x)/3 need not equal x in floating point.
	if lo == hi || avg == 0 {
		return 0
	}
	dev := math.Max(hi-avg, avg-lo)
	return math.Max(dev, 0) / avg * 100
}

// Analyze evaluates every rule independently. ratedVoltage and ratedCurrent
// come from the motor nameplate.
func (an *Analyzer) Analyze(r Readings, ratedVoltage, ratedCurrent float64) (*Result, error) {
	if ratedVoltage <= 0 || ratedCurrent <= 0 {
		return nil, fmt.Errorf("electrical: %w: rated voltage and current must be > 0, got %v V %v A",
			types.ErrInvalidSpecification, ratedVoltage, ratedCurrent)
	}
	if err := validate.Get().Measurement(&r); err != nil {
		return nil, fmt.Errorf("electrical: %w", err)
	}

	th := an.th
	res := &Result{
		AvgVoltage:       mean(r.Voltages),
		AvgCurrent:       mean(r.Currents),
		VoltageUnbalance: Unbalance(r.Voltages),
		CurrentUnbalance: Unbalance(r.Currents),
	}
	minI, maxI := minMax(r.Currents)
	res.LoadPct = maxI / ratedCurrent * 100

	raise := func(f fault.Fault) {
		res.Faults = append(res.Faults, f)
		res.Status = res.Status.Escalate(f.Severity)
	}

	vRemark := "OK"
	switch vu := res.VoltageUnbalance; {
	case vu > th.VoltageUnbalanceCritical:
		vRemark = "CRITICAL"
		raise(fault.New(fault.KindVoltageUnbalance, vu,
			fmt.Sprintf("voltage unbalance %.2f%% > %.1f%%", vu, th.VoltageUnbalanceCritical)).WithSeverity(types.StatusCritical))
	case vu > th.VoltageUnbalanceWarning:
		vRemark = "WARNING"
		raise(fault.New(fault.KindVoltageUnbalance, vu,
			fmt.Sprintf("voltage unbalance %.2f%% > %.1f%%", vu, th.VoltageUnbalanceWarning)))
	}

	iRemark := "OK"
	if cu := res.CurrentUnbalance; res.AvgCurrent > th.CurrentUnbalanceMinAmps && cu > th.CurrentUnbalanceWarning {
		iRemark = "WARNING"
		raise(fault.New(fault.KindCurrentUnbalance, cu,
			fmt.Sprintf("current unbalance %.2f%% > %.1f%% at avg %.1f A", cu, th.CurrentUnbalanceWarning, res.AvgCurrent)))
	}

	loadRemark := "OK"
	if limit := th.OverloadFactor * ratedCurrent; maxI > limit {
		loadRemark = "OVERLOAD"
		raise(fault.New(fault.KindOverload, maxI,
			fmt.Sprintf("max phase current %.1f A > %.2f x FLA %.1f A", maxI, th.OverloadFactor, ratedCurrent)))
	}

	supplyRemark := "OK"
	dev := (res.AvgVoltage - ratedVoltage) / ratedVoltage * 100
	switch {
	case dev < -th.VoltageDeviationPct:
		supplyRemark = "UNDER"
		raise(fault.New(fault.KindUnderVoltage, res.AvgVoltage,
			fmt.Sprintf("average %.1f V is %.1f%% below rated %.0f V", res.AvgVoltage, -dev, ratedVoltage)))
	case dev > th.VoltageDeviationPct:
		supplyRemark = "OVER"
		raise(fault.New(fault.KindOverVoltage, res.AvgVoltage,
			fmt.Sprintf("average %.1f V is %.1f%% above rated %.0f V", res.AvgVoltage, dev, ratedVoltage)))
	}

	if minI < th.SinglePhaseOpenAmps && maxI > th.SinglePhaseLoadedAmps {
		iRemark = "SINGLE PHASING"
		raise(fault.New(fault.KindSinglePhasing, minI,
			fmt.Sprintf("phase current %.2f A < %.1f A while max %.1f A > %.1f A", minI, th.SinglePhaseOpenAmps, maxI, th.SinglePhaseLoadedAmps)))
	}

	res.Rows = []Row{
		{"Average Voltage", res.AvgVoltage, "V", fmt.Sprintf("%.0f ±%.0f%%", ratedVoltage, th.VoltageDeviationPct), supplyRemark},
		{"Voltage Unbalance", res.VoltageUnbalance, "%", fmt.Sprintf("< %.1f", th.VoltageUnbalanceWarning), vRemark},
		{"Average Current", res.AvgCurrent, "A", fmt.Sprintf("FLA %.1f", ratedCurrent), loadRemark},
		{"Current Unbalance", res.CurrentUnbalance, "%", fmt.Sprintf("< %.1f", th.CurrentUnbalanceWarning), iRemark},
		{"Load", res.LoadPct, "%", fmt.Sprintf("< %.0f", th.OverloadFactor*100), loadRemark},
	}

	if r.GroundCurrent != nil {
		g := *r.GroundCurrent
		remark := "OK"
		if g > th.GroundFaultAmps {
			remark = "CRITICAL"
			raise(fault.New(fault.KindGroundFault, g,
				fmt.Sprintf("ground current %.2f A > %.2f A", g, th.GroundFaultAmps)))
		}
		res.Rows = append(res.Rows, Row{"Ground Current", g, "A", fmt.Sprintf("< %.1f", th.GroundFaultAmps), remark})
	}

	if r.BodyTemp != nil {
		t := *r.BodyTemp
		remark := "OK"
		switch {
		case t > th.BodyTempCritical:
			remark = "CRITICAL"
			raise(fault.New(fault.KindMotorOverheat, t,
				fmt.Sprintf("body temperature %.1f°C > %.0f°C", t, th.BodyTempCritical)).WithSeverity(types.StatusCritical))
		case t > th.BodyTempWarning:
			remark = "WARNING"
			raise(fault.New(fault.KindMotorOverheat, t,
				fmt.Sprintf("body temperature %.1f°C > %.0f°C", t, th.BodyTempWarning)))
		}
		res.Rows = append(res.Rows, Row{"Body Temperature", t, "°C", fmt.Sprintf("< %.0f", th.BodyTempWarning), remark})
	}

	return res, nil
}

func mean(p [3]float64) float64 { return (p[0] + p[1] + p[2]) / 3 }

func minMax(p [3]float64) (lo, hi float64) {
	lo, hi = p[0], p[0]
	for _, x := range p[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
