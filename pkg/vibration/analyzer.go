package vibration

import (
	"fmt"
	"math"

	"github.com/reliabilitypro/reliabilitypro/pkg/fault"
	"github.com/reliabilitypro/reliabilitypro/pkg/types"
	"github.com/reliabilitypro/reliabilitypro/pkg/validate"
)

// Point is one bearing reading in mm/s RMS.
type Point struct {
	H float64 `yaml:"h" json:"h" validate:"gte=0"`
	V float64 `yaml:"v" json:"v" validate:"gte=0"`
	A float64 `yaml:"a" json:"a" validate:"gte=0"`
}

// Readings are the twelve velocity readings of a pump train.
type Readings struct {
	DriverDE  Point `yaml:"driver_de"  json:"driver_de"`
	DriverNDE Point `yaml:"driver_nde" json:"driver_nde"`
	DrivenDE  Point `yaml:"driven_de"  json:"driven_de"`
	DrivenNDE Point `yaml:"driven_nde" json:"driven_nde"`
}

// Thresholds tune the zone boundary and pattern rules.
type Thresholds struct {
	ZoneARatio float64 `yaml:"zone_a_ratio"`
	// Axial must exceed this fraction of max(H, V) for misalignment.
	MisalignmentAxialRatio float64 `yaml:"misalignment_axial_ratio"`
	// Vertical must exceed this fraction of H for looseness.
	LoosenessVerticalRatio float64 `yaml:"looseness_vertical_ratio"`
	TempWarning            float64 `yaml:"temp_warning"`
	TempCritical           float64 `yaml:"temp_critical"`
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ZoneARatio:             DefaultZoneARatio,
		MisalignmentAxialRatio: 0.5,
		LoosenessVerticalRatio: 0.8,
		TempWarning:            85,
		TempCritical:           95,
	}
}

// Row is one line of the vibration report.
type Row struct {
	Unit    string  `json:"unit"`
	Axis    string  `json:"axis"`
	DE      float64 `json:"de"`
	NDE     float64 `json:"nde"`
	Average float64 `json:"average"`
	Limit   float64 `json:"limit"`
	Zone    Zone    `json:"zone"`
	Remark  string  `json:"remark"`
}

// Result is the outcome of one vibration analysis.
type Result struct {
	Rows           []Row         `json:"rows"`
	Faults         []fault.Fault `json:"faults"`
	MaxAverage     float64       `json:"max_average"`
	Zone           Zone          `json:"zone"`
	Status         types.Status  `json:"status"`
	MaxTemperature float64       `json:"max_temperature"`
	HottestPoint   string        `json:"hottest_point,omitempty"`
	Warning        float64       `json:"warning"`
	Trip           float64       `json:"trip"`
}

// Analyzer applies Thresholds to readings. It holds no mutable state.
type Analyzer struct {
	th Thresholds
}

// New returns an Analyzer. Zero-valued thresholds fall back to defaults.
func New(th Thresholds) *Analyzer {
	def := DefaultThresholds()
	if th.ZoneARatio <= 0 || th.ZoneARatio >= 1 {
		th.ZoneARatio = def.ZoneARatio
	}
	if th.MisalignmentAxialRatio <= 0 {
		th.MisalignmentAxialRatio = def.MisalignmentAxialRatio
	}
	if th.LoosenessVerticalRatio <= 0 {
		th.LoosenessVerticalRatio = def.LoosenessVerticalRatio
	}
	if th.TempWarning <= 0 {
		th.TempWarning = def.TempWarning
	}
	if th.TempCritical <= th.TempWarning {
		th.TempCritical = math.Max(def.TempCritical, th.TempWarning+10)
	}
	return &Analyzer{th: th}
}

// Thresholds returns the effective thresholds.
func (an *Analyzer) Thresholds() Thresholds { return an.th }

// Classify returns the zone of avg using the analyzer's Zone A ratio.
func (an *Analyzer) Classify(avg, warn, trip float64) Zone {
	return classify(avg, warn, trip, an.th.ZoneARatio)
}

// side holds the per-axis averages of one unit.
type side struct {
	name    string
	h, v, a float64
}

func (s side) max() float64 { return math.Max(s.h, math.Max(s.v, s.a)) }

// Analyze averages the readings, classifies every row and runs the pattern
// rules. warn and trip are the asset's warning and alarm limits.
func (an *Analyzer) Analyze(r Readings, warn, trip float64) (*Result, error) {
	if warn <= 0 || trip <= warn {
		return nil, fmt.Errorf("vibration: %w: limits must satisfy 0 < warn < trip, got warn=%v trip=%v",
			types.ErrInvalidSpecification, warn, trip)
	}
	if err := validate.Get().Measurement(&r); err != nil {
		return nil, fmt.Errorf("vibration: %w", err)
	}

	driver := side{"Driver", avg(r.DriverDE.H, r.DriverNDE.H), avg(r.DriverDE.V, r.DriverNDE.V), avg(r.DriverDE.A, r.DriverNDE.A)}
	driven := side{"Driven", avg(r.DrivenDE.H, r.DrivenNDE.H), avg(r.DrivenDE.V, r.DrivenNDE.V), avg(r.DrivenDE.A, r.DrivenNDE.A)}

	res := &Result{Warning: warn, Trip: trip}
	addRow := func(unit, axis string, de, nde, average float64) {
		z := an.Classify(average, warn, trip)
		res.Rows = append(res.Rows, Row{
			Unit: unit, Axis: axis, DE: de, NDE: nde,
			Average: average, Limit: warn, Zone: z, Remark: z.Remark(),
		})
		if average > res.MaxAverage {
			res.MaxAverage = average
		}
		switch z {
		case ZoneD:
			res.Status = res.Status.Escalate(types.StatusCritical)
		case ZoneC:
			res.Status = res.Status.Escalate(types.StatusWarning)
		}
	}
	addRow(driver.name, "H", r.DriverDE.H, r.DriverNDE.H, driver.h)
	addRow(driver.name, "V", r.DriverDE.V, r.DriverNDE.V, driver.v)
	addRow(driver.name, "A", r.DriverDE.A, r.DriverNDE.A, driver.a)
	addRow(driven.name, "H", r.DrivenDE.H, r.DrivenNDE.H, driven.h)
	addRow(driven.name, "V", r.DrivenDE.V, r.DrivenNDE.V, driven.v)
	addRow(driven.name, "A", r.DrivenDE.A, r.DrivenNDE.A, driven.a)
	res.Zone = an.Classify(res.MaxAverage, warn, trip)

	res.Faults = an.diagnose(driver, driven, warn, trip, res.MaxAverage)
	return res, nil
}

func (an *Analyzer) diagnose(driver, driven side, warn, trip, maxAvg float64) []fault.Fault {
	var faults []fault.Fault

	for _, s := range []side{driver, driven} {
		radial := math.Max(s.h, s.v)
		if s.a > warn && s.a > an.th.MisalignmentAxialRatio*radial {
			faults = append(faults, fault.New(fault.KindMisalignment, s.a,
				fmt.Sprintf("%s axial %.2f > warn %.2f and > %.2f x max(H %.2f, V %.2f)",
					s.name, s.a, warn, an.th.MisalignmentAxialRatio, s.h, s.v)).At(s.name))
		}
		if s.h > warn && s.h >= s.v && s.h >= s.a {
			faults = append(faults, fault.New(fault.KindUnbalance, s.h,
				fmt.Sprintf("%s horizontal %.2f > warn %.2f and dominant (V %.2f, A %.2f)",
					s.name, s.h, warn, s.v, s.a)).At(s.name))
		}
		if s.v > warn && s.v > an.th.LoosenessVerticalRatio*s.h {
			faults = append(faults, fault.New(fault.KindLooseness, s.v,
				fmt.Sprintf("%s vertical %.2f > warn %.2f and > %.2f x H %.2f",
					s.name, s.v, warn, an.th.LoosenessVerticalRatio, s.h)).At(s.name))
		}
	}

	if driver.a > trip && driven.a > trip {
		faults = append(faults, fault.New(fault.KindBentShaft, math.Max(driver.a, driven.a),
			fmt.Sprintf("axial driver %.2f and driven %.2f both > trip %.2f", driver.a, driven.a, trip)).At("Driver & Driven"))
	}

	if driven.h > warn && driven.v > warn && driven.a > warn && driver.max() < warn {
		faults = append(faults, fault.New(fault.KindCavitation, driven.max(),
			fmt.Sprintf("driven H %.2f, V %.2f, A %.2f > warn %.2f while driver max %.2f < warn",
				driven.h, driven.v, driven.a, warn, driver.max())).At(driven.name))
	}

	if len(faults) == 0 && maxAvg > warn {
		faults = append(faults, fault.New(fault.KindHighVibration, maxAvg,
			fmt.Sprintf("max average %.2f > warn %.2f, no pattern matched", maxAvg, warn)))
	}
	return faults
}

func avg(de, nde float64) float64 { return (de + nde) / 2 }
