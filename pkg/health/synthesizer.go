package health

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reliabilitypro/reliabilitypro/pkg/fault"
	"github.com/reliabilitypro/reliabilitypro/pkg/hydraulic"
	"github.com/reliabilitypro/reliabilitypro/pkg/types"
	"github.com/reliabilitypro/reliabilitypro/pkg/vibration"
	"github.com/reliabilitypro/reliabilitypro/pkg/visual"
)

// Condition is the overall asset condition.
type Condition string

const (
	ConditionGood     Condition = "GOOD"
	ConditionWarning  Condition = "WARNING"
	ConditionCritical Condition = "CRITICAL"
)

// Status maps the condition onto the domain severity scale.
func (c Condition) Status() types.Status {
	switch c {
	case ConditionCritical:
		return types.StatusCritical
	case ConditionWarning:
		return types.StatusWarning
	}
	return types.StatusNormal
}

// Verdict is the synthesized assessment of one asset.
type Verdict struct {
	Condition       Condition `json:"condition"`
	Color           string    `json:"color"`
	Description     string    `json:"description"`
	Action          string    `json:"action"`
	Reasons         []string  `json:"reasons"`
	Recommendations []string  `json:"recommendations"`
	Standards       []string  `json:"standards"`
}

// Input collects what the domains reported. Zero fields mean the domain was
// not run.
type Input struct {
	VibrationZone    vibration.Zone
	ElectricalStatus types.Status
	MaxTemperature   float64
	PhysicalIssues   []visual.Issue
	Faults           []fault.Fault
	// Contributing causes from spectrum correlation. They only refine
	// recommendations.
	Contributing []string
	Hydraulic    *hydraulic.Result
}

// Thresholds are the bearing temperature tiers in °C.
type Thresholds struct {
	TempWarning  float64 `yaml:"temp_warning"`
	TempCritical float64 `yaml:"temp_critical"`
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{TempWarning: 75, TempCritical: 90}
}

type remedy struct {
	keywords []string
	advice   string
	standard string
}

// remedies is scanned in order against the upper-cased fault text.
var remedies = []remedy{
	{[]string{"MISALIGNMENT"}, "Perform laser alignment of the coupling.", "ISO 10816-3"},
	{[]string{"UNBALANCE"}, "Clean the impeller or fan and balance the rotor.", "ISO 1940-1"},
	{[]string{"LOOSE", "SOFT FOOT"}, "Check foundation bolt torque (soft foot check).", ""},
	{[]string{"BEARING"}, "Replace the bearing and check lubrication quality.", ""},
	{[]string{"CAVITATION"}, "Check the suction strainer and confirm NPSHa > NPSHr.", "API 610"},
	{[]string{"VOLTAGE", "IMBALANCE"}, "Check terminal box connections and supply transformer voltage.", "IEC 60034"},
	{[]string{"OVERLOAD"}, "Reduce pump load by throttling or check for a blockage.", ""},
	{[]string{"SINGLE PHASING"}, "Check fuses, contactor and terminals for an open phase.", "IEC 60034"},
	{[]string{"GROUND FAULT"}, "Isolate the motor and test insulation resistance.", "IEC 60364"},
	{[]string{"OVERHEAT"}, "Check lubricant level, cooling and bearing preload.", ""},
	{[]string{"WEAR"}, "Measure wear-ring clearance and impeller condition at overhaul.", "API 610"},
	{[]string{"RESISTANCE"}, "Check discharge valve opening and line restrictions.", "API 610"},
	{[]string{"RECIRCULATION", "PREFERRED OPERATING"}, "Return the duty point to the preferred operating region around BEP.", "API 610"},
	{[]string{"GUARD"}, "Reinstall the rotating parts guard before restart.", "OSHA 1910.219"},
	{[]string{"GROUNDING"}, "Restore the equipment grounding path.", "OSHA 1910.304"},
	{[]string{"LEAK"}, "Repair the leak and contain spilled fluid.", "ISO 14001"},
	{[]string{"OIL"}, "Replace the lubricant and look for the contamination source.", "ISO 4406"},
}

// Synthesizer produces verdicts. It holds no mutable state.
type Synthesizer struct {
	th Thresholds
}

// NewSynthesizer returns a Synthesizer. Zero fields take their defaults.
func NewSynthesizer(th Thresholds) *Synthesizer {
	def := DefaultThresholds()
	if th.TempWarning <= 0 {
		th.TempWarning = def.TempWarning
	}
	if th.TempCritical <= th.TempWarning {
		th.TempCritical = def.TempCritical
		if th.TempCritical <= th.TempWarning {
			th.TempCritical = th.TempWarning + 15
		}
	}
	return &Synthesizer{th: th}
}

// Assess applies the decision hierarchy to in.
func (s *Synthesizer) Assess(in Input) Verdict {
	var v Verdict

	hasMajor := false
	for _, i := range in.PhysicalIssues {
		if i.Severity == visual.Major {
			hasMajor = true
		}
	}

	switch {
	case in.VibrationZone == vibration.ZoneD ||
		in.ElectricalStatus == types.StatusCritical ||
		in.MaxTemperature > s.th.TempCritical ||
		hasMajor:
		v.Condition = ConditionCritical
		v.Color = "#dc3545"
		v.Description = "Functional failure detected that endangers the asset or personnel."
		v.Action = "STOP OPERATION AND REPAIR IMMEDIATELY."
		if in.VibrationZone == vibration.ZoneD {
			v.Reasons = append(v.Reasons, "Very high vibration (ISO Zone D).")
		}
		if in.ElectricalStatus == types.StatusCritical {
			v.Reasons = append(v.Reasons, "Electrical parameters at trip or overload level.")
		}
		if in.MaxTemperature > s.th.TempCritical {
			v.Reasons = append(v.Reasons, fmt.Sprintf("Extreme overheat (%.1f°C).", in.MaxTemperature))
		}
		for _, i := range in.PhysicalIssues {
			if i.Severity == visual.Major {
				v.Reasons = append(v.Reasons, "Physical issue: "+i.String())
			}
		}

	case in.VibrationZone == vibration.ZoneC ||
		in.ElectricalStatus == types.StatusWarning ||
		in.MaxTemperature > s.th.TempWarning ||
		len(in.PhysicalIssues) > 0 ||
		len(in.Faults) > 0:
		v.Condition = ConditionWarning
		v.Color = "#ffc107"
		v.Description = "Asset operates with deviations. Risk of long-term damage."
		v.Action = "Schedule planned maintenance in the near term."
		if in.VibrationZone == vibration.ZoneC {
			v.Reasons = append(v.Reasons, "Elevated vibration (ISO Zone C).")
		}
		if in.ElectricalStatus == types.StatusWarning {
			v.Reasons = append(v.Reasons, "Electrical imbalance or supply deviation.")
		}
		if in.MaxTemperature > s.th.TempWarning {
			v.Reasons = append(v.Reasons, fmt.Sprintf("Elevated temperature (%.1f°C).", in.MaxTemperature))
		}
		for _, i := range in.PhysicalIssues {
			v.Reasons = append(v.Reasons, "Physical finding: "+i.String())
		}
		for _, f := range in.Faults {
			v.Reasons = append(v.Reasons, "Detected: "+f.Label())
		}

	default:
		v.Condition = ConditionGood
		v.Color = "#28a745"
		v.Description = "Asset operates within normal limits."
		v.Action = "Continue operation and routine monitoring."
		v.Reasons = []string{"All parameters within tolerance."}
	}

	v.Recommendations, v.Standards = s.recommend(in, v.Condition)
	if len(v.Recommendations) == 0 {
		if v.Condition == ConditionGood {
			v.Recommendations = []string{"Maintain current operating parameters."}
		} else {
			v.Recommendations = []string{"Perform a detailed visual inspection and collect spectrum data."}
		}
	}
	return v
}

func (s *Synthesizer) recommend(in Input, c Condition) ([]string, []string) {
	var parts []string
	for _, f := range in.Faults {
		parts = append(parts, f.Name)
	}
	// Spectrum causes alone never warrant corrective work on a healthy asset.
	if c != ConditionGood {
		parts = append(parts, in.Contributing...)
	}
	for _, i := range in.PhysicalIssues {
		parts = append(parts, i.Description)
	}
	text := strings.ToUpper(strings.Join(parts, " | "))

	var recs []string
	stds := make(map[string]bool)
	for _, r := range remedies {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				recs = append(recs, r.advice)
				if r.standard != "" {
					stds[r.standard] = true
				}
				break
			}
		}
	}
	for _, f := range in.Faults {
		if f.Standard != "" {
			stds[f.Standard] = true
		}
	}
	if h := in.Hydraulic; h != nil && h.Performance == hydraulic.Good {
		recs = append(recs, h.Action)
	}

	standards := make([]string, 0, len(stds))
	for k := range stds {
		standards = append(standards, k)
	}
	sort.Strings(standards)
	return recs, standards
}
