// Package visual turns the walk-down checklist (lube oil appearance, guards,
// grounding, leaks) into physical issues for the health verdict.
package visual

import (
	"fmt"
	"strings"

	"github.com/reliabilitypro/reliabilitypro/pkg/types"
)

// Oil is the visual appearance of the lubricant sample.
type Oil string

const (
	OilUnchecked Oil = ""
	OilClear     Oil = "clear"
	OilCloudy    Oil = "cloudy"
	OilDark      Oil = "dark"
	OilMilky     Oil = "milky"
)

// ParseOil accepts the short names and the field-sheet labels
// ("Clear & Bright", "Cloudy/Hazy", "Dark/Black", "Milky").
func ParseOil(s string) (Oil, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return OilUnchecked, nil
	case strings.HasPrefix(v, "clear"):
		return OilClear, nil
	case strings.HasPrefix(v, "cloudy"), strings.HasPrefix(v, "hazy"):
		return OilCloudy, nil
	case strings.HasPrefix(v, "dark"), strings.HasPrefix(v, "black"):
		return OilDark, nil
	case strings.HasPrefix(v, "milky"):
		return OilMilky, nil
	}
	return OilUnchecked, fmt.Errorf("visual: %w: unknown oil condition %q", types.ErrMeasurementOutOfRange, s)
}

// Severity grades a physical issue. MAJOR issues make the asset CRITICAL.
type Severity string

const (
	Major Severity = "MAJOR"
	Minor Severity = "MINOR"
)

// Issue is one physical finding.
type Issue struct {
	Severity    Severity `json:"severity"`
	Standard    string   `json:"standard"`
	Description string   `json:"description"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Standard, i.Description)
}

// Checklist is the inspector's walk-down. The zero value is a clean
// inspection with the oil not sampled.
type Checklist struct {
	Oil            Oil  `yaml:"oil"             json:"oil"`
	GuardMissing   bool `yaml:"guard_missing"   json:"guard_missing"`
	GroundingFault bool `yaml:"grounding_fault" json:"grounding_fault"`
	LeakageVisible bool `yaml:"leakage_visible" json:"leakage_visible"`
}

// Result of a visual inspection.
type Result struct {
	OilStatus types.Status `json:"oil_status"`
	OilNote   string       `json:"oil_note"`
	Issues    []Issue      `json:"issues"`
	Status    types.Status `json:"status"`
}

// Inspect grades the checklist.
func Inspect(c Checklist) (*Result, error) {
	oil, err := ParseOil(string(c.Oil))
	if err != nil {
		return nil, err
	}
	res := &Result{}
	add := func(sev Severity, std, desc string) {
		res.Issues = append(res.Issues, Issue{Severity: sev, Standard: std, Description: desc})
		if sev == Major {
			res.Status = res.Status.Escalate(types.StatusCritical)
		} else {
			res.Status = res.Status.Escalate(types.StatusWarning)
		}
	}

	switch oil {
	case OilUnchecked:
		res.OilNote = "not sampled"
	case OilClear:
		res.OilNote = "ISO 4406 estimate -/15/12 (clean)"
	case OilCloudy:
		res.OilStatus = types.StatusWarning
		res.OilNote = "ISO 4406 estimate -/19/16 (possible water contamination)"
		add(Minor, "ISO 4406", "Oil cloudy or hazy, possible water contamination")
	case OilDark:
		res.OilStatus = types.StatusCritical
		res.OilNote = "ISO 12922 oxidised or thermally degraded"
		add(Major, "ISO 12922", "Oil dark or black, oxidised lubricant")
	case OilMilky:
		res.OilStatus = types.StatusCritical
		res.OilNote = "ISO 4406 high water content (emulsion)"
		add(Major, "ISO 4406", "Oil milky, water emulsion")
	}

	if c.GuardMissing {
		add(Major, "OSHA 1910.219", "Rotating parts guard missing")
	}
	if c.GroundingFault {
		add(Major, "OSHA 1910.304", "Grounding path discontinuous")
	}
	if c.LeakageVisible {
		add(Minor, "ISO 14001", "Visible process fluid or lubricant leakage")
	}
	return res, nil
}
