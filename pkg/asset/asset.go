package asset

import (
	"fmt"
	"strings"

	"github.com/reliabilitypro/reliabilitypro/pkg/types"
	"github.com/reliabilitypro/reliabilitypro/pkg/validate"
)

// Mounting is the support class of the machine.
type Mounting string

const (
	Rigid    Mounting = "Rigid"
	Flexible Mounting = "Flexible"
)

// Group overrides the power-based ISO 10816-3 group selection.
type Group string

const (
	GroupAuto  Group = "auto"
	GroupSmall Group = "small" // force the <= 15 kW column
	GroupLarge Group = "large" // force the > 15 kW column
)

// smallMachineKW is the rated power boundary between the two columns.
const smallMachineKW = 15.0

// Spec is the static nameplate data of one pump train.
type Spec struct {
	Tag          string   `yaml:"tag"           json:"tag"           conform:"trim,upper" validate:"required"`
	Name         string   `yaml:"name"          json:"name"          conform:"trim"`
	PumpType     string   `yaml:"pump_type"     json:"pump_type"     conform:"trim"`
	PowerKW      float64  `yaml:"power_kw"      json:"power_kw"      validate:"gt=0"`
	RPM          float64  `yaml:"rpm"           json:"rpm"           validate:"gt=0"`
	RatedVoltage float64  `yaml:"rated_voltage" json:"rated_voltage" validate:"gt=0"`
	RatedCurrent float64  `yaml:"rated_current" json:"rated_current" validate:"gt=0"`
	Mounting     Mounting `yaml:"mounting"      json:"mounting"      conform:"trim" validate:"mounting"`
	Group        Group    `yaml:"group"         json:"group,omitempty"`
}

// Limits are the ISO 10816-3 velocity limits in mm/s RMS.
type Limits struct {
	Warning float64 `json:"warning"`
	Alarm   float64 `json:"alarm"`
}

// Asset is a validated Spec with its derived Limits.
type Asset struct {
	spec   Spec
	limits Limits
}

// New validates s and derives its vibration limits.
func New(s Spec) (*Asset, error) {
	if s.Mounting == "" {
		s.Mounting = Rigid
	}
	if err := validate.Get().Specification(&s); err != nil {
		return nil, fmt.Errorf("asset %q: %w", s.Tag, err)
	}
	s.Mounting = normaliseMounting(s.Mounting)
	if s.Group == "" {
		s.Group = GroupAuto
	}
	limits, err := DeriveLimits(s.PowerKW, s.Mounting, s.Group)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", s.Tag, err)
	}
	return &Asset{spec: s, limits: limits}, nil
}

// DeriveLimits maps rated power and mounting onto the limit table:
//
//	Mounting   <= 15 kW       > 15 kW
//	Rigid      2.80 / 4.50    4.50 / 7.10
//	Flexible   4.50 / 7.10    7.10 / 11.20
func DeriveLimits(powerKW float64, m Mounting, g Group) (Limits, error) {
	if powerKW <= 0 {
		return Limits{}, fmt.Errorf("%w: rated power must be > 0, got %v", types.ErrInvalidSpecification, powerKW)
	}
	large := powerKW > smallMachineKW
	switch g {
	case GroupSmall:
		large = false
	case GroupLarge:
		large = true
	case GroupAuto, "":
	default:
		return Limits{}, fmt.Errorf("%w: unknown group %q", types.ErrInvalidSpecification, g)
	}

	switch normaliseMounting(m) {
	case Rigid:
		if large {
			return Limits{Warning: 4.50, Alarm: 7.10}, nil
		}
		return Limits{Warning: 2.80, Alarm: 4.50}, nil
	case Flexible:
		if large {
			return Limits{Warning: 7.10, Alarm: 11.20}, nil
		}
		return Limits{Warning: 4.50, Alarm: 7.10}, nil
	default:
		return Limits{}, fmt.Errorf("%w: unknown mounting %q", types.ErrInvalidSpecification, m)
	}
}

func normaliseMounting(m Mounting) Mounting {
	switch strings.ToLower(strings.TrimSpace(string(m))) {
	case "rigid":
		return Rigid
	case "flexible":
		return Flexible
	}
	return m
}

func (a *Asset) Spec() Spec       { return a.spec }
func (a *Asset) Tag() string      { return a.spec.Tag }
func (a *Asset) Limits() Limits   { return a.limits }
func (a *Asset) RPM() float64     { return a.spec.RPM }
func (a *Asset) Warning() float64 { return a.limits.Warning }
func (a *Asset) Alarm() float64   { return a.limits.Alarm }
