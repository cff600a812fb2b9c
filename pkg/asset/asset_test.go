package asset

import (
	"errors"
	"testing"

	"github.com/reliabilitypro/reliabilitypro/pkg/types"
)

func TestDeriveLimits_Table(t *testing.T) {
	tests := []struct {
		name  string
		power float64
		m     Mounting
		g     Group
		want  Limits
	}{
		{"45kW rigid", 45, Rigid, GroupAuto, Limits{4.50, 7.10}},
		{"15kW rigid is small", 15, Rigid, GroupAuto, Limits{2.80, 4.50}},
		{"7.5kW flexible", 7.5, Flexible, GroupAuto, Limits{4.50, 7.10}},
		{"90kW flexible", 90, Flexible, GroupAuto, Limits{7.10, 11.20}},
		{"override small", 45, Rigid, GroupSmall, Limits{2.80, 4.50}},
		{"override large", 5, Flexible, GroupLarge, Limits{7.10, 11.20}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DeriveLimits(tc.power, tc.m, tc.g)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDeriveLimits_WarnBelowAlarm(t *testing.T) {
	for _, p := range []float64{0.5, 10, 15, 15.01, 100, 5000} {
		for _, m := range []Mounting{Rigid, Flexible} {
			for _, g := range []Group{GroupAuto, GroupSmall, GroupLarge} {
				l, err := DeriveLimits(p, m, g)
				if err != nil {
					t.Fatalf("DeriveLimits(%v, %s, %s): %v", p, m, g, err)
				}
				if !(l.Warning < l.Alarm) {
					t.Errorf("DeriveLimits(%v, %s, %s) = %+v, warn not below alarm", p, m, g, l)
				}
			}
		}
	}
}

func TestDeriveLimits_InvalidPower(t *testing.T) {
	for _, p := range []float64{0, -1} {
		if _, err := DeriveLimits(p, Rigid, GroupAuto); !errors.Is(err, types.ErrInvalidSpecification) {
			t.Errorf("power %v: expected ErrInvalidSpecification, got %v", p, err)
		}
	}
}

func TestNew_Scenario45kWRigid(t *testing.T) {
	a, err := New(Spec{Tag: " p-101 ", PowerKW: 45, RPM: 1483, RatedVoltage: 380, RatedCurrent: 85, Mounting: "rigid"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Warning() != 4.50 || a.Alarm() != 7.10 {
		t.Errorf("limits = %+v, want 4.50/7.10", a.Limits())
	}
	if a.Tag() != "P-101" {
		t.Errorf("tag = %q, want normalised P-101", a.Tag())
	}
	if a.Spec().Mounting != Rigid {
		t.Errorf("mounting = %q", a.Spec().Mounting)
	}
}

func TestNew_InvalidSpec(t *testing.T) {
	base := Spec{Tag: "X", PowerKW: 10, RPM: 1500, RatedVoltage: 400, RatedCurrent: 20}
	mutations := map[string]func(*Spec){
		"zero power":   func(s *Spec) { s.PowerKW = 0 },
		"zero voltage": func(s *Spec) { s.RatedVoltage = 0 },
		"neg current":  func(s *Spec) { s.RatedCurrent = -3 },
		"zero rpm":     func(s *Spec) { s.RPM = 0 },
		"bad mounting": func(s *Spec) { s.Mounting = "floating" },
	}
	for name, mut := range mutations {
		t.Run(name, func(t *testing.T) {
			s := base
			mut(&s)
			if _, err := New(s); !errors.Is(err, types.ErrInvalidSpecification) {
				t.Errorf("expected ErrInvalidSpecification, got %v", err)
			}
		})
	}
}

func TestCatalog_Defaults(t *testing.T) {
	c, err := NewCatalog(DefaultSpecs())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("Len = %d, want 4", c.Len())
	}
	p104, err := c.Get("P-104")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// 15 kW sits in the small column.
	if p104.Warning() != 2.80 {
		t.Errorf("P-104 warn = %v, want 2.80", p104.Warning())
	}
	list := c.List()
	if list[0].Tag() != "P-101" || list[3].Tag() != "P-104" {
		t.Errorf("List not sorted: %s..%s", list[0].Tag(), list[3].Tag())
	}
	if _, err := c.Get("P-999"); !errors.Is(err, types.ErrUnknownAsset) {
		t.Errorf("expected ErrUnknownAsset, got %v", err)
	}
}
