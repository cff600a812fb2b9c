package hydraulic

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/reliabilitypro/reliabilitypro/pkg/fault"
	"github.com/reliabilitypro/reliabilitypro/pkg/types"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func ptr(v float64) *float64 { return &v }

func TestHead(t *testing.T) {
	h, err := Head(0.5, 4.5, 0.85)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	// 4.0 bar x 10.197 / 0.85
	if !almostEqual(h, 47.986, 0.001) {
		t.Errorf("head = %v", h)
	}
	if _, err := Head(0, 1, 0); !errors.Is(err, types.ErrInvalidSpecification) {
		t.Errorf("sg 0: %v", err)
	}
}

func TestAnalyze_Tiers(t *testing.T) {
	// Design head 100 m, SG 1.0: 1 bar = 10.197 m.
	tests := []struct {
		name      string
		discharge float64
		want      Performance
		wantFault fault.Kind
	}{
		{"high resistance", 10.8, HighResistance, fault.KindHighSystemResistance}, // 110.1 m
		{"excellent", 9.9, Excellent, fault.KindUnknown},                          // 100.9 m
		{"excellent floor", 9.6, Excellent, fault.KindUnknown},                    // 97.9 m
		{"good", 9.3, Good, fault.KindUnknown},                                    // 94.8 m
		{"poor", 8.5, Poor, fault.KindPerformanceLoss},                            // 86.7 m
	}
	an := New(DefaultThresholds())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := an.Analyze(Readings{SuctionBar: 0, DischargeBar: tc.discharge}, Design{SpecificGravity: 1, HeadM: 100})
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if res.Performance != tc.want {
				t.Errorf("performance = %s (dev %.2f), want %s", res.Performance, res.DeviationPct, tc.want)
			}
			if tc.wantFault == fault.KindUnknown {
				if len(res.Faults) != 0 || res.Status != types.StatusNormal {
					t.Errorf("unexpected faults %v", fault.Names(res.Faults))
				}
				return
			}
			if !fault.Has(res.Faults, tc.wantFault) || res.Status != types.StatusWarning {
				t.Errorf("faults = %v status = %s", fault.Names(res.Faults), res.Status)
			}
		})
	}
}

func TestAnalyze_FieldScenario(t *testing.T) {
	res, err := New(DefaultThresholds()).Analyze(
		Readings{SuctionBar: 0.5, DischargeBar: 4.5},
		Design{SpecificGravity: 0.85, HeadM: 50},
	)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !almostEqual(res.DeviationPct, -4.03, 0.01) {
		t.Errorf("deviation = %v", res.DeviationPct)
	}
	if res.Performance != Good {
		t.Errorf("performance = %s, want %s", res.Performance, Good)
	}
}

func TestAnalyze_Flow(t *testing.T) {
	tests := []struct {
		flow float64
		want fault.Kind
	}{
		{50, fault.KindRecirculation},
		{65, fault.KindOffBEP},
		{100, fault.KindUnknown},
		{130, fault.KindRunOut},
	}
	an := New(DefaultThresholds())
	for _, tc := range tests {
		res, err := an.Analyze(
			Readings{SuctionBar: 0, DischargeBar: 9.9, Flow: ptr(tc.flow)},
			Design{SpecificGravity: 1, HeadM: 100, Flow: 100},
		)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if !almostEqual(res.FlowPct, tc.flow, 1e-9) {
			t.Errorf("flow pct = %v", res.FlowPct)
		}
		if tc.want == fault.KindUnknown {
			if len(res.Faults) != 0 {
				t.Errorf("flow %v: unexpected %v", tc.flow, fault.Names(res.Faults))
			}
			continue
		}
		if !fault.Has(res.Faults, tc.want) {
			t.Errorf("flow %v: want %s, got %v", tc.flow, tc.want, fault.Names(res.Faults))
		}
	}
}

func TestAnalyze_NegativeSuction(t *testing.T) {
	res, err := New(DefaultThresholds()).Analyze(
		Readings{SuctionBar: -0.3, DischargeBar: 9.6},
		Design{SpecificGravity: 1, HeadM: 100},
	)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Faults) != 1 || !strings.Contains(res.Faults[0].Name, "CAVITATION") {
		t.Errorf("faults = %v", fault.Names(res.Faults))
	}
}

func TestAnalyze_InvalidDesign(t *testing.T) {
	an := New(DefaultThresholds())
	r := Readings{SuctionBar: 0.5, DischargeBar: 4.5}
	for name, d := range map[string]Design{
		"sg zero":       {SpecificGravity: 0, HeadM: 50},
		"head zero":     {SpecificGravity: 1, HeadM: 0},
		"flow negative": {SpecificGravity: 1, HeadM: 50, Flow: -5},
	} {
		if _, err := an.Analyze(r, d); !errors.Is(err, types.ErrInvalidSpecification) {
			t.Errorf("%s: got %v", name, err)
		}
	}
	if _, err := an.Analyze(Readings{SuctionBar: 0, DischargeBar: 4, Flow: ptr(-1)}, Design{SpecificGravity: 1, HeadM: 50}); !errors.Is(err, types.ErrMeasurementOutOfRange) {
		t.Errorf("negative flow: got %v", err)
	}
}
