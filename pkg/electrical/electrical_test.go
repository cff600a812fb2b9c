package electrical

import (
	"errors"
	"math"
	"testing"

	"github.com/reliabilitypro/reliabilitypro/pkg/fault"
	"github.com/reliabilitypro/reliabilitypro/pkg/types"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func ptr(v float64) *float64 { return &v }

func TestUnbalance(t *testing.T) {
	tests := []struct {
		name string
		in   [3]float64
		want float64
	}{
		{"zero spread", [3]float64{400, 400, 400}, 0},
		{"all zero", [3]float64{0, 0, 0}, 0},
		{"voltages", [3]float64{380, 375, 382}, 4.0 / 379 * 100},
		{"currents", [3]float64{50, 52, 49}, (52 - 151.0/3) / (151.0 / 3) * 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Unbalance(tc.in)
			if !almostEqual(got, tc.want, 1e-9) {
				t.Errorf("Unbalance(%v) = %v, want %v", tc.in, got, tc.want)
			}
			if got < 0 {
				t.Errorf("negative unbalance %v", got)
			}
		})
	}
}

func TestUnbalance_ZeroSpreadAlwaysZero(t *testing.T) {
	for _, v := range []float64{0.1, 0.7, 1, 1.1, 49.9, 230, 379.7, 400, 415.3, 11000} {
		if got := Unbalance([3]float64{v, v, v}); got != 0 {
			t.Errorf("Unbalance(%v x3) = %v", v, got)
		}
	}
}

func TestAnalyze_HealthySupply(t *testing.T) {
	res, err := New(DefaultThresholds()).Analyze(Readings{
		Voltages: [3]float64{380, 375, 382},
		Currents: [3]float64{50, 52, 49},
	}, 380, 60)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !almostEqual(res.VoltageUnbalance, 1.055, 0.01) {
		t.Errorf("voltage unbalance = %v", res.VoltageUnbalance)
	}
	if !almostEqual(res.CurrentUnbalance, 3.31, 0.01) {
		t.Errorf("current unbalance = %v", res.CurrentUnbalance)
	}
	if !almostEqual(res.LoadPct, 86.67, 0.01) {
		t.Errorf("load = %v", res.LoadPct)
	}
	if len(res.Faults) != 0 || res.Status != types.StatusNormal {
		t.Errorf("faults=%v status=%s", fault.Names(res.Faults), res.Status)
	}
	if len(res.Rows) != 5 {
		t.Errorf("rows = %d, want 5", len(res.Rows))
	}
}

func TestAnalyze_SinglePhasing(t *testing.T) {
	res, err := New(DefaultThresholds()).Analyze(Readings{
		Voltages: [3]float64{380, 380, 380},
		Currents: [3]float64{0.2, 52, 50},
	}, 380, 60)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !fault.Has(res.Faults, fault.KindSinglePhasing) {
		t.Fatalf("single phasing not detected: %v", fault.Names(res.Faults))
	}
	if res.Status != types.StatusCritical {
		t.Errorf("status = %s, want CRITICAL", res.Status)
	}
}

func TestAnalyze_Rules(t *testing.T) {
	tests := []struct {
		name       string
		r          Readings
		want       fault.Kind
		wantStatus types.Status
	}{
		{"voltage unbalance warning", Readings{Voltages: [3]float64{380, 380, 368}, Currents: [3]float64{40, 40, 40}}, fault.KindVoltageUnbalance, types.StatusWarning},
		{"voltage unbalance critical", Readings{Voltages: [3]float64{400, 400, 350}, Currents: [3]float64{40, 40, 40}}, fault.KindVoltageUnbalance, types.StatusCritical},
		{"current unbalance", Readings{Voltages: [3]float64{380, 380, 380}, Currents: [3]float64{40, 40, 52}}, fault.KindCurrentUnbalance, types.StatusWarning},
		{"overload", Readings{Voltages: [3]float64{380, 380, 380}, Currents: [3]float64{64, 64, 64}}, fault.KindOverload, types.StatusCritical},
		{"under voltage", Readings{Voltages: [3]float64{355, 355, 355}, Currents: [3]float64{40, 40, 40}}, fault.KindUnderVoltage, types.StatusWarning},
		{"over voltage", Readings{Voltages: [3]float64{405, 405, 405}, Currents: [3]float64{40, 40, 40}}, fault.KindOverVoltage, types.StatusWarning},
		{"ground fault", Readings{Voltages: [3]float64{380, 380, 380}, Currents: [3]float64{40, 40, 40}, GroundCurrent: ptr(0.8)}, fault.KindGroundFault, types.StatusCritical},
		{"body warm", Readings{Voltages: [3]float64{380, 380, 380}, Currents: [3]float64{40, 40, 40}, BodyTemp: ptr(80)}, fault.KindMotorOverheat, types.StatusWarning},
		{"body hot", Readings{Voltages: [3]float64{380, 380, 380}, Currents: [3]float64{40, 40, 40}, BodyTemp: ptr(92)}, fault.KindMotorOverheat, types.StatusCritical},
	}
	an := New(DefaultThresholds())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := an.Analyze(tc.r, 380, 60)
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if !fault.Has(res.Faults, tc.want) {
				t.Errorf("want %s, got %v", tc.want, fault.Names(res.Faults))
			}
			if res.Status != tc.wantStatus {
				t.Errorf("status = %s, want %s", res.Status, tc.wantStatus)
			}
		})
	}
}

func TestAnalyze_CurrentUnbalanceIgnoredNearZeroLoad(t *testing.T) {
	res, err := New(DefaultThresholds()).Analyze(Readings{
		Voltages: [3]float64{380, 380, 380},
		Currents: [3]float64{0.3, 0.5, 0.9},
	}, 380, 60)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Faults) != 0 {
		t.Errorf("faults = %v", fault.Names(res.Faults))
	}
}

func TestAnalyze_Errors(t *testing.T) {
	an := New(DefaultThresholds())
	ok := Readings{Voltages: [3]float64{380, 380, 380}, Currents: [3]float64{40, 40, 40}}
	if _, err := an.Analyze(ok, 0, 60); !errors.Is(err, types.ErrInvalidSpecification) {
		t.Errorf("rated voltage 0: %v", err)
	}
	if _, err := an.Analyze(ok, 380, -1); !errors.Is(err, types.ErrInvalidSpecification) {
		t.Errorf("rated current -1: %v", err)
	}
	bad := ok
	bad.Currents[1] = -2
	if _, err := an.Analyze(bad, 380, 60); !errors.Is(err, types.ErrMeasurementOutOfRange) {
		t.Errorf("negative current: %v", err)
	}
	bad = ok
	bad.GroundCurrent = ptr(-0.1)
	if _, err := an.Analyze(bad, 380, 60); !errors.Is(err, types.ErrMeasurementOutOfRange) {
		t.Errorf("negative ground current: %v", err)
	}
}
