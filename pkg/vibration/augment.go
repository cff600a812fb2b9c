package vibration

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reliabilitypro/reliabilitypro/pkg/fault"
	"github.com/reliabilitypro/reliabilitypro/pkg/types"
)

// Noise is the inspector's assessment of audible noise character.
type Noise string

const (
	NoiseNormal     Noise = "normal"
	NoiseCavitation Noise = "cavitation"
	NoiseBearing    Noise = "bearing"
	NoiseLooseness  Noise = "looseness"
	NoiseRubbing    Noise = "rubbing"
)

var noiseFaults = map[Noise]fault.Kind{
	NoiseCavitation: fault.KindCavitation,
	NoiseBearing:    fault.KindBearingDefect,
	NoiseLooseness:  fault.KindLooseness,
	NoiseRubbing:    fault.KindRubbing,
}

// ParseNoise accepts the canonical names and their "-like" forms
// ("cavitation-like", "Bearing-like"). Empty means normal.
func ParseNoise(s string) (Noise, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.TrimSuffix(n, "-like")
	n = strings.TrimSuffix(n, " like")
	switch Noise(n) {
	case "", NoiseNormal:
		return NoiseNormal, nil
	case NoiseCavitation, NoiseBearing, NoiseLooseness, NoiseRubbing:
		return Noise(n), nil
	}
	return NoiseNormal, fmt.Errorf("vibration: %w: unknown noise character %q", types.ErrMeasurementOutOfRange, s)
}

// Augment returns a copy of res extended with temperature rows, an overheat
// fault when the hottest point exceeds TempWarning, and the fault implied by
// noise unless one of that kind was already inferred. Temperatures are in
// degrees Celsius keyed by measurement point name.
func (an *Analyzer) Augment(res *Result, temps map[string]float64, noise Noise) (*Result, error) {
	if res == nil {
		return nil, fmt.Errorf("vibration: augment: nil result")
	}
	out := *res
	out.Rows = append([]Row(nil), res.Rows...)
	out.Faults = append([]fault.Fault(nil), res.Faults...)

	points := make([]string, 0, len(temps))
	for p, t := range temps {
		if t < 0 {
			return nil, fmt.Errorf("vibration: %w: temperature %s must be >= 0, got %v", types.ErrMeasurementOutOfRange, p, t)
		}
		points = append(points, p)
	}
	sort.Strings(points)

	for _, p := range points {
		t := temps[p]
		out.Rows = append(out.Rows, Row{
			Unit: p, Axis: "Temp", Average: t, Limit: an.th.TempWarning, Remark: an.tempRemark(t),
		})
		if out.HottestPoint == "" || t > out.MaxTemperature {
			out.MaxTemperature = t
			out.HottestPoint = p
		}
	}

	if out.MaxTemperature > an.th.TempWarning {
		f := fault.New(fault.KindOverheat, out.MaxTemperature,
			fmt.Sprintf("%s at %.1f°C > %.1f°C", out.HottestPoint, out.MaxTemperature, an.th.TempWarning)).At(out.HottestPoint)
		if out.MaxTemperature > an.th.TempCritical {
			f = f.WithSeverity(types.StatusCritical)
		}
		out.raise(f)
	}

	if kind, ok := noiseFaults[noise]; ok && !fault.Has(out.Faults, kind) {
		out.raise(fault.New(kind, 0, fmt.Sprintf("inspector reported %s noise", noise)))
	} else if !ok && noise != "" && noise != NoiseNormal {
		return nil, fmt.Errorf("vibration: %w: unknown noise character %q", types.ErrMeasurementOutOfRange, noise)
	}
	return &out, nil
}

// raise appends f and lifts Status to at least its severity.
func (r *Result) raise(f fault.Fault) {
	r.Faults = append(r.Faults, f)
	r.Status = r.Status.Escalate(f.Severity)
}

func (an *Analyzer) tempRemark(t float64) string {
	switch {
	case t > an.th.TempCritical:
		return "CRITICAL"
	case t > an.th.TempWarning:
		return "HIGH"
	}
	return "OK"
}
