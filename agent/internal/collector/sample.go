package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/reliabilitypro/reliabilitypro/agent/internal/config"
	"github.com/reliabilitypro/reliabilitypro/pkg/electrical"
	"github.com/reliabilitypro/reliabilitypro/pkg/hydraulic"
	"github.com/reliabilitypro/reliabilitypro/pkg/spectrum"
	"github.com/reliabilitypro/reliabilitypro/pkg/vibration"
	"github.com/reliabilitypro/reliabilitypro/pkg/visual"
)

// Sample is the normalised output of one collection for one asset. Nil
// domain fields were not measured this cycle.
type Sample struct {
	SourceID    string
	SourceType  string
	AssetTag    string
	CollectedAt time.Time

	Vibration    *vibration.Readings
	Temperatures map[string]float64
	Noise        vibration.Noise
	Electrical   *electrical.Readings
	Hydraulic    *hydraulic.Readings
	Design       *hydraulic.Design
	Peaks        []spectrum.Peak
	Visual       *visual.Checklist

	// Err is non-nil if the collection itself failed (connectivity, auth,
	// parse, missing points).
	Err error
}

// Collector is implemented by every measurement source.
type Collector interface {
	Collect(ctx context.Context) (*Sample, error)
}

// New returns the Collector for the given source configuration.
func New(src config.Source) (Collector, error) {
	switch src.Type {
	case config.TypeFile:
		return &fileCollector{src: src}, nil
	case config.TypePrometheus:
		return newPromCollector(src, buildHTTPClient(src))
	case config.TypeOPCUA:
		return newOPCUACollector(src)
	default:
		return nil, fmt.Errorf("collector: unsupported type %q", src.Type)
	}
}

func newSample(src config.Source) *Sample {
	return &Sample{
		SourceID:    src.ID,
		SourceType:  src.Type,
		AssetTag:    src.Asset,
		CollectedAt: time.Now().UTC(),
	}
}

// Canonical point keys.
const (
	PointVoltageL1     = "voltage_l1"
	PointVoltageL2     = "voltage_l2"
	PointVoltageL3     = "voltage_l3"
	PointCurrentL1     = "current_l1"
	PointCurrentL2     = "current_l2"
	PointCurrentL3     = "current_l3"
	PointGroundCurrent = "ground_current"
	PointBodyTemp      = "body_temp"
	PointSuction       = "suction_bar"
	PointDischarge     = "discharge_bar"
	PointFlow          = "flow"

	// TempPrefix marks bearing temperature keys: temp_driver_de -> driver_de.
	TempPrefix = "temp_"
)

// vibrationKeys lists the twelve velocity points in Readings order.
var vibrationKeys = func() []string {
	var keys []string
	for _, bearing := range []string{"driver_de", "driver_nde", "driven_de", "driven_nde"} {
		for _, axis := range []string{"h", "v", "a"} {
			keys = append(keys, bearing+"_"+axis)
		}
	}
	return keys
}()

// IsPoint reports whether key is a canonical point key.
func IsPoint(key string) bool {
	if strings.HasPrefix(key, TempPrefix) && len(key) > len(TempPrefix) {
		return true
	}
	for _, k := range vibrationKeys {
		if k == key {
			return true
		}
	}
	switch key {
	case PointVoltageL1, PointVoltageL2, PointVoltageL3,
		PointCurrentL1, PointCurrentL2, PointCurrentL3,
		PointGroundCurrent, PointBodyTemp,
		PointSuction, PointDischarge, PointFlow:
		return true
	}
	return false
}

// FromPoints fills s from a flat map of canonical point values. A domain is
// populated only when all of its mandatory points are present; a domain with
// some but not all mandatory points is an error.
func FromPoints(s *Sample, points map[string]float64) error {
	if err := vibrationFromPoints(s, points); err != nil {
		return err
	}
	for k, v := range points {
		if strings.HasPrefix(k, TempPrefix) {
			if s.Temperatures == nil {
				s.Temperatures = make(map[string]float64)
			}
			s.Temperatures[strings.TrimPrefix(k, TempPrefix)] = v
		}
	}

	phase := []string{PointVoltageL1, PointVoltageL2, PointVoltageL3, PointCurrentL1, PointCurrentL2, PointCurrentL3}
	if vals, ok, err := all(points, phase); err != nil {
		return fmt.Errorf("electrical: %w", err)
	} else if ok {
		r := &electrical.Readings{
			Voltages: [3]float64{vals[0], vals[1], vals[2]},
			Currents: [3]float64{vals[3], vals[4], vals[5]},
		}
		if g, ok := points[PointGroundCurrent]; ok {
			r.GroundCurrent = &g
		}
		if t, ok := points[PointBodyTemp]; ok {
			r.BodyTemp = &t
		}
		s.Electrical = r
	}

	if vals, ok, err := all(points, []string{PointSuction, PointDischarge}); err != nil {
		return fmt.Errorf("hydraulic: %w", err)
	} else if ok {
		r := &hydraulic.Readings{SuctionBar: vals[0], DischargeBar: vals[1]}
		if f, ok := points[PointFlow]; ok {
			r.Flow = &f
		}
		s.Hydraulic = r
	}
	return nil
}

func vibrationFromPoints(s *Sample, points map[string]float64) error {
	vals, ok, err := all(points, vibrationKeys)
	if err != nil {
		return fmt.Errorf("vibration: %w", err)
	}
	if !ok {
		return nil
	}
	pt := func(i int) vibration.Point {
		return vibration.Point{H: vals[i], V: vals[i+1], A: vals[i+2]}
	}
	s.Vibration = &vibration.Readings{DriverDE: pt(0), DriverNDE: pt(3), DrivenDE: pt(6), DrivenNDE: pt(9)}
	return nil
}

// all returns the values for keys in order. ok is false when none are
// present; a partial set is an error naming the missing keys.
func all(points map[string]float64, keys []string) (vals []float64, ok bool, err error) {
	var missing []string
	for _, k := range keys {
		v, found := points[k]
		if !found {
			missing = append(missing, k)
			continue
		}
		vals = append(vals, v)
	}
	switch {
	case len(missing) == len(keys):
		return nil, false, nil
	case len(missing) > 0:
		sort.Strings(missing)
		return nil, false, fmt.Errorf("missing points %s", strings.Join(missing, ", "))
	}
	return vals, true, nil
}
