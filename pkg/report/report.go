// Package report defines the inspection report exchanged between the agent
// and the server.
package report

import (
	"time"

	"github.com/reliabilitypro/reliabilitypro/pkg/fault"
	"github.com/reliabilitypro/reliabilitypro/pkg/health"
)

// Report is one inspection cycle of one asset.
type Report struct {
	AssetTag  string    `json:"asset_tag"`
	AssetName string    `json:"asset_name,omitempty"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	Verdict *health.Verdict `json:"verdict,omitempty"`
	health.Results

	// UptimePct is the share of recent collection cycles that returned data.
	UptimePct float64 `json:"uptime_pct"`
	// ErrorMessage is set when collection or analysis failed this cycle.
	ErrorMessage string `json:"error_message,omitempty"`
}

// FromSession snapshots the session's results and verdict.
func FromSession(s *health.Session, source string, ts time.Time) *Report {
	a := s.Asset()
	v := s.Verdict()
	return &Report{
		AssetTag:  a.Tag(),
		AssetName: a.Spec().Name,
		Source:    source,
		Timestamp: ts,
		Verdict:   &v,
		Results:   s.Results(),
	}
}

// Condition returns the verdict condition, or "" when no verdict exists.
func (r *Report) Condition() health.Condition {
	if r.Verdict == nil {
		return ""
	}
	return r.Verdict.Condition
}

// AllFaults returns the faults of every domain.
func (r *Report) AllFaults() []fault.Fault {
	return r.Results.Faults()
}

// Metric names accepted by Metric.
const (
	MetricVibMax           = "vib_max"
	MetricVoltageUnbalance = "voltage_unbalance_pct"
	MetricCurrentUnbalance = "current_unbalance_pct"
	MetricLoad             = "load_pct"
	MetricHeadDeviation    = "head_deviation_pct"
	MetricMaxTemp          = "max_temp"
	MetricFaultCount       = "fault_count"
	MetricUptime           = "uptime_pct"
)

// Metric returns a numeric field of the report by name. ok is false when
// the domain providing it was not run.
func (r *Report) Metric(name string) (v float64, ok bool) {
	switch name {
	case MetricVibMax:
		if r.Vibration != nil {
			return r.Vibration.MaxAverage, true
		}
	case MetricMaxTemp:
		if r.Vibration != nil {
			return r.Vibration.MaxTemperature, true
		}
	case MetricVoltageUnbalance:
		if r.Electrical != nil {
			return r.Electrical.VoltageUnbalance, true
		}
	case MetricCurrentUnbalance:
		if r.Electrical != nil {
			return r.Electrical.CurrentUnbalance, true
		}
	case MetricLoad:
		if r.Electrical != nil {
			return r.Electrical.LoadPct, true
		}
	case MetricHeadDeviation:
		if r.Hydraulic != nil {
			return r.Hydraulic.DeviationPct, true
		}
	case MetricFaultCount:
		return float64(len(r.AllFaults())), true
	case MetricUptime:
		return r.UptimePct, true
	}
	return 0, false
}
