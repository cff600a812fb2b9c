// Package metrics exposes the server's Prometheus instruments.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/report"
)

const namespace = "reliabilitypro"

// Metrics groups every instrument. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	reports      *prometheus.CounterVec
	reportErrors *prometheus.CounterVec
	condition    *prometheus.GaugeVec
	vibMax       *prometheus.GaugeVec
	faults       *prometheus.GaugeVec
	diagnose     *prometheus.HistogramVec
	alerts       *prometheus.CounterVec
	wsClients    prometheus.Gauge
}

// New creates the instruments and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_received_total",
			Help:      "Inspection reports accepted from agents.",
		}, []string{"asset", "condition"}),
		reportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_errors_total",
			Help:      "Reports carrying a collection or analysis error.",
		}, []string{"asset"}),
		condition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "asset_condition",
			Help:      "Latest verdict per asset: 0 good, 1 warning, 2 critical, -1 unknown.",
		}, []string{"asset"}),
		vibMax: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "asset_vibration_max_mm_s",
			Help:      "Highest bearing-average vibration velocity in the latest report.",
		}, []string{"asset"}),
		faults: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "asset_faults",
			Help:      "Faults inferred in the latest report.",
		}, []string{"asset"}),
		diagnose: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diagnose_duration_seconds",
			Help:      "Latency of API diagnosis requests.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"operation", "outcome"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_fired_total",
			Help:      "Alert rule firings.",
		}, []string{"rule", "severity"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected board WebSocket clients.",
		}),
	}
	reg.MustRegister(m.reports, m.reportErrors, m.condition, m.vibMax, m.faults, m.diagnose, m.alerts, m.wsClients)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveReport records an accepted report.
func (m *Metrics) ObserveReport(r *report.Report) {
	if m == nil {
		return
	}
	cond := string(r.Condition())
	if cond == "" {
		cond = "UNKNOWN"
	}
	m.reports.WithLabelValues(r.AssetTag, cond).Inc()
	if r.ErrorMessage != "" {
		m.reportErrors.WithLabelValues(r.AssetTag).Inc()
	}
	m.condition.WithLabelValues(r.AssetTag).Set(conditionValue(r.Condition()))
	if v, ok := r.Metric(report.MetricVibMax); ok {
		m.vibMax.WithLabelValues(r.AssetTag).Set(v)
	}
	m.faults.WithLabelValues(r.AssetTag).Set(float64(len(r.AllFaults())))
}

// ObserveDiagnose records the latency and outcome of an API operation.
func (m *Metrics) ObserveDiagnose(op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.diagnose.WithLabelValues(op, outcome).Observe(d.Seconds())
}

// AlertFired counts one rule firing.
func (m *Metrics) AlertFired(rule, severity string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(rule, severity).Inc()
}

// SetClients sets the connected WebSocket client count.
func (m *Metrics) SetClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}

func conditionValue(c health.Condition) float64 {
	switch c {
	case health.ConditionGood:
		return 0
	case health.ConditionWarning:
		return 1
	case health.ConditionCritical:
		return 2
	}
	return -1
}
