package api

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/report"
	"github.com/reliabilitypro/reliabilitypro/pkg/types"
	"github.com/reliabilitypro/reliabilitypro/pkg/visual"
)

// DiagnosticHint is one human-readable finding about an asset. The board
// shows these as chips on the asset card; Detail is shown on click.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level  string   `json:"level"`
	Title  string   `json:"title"`
	Detail string   `json:"detail"`
	Value  *float64 `json:"value,omitempty"`
}

var levelRank = map[string]int{"critical": 0, "warning": 1, "info": 2, "ok": 3}

// computeDiagnostics derives hints from the latest report of an asset,
// critical first. rep may be nil when no report has arrived yet.
func computeDiagnostics(rep *report.Report) []DiagnosticHint {
	if rep == nil {
		return []DiagnosticHint{{
			Key:   "awaiting_report",
			Level: "info",
			Title: "Awaiting first report",
			Detail: "No inspection of this asset has reached the server yet. " +
				"Check that an agent source is configured for this tag.",
		}}
	}

	var hints []DiagnosticHint

	if rep.ErrorMessage != "" {
		hints = append(hints, DiagnosticHint{
			Key:   "collection_failed",
			Level: "critical",
			Title: "Can't collect readings",
			Detail: fmt.Sprintf("The last inspection cycle failed with %q. "+
				"Until this is resolved the condition shown is from the previous good cycle.", rep.ErrorMessage),
		})
		if rep.Verdict == nil {
			return hints
		}
	}

	if rep.UptimePct > 0 && rep.UptimePct < 100 {
		v := rep.UptimePct
		level := "info"
		switch {
		case v < 70:
			level = "critical"
		case v < 90:
			level = "warning"
		}
		hints = append(hints, DiagnosticHint{
			Key:   "uptime",
			Level: level,
			Title: fmt.Sprintf("%.0f%% collection uptime", v),
			Detail: fmt.Sprintf("Readings were collected in %.0f%% of recent cycles. "+
				"Gaps usually mean the sensor gateway or the data source was unreachable.", v),
			Value: &v,
		})
	}

	for _, f := range rep.AllFaults() {
		v := f.Value
		hints = append(hints, DiagnosticHint{
			Key:    "fault_" + slug(f.Name) + suffix(f.Location),
			Level:  statusLevel(f.Severity),
			Title:  f.Label(),
			Detail: strings.TrimSpace(f.Description + " " + f.Action),
			Value:  &v,
		})
	}

	if rep.Visual != nil {
		for i, is := range rep.Visual.Issues {
			level := "warning"
			if is.Severity == visual.Major {
				level = "critical"
			}
			hints = append(hints, DiagnosticHint{
				Key:    fmt.Sprintf("visual_%d", i),
				Level:  level,
				Title:  is.Standard,
				Detail: is.Description,
			})
		}
	}

	if len(hints) == 0 && rep.Condition() == health.ConditionGood {
		hints = append(hints, DiagnosticHint{
			Key:    "healthy",
			Level:  "ok",
			Title:  "All clear",
			Detail: "Every inspected parameter is within tolerance. Continue routine monitoring.",
		})
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return levelRank[hints[i].Level] < levelRank[hints[j].Level]
	})
	return hints
}

func statusLevel(s types.Status) string {
	switch s {
	case types.StatusCritical:
		return "critical"
	case types.StatusWarning:
		return "warning"
	}
	return "info"
}

func slug(s string) string {
	return strings.ToLower(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}), "_"))
}

func suffix(loc string) string {
	if loc == "" {
		return ""
	}
	return "_" + slug(loc)
}
