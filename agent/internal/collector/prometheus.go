package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/reliabilitypro/reliabilitypro/agent/internal/config"
)

// Selector picks one sample out of a metric family by name and label
// equality, written as name{label="value",...}.
type Selector struct {
	Name   string
	Labels map[string]string
}

var selectorRe = regexp.MustCompile(`^([a-zA-Z_:][a-zA-Z0-9_:]*)\s*(?:\{(.*)\})?$`)
var labelRe = regexp.MustCompile(`^\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*=\s*"((?:[^"\\]|\\.)*)"\s*$`)

// ParseSelector parses a selector expression.
func ParseSelector(s string) (Selector, error) {
	m := selectorRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Selector{}, fmt.Errorf("invalid selector %q", s)
	}
	sel := Selector{Name: m[1], Labels: map[string]string{}}
	if strings.TrimSpace(m[2]) == "" {
		return sel, nil
	}
	for _, part := range splitLabels(m[2]) {
		lm := labelRe.FindStringSubmatch(part)
		if lm == nil {
			return Selector{}, fmt.Errorf("invalid label matcher %q in %q", part, s)
		}
		sel.Labels[lm[1]] = strings.ReplaceAll(lm[2], `\"`, `"`)
	}
	return sel, nil
}

// splitLabels splits on commas outside quoted values.
func splitLabels(s string) []string {
	var parts []string
	var b strings.Builder
	inQuote, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case r == ',' && !inQuote:
			parts = append(parts, b.String())
			b.Reset()
			continue
		}
		b.WriteRune(r)
	}
	if strings.TrimSpace(b.String()) != "" {
		parts = append(parts, b.String())
	}
	return parts
}

// find returns the value of the first sample in mfs matching sel.
func (sel Selector) find(mfs map[string]*dto.MetricFamily) (float64, bool) {
	mf := mfs[sel.Name]
	if mf == nil {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		if !sel.matches(m) {
			continue
		}
		switch {
		case m.Gauge != nil:
			return m.Gauge.GetValue(), true
		case m.Untyped != nil:
			return m.Untyped.GetValue(), true
		case m.Counter != nil:
			return m.Counter.GetValue(), true
		}
	}
	return 0, false
}

func (sel Selector) matches(m *dto.Metric) bool {
	have := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		have[lp.GetName()] = lp.GetValue()
	}
	for k, v := range sel.Labels {
		if have[k] != v {
			return false
		}
	}
	return true
}

type promCollector struct {
	src       config.Source
	client    *http.Client
	selectors map[string]Selector
}

func newPromCollector(src config.Source, client *http.Client) (*promCollector, error) {
	sels := make(map[string]Selector, len(src.Points))
	for key, expr := range src.Points {
		if !IsPoint(key) {
			return nil, fmt.Errorf("collector %q: unknown point key %q", src.ID, key)
		}
		sel, err := ParseSelector(expr)
		if err != nil {
			return nil, fmt.Errorf("collector %q: point %s: %w", src.ID, key, err)
		}
		sels[key] = sel
	}
	return &promCollector{src: src, client: client, selectors: sels}, nil
}

// Collect scrapes the exposition endpoint and resolves every configured
// point. Any unresolved point fails the cycle.
func (c *promCollector) Collect(ctx context.Context) (*Sample, error) {
	res := newSample(c.src)
	res.Design = c.src.Hydraulic

	mfs, err := fetchMetrics(ctx, c.client, c.src.Endpoint)
	if err != nil {
		res.Err = fmt.Errorf("prometheus collect %q: %w", c.src.ID, err)
		slog.Warn("collector: prometheus fetch failed", "source", c.src.ID, "err", err)
		return res, nil
	}

	points := make(map[string]float64, len(c.selectors))
	var missing []string
	for key, sel := range c.selectors {
		v, ok := sel.find(mfs)
		if !ok {
			missing = append(missing, key)
			continue
		}
		points[key] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		res.Err = fmt.Errorf("prometheus collect %q: no sample for %s", c.src.ID, strings.Join(missing, ", "))
		return res, nil
	}
	if err := FromPoints(res, points); err != nil {
		res.Err = fmt.Errorf("prometheus collect %q: %w", c.src.ID, err)
	}
	return res, nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}
