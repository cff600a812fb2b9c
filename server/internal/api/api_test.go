package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reliabilitypro/reliabilitypro/pkg/asset"
	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/report"
	"github.com/reliabilitypro/reliabilitypro/server/internal/alerts"
	"github.com/reliabilitypro/reliabilitypro/server/internal/api"
	"github.com/reliabilitypro/reliabilitypro/server/internal/store"
)

// --- test helpers -----------------------------------------------------------

type fakeAlerts []*alerts.Alert

func (f fakeAlerts) Active() []*alerts.Alert { return f }

type fixture struct {
	h        *api.Handler
	st       *store.Store
	sessions *store.Sessions
}

func newFixture(t *testing.T, active ...*alerts.Alert) *fixture {
	t.Helper()
	cat, err := asset.NewCatalog(asset.DefaultSpecs())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	tk := health.NewToolkit(health.DefaultConfig())
	f := &fixture{st: store.New(5 * time.Minute), sessions: store.NewSessions(time.Hour)}
	f.h = api.New(api.Deps{
		Store:    f.st,
		Sessions: f.sessions,
		Catalog:  func() *asset.Catalog { return cat },
		Toolkit:  func() *health.Toolkit { return tk },
		Alerts:   fakeAlerts(active),
	})
	return f
}

func rep(tag string, c health.Condition) *report.Report {
	return &report.Report{
		AssetTag:  tag,
		Timestamp: time.Now().UTC(),
		Verdict:   &health.Verdict{Condition: c},
		UptimePct: 100,
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

const calmVibration = `{
	"driver_de": {"h": 1.0, "v": 0.9, "a": 0.5},
	"driver_nde": {"h": 1.1, "v": 0.8, "a": 0.4},
	"driven_de": {"h": 1.2, "v": 1.0, "a": 0.6},
	"driven_nde": {"h": 1.0, "v": 0.9, "a": 0.5}
}`

// --- board ------------------------------------------------------------------

func TestHealth_EmptyBoard(t *testing.T) {
	f := newFixture(t)
	rr := do(t, f.h, http.MethodGet, "/api/v1/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Condition != api.ConditionUnknown {
		t.Errorf("condition = %q, want UNKNOWN", resp.Condition)
	}
	if resp.AssetCount != len(asset.DefaultSpecs()) {
		t.Errorf("asset_count = %d, want %d", resp.AssetCount, len(asset.DefaultSpecs()))
	}
}

func TestHealth_WorstConditionWins(t *testing.T) {
	tests := []struct {
		name string
		in   []health.Condition
		want string
	}{
		{"all good", []health.Condition{health.ConditionGood, health.ConditionGood}, "GOOD"},
		{"one warning", []health.Condition{health.ConditionGood, health.ConditionWarning}, "WARNING"},
		{"one critical", []health.Condition{health.ConditionWarning, health.ConditionCritical}, "CRITICAL"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, &alerts.Alert{ID: "a1"})
			tags := []string{"P-101", "P-102"}
			for i, c := range tc.in {
				f.st.Put(rep(tags[i], c))
			}
			var resp api.HealthResponse
			decode(t, do(t, f.h, http.MethodGet, "/api/v1/health", ""), &resp)
			if resp.Condition != tc.want {
				t.Errorf("condition = %q, want %q", resp.Condition, tc.want)
			}
			if resp.Total != 2 {
				t.Errorf("total = %d, want 2", resp.Total)
			}
			if resp.AlertCount != 1 {
				t.Errorf("alert_count = %d, want 1", resp.AlertCount)
			}
		})
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	rr := do(t, f.h, http.MethodPost, "/api/v1/health", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

func TestListAssets_IncludesUnreported(t *testing.T) {
	f := newFixture(t)
	f.st.Put(rep("P-101", health.ConditionWarning))

	rr := do(t, f.h, http.MethodGet, "/api/v1/assets", "")
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var resp []api.AssetResponse
	decode(t, rr, &resp)
	if len(resp) != len(asset.DefaultSpecs()) {
		t.Fatalf("got %d assets, want %d", len(resp), len(asset.DefaultSpecs()))
	}
	byTag := map[string]api.AssetResponse{}
	for _, a := range resp {
		byTag[a.Tag] = a
	}
	if got := byTag["P-101"].Condition; got != "WARNING" {
		t.Errorf("P-101 condition = %q, want WARNING", got)
	}
	if byTag["P-101"].Report == nil || byTag["P-101"].UpdatedAt == nil {
		t.Error("P-101 should carry its report")
	}
	if got := byTag["P-102"].Condition; got != api.ConditionUnknown {
		t.Errorf("P-102 condition = %q, want UNKNOWN", got)
	}
	if d := byTag["P-102"].Diagnostics; len(d) != 1 || d[0].Key != "awaiting_report" {
		t.Errorf("P-102 diagnostics = %+v", d)
	}
}

func TestGetAsset(t *testing.T) {
	f := newFixture(t)
	f.st.Put(rep("P-101", health.ConditionGood))

	rr := do(t, f.h, http.MethodGet, "/api/v1/assets/p-101", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp api.AssetResponse
	decode(t, rr, &resp)
	if resp.Tag != "P-101" || resp.Limits.Warning != 4.5 || resp.Limits.Alarm != 7.1 {
		t.Errorf("got %+v", resp)
	}
	if len(resp.Diagnostics) != 1 || resp.Diagnostics[0].Level != "ok" {
		t.Errorf("diagnostics = %+v, want single all-clear", resp.Diagnostics)
	}

	if rr := do(t, f.h, http.MethodGet, "/api/v1/assets/NOPE", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown asset status = %d, want 404", rr.Code)
	}
}

func TestDiagnostics_CollectionError(t *testing.T) {
	f := newFixture(t)
	r := &report.Report{AssetTag: "P-103", Timestamp: time.Now(), ErrorMessage: "dial tcp: refused", UptimePct: 50}
	f.st.Put(r)

	var resp api.AssetResponse
	decode(t, do(t, f.h, http.MethodGet, "/api/v1/assets/P-103", ""), &resp)
	if len(resp.Diagnostics) != 1 || resp.Diagnostics[0].Key != "collection_failed" {
		t.Fatalf("diagnostics = %+v", resp.Diagnostics)
	}
	if resp.Condition != api.ConditionUnknown {
		t.Errorf("condition = %q, want UNKNOWN", resp.Condition)
	}
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)
	var resp []api.CatalogEntry
	decode(t, do(t, f.h, http.MethodGet, "/api/v1/catalog", ""), &resp)
	if len(resp) != len(asset.DefaultSpecs()) {
		t.Fatalf("got %d entries", len(resp))
	}
	if resp[0].Tag != "P-101" || resp[0].Limits.Warning == 0 {
		t.Errorf("first entry = %+v", resp[0])
	}
}

func TestAlerts_EmptyArray(t *testing.T) {
	f := newFixture(t)
	rr := do(t, f.h, http.MethodGet, "/api/v1/alerts", "")
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, &alerts.Alert{ID: "a1", AssetTag: "P-101"})
	f.st.Put(rep("P-101", health.ConditionCritical))

	var resp api.SnapshotResponse
	decode(t, do(t, f.h, http.MethodGet, "/api/v1/snapshot", ""), &resp)
	if resp.Summary.Critical != 1 {
		t.Errorf("summary = %+v", resp.Summary)
	}
	if len(resp.Alerts) != 1 || resp.GeneratedAt == "" {
		t.Errorf("alerts = %d generated_at = %q", len(resp.Alerts), resp.GeneratedAt)
	}
	if _, err := time.Parse(time.RFC3339, resp.GeneratedAt); err != nil {
		t.Errorf("generated_at: %v", err)
	}
}

// --- diagnose ---------------------------------------------------------------

func TestDiagnose_Good(t *testing.T) {
	f := newFixture(t)
	body := `{"asset_tag":"P-101","vibration":` + calmVibration + `,
		"electrical":{"voltages":[380,381,379],"currents":[60,61,60]},
		"visual":{"oil":"Clear & Bright"}}`

	rr := do(t, f.h, http.MethodPost, "/api/v1/diagnose", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	var resp report.Report
	decode(t, rr, &resp)
	if resp.Condition() != health.ConditionGood {
		t.Errorf("condition = %q, want GOOD (reasons %v)", resp.Condition(), resp.Verdict.Reasons)
	}
	if resp.Vibration == nil || resp.Electrical == nil || resp.Visual == nil {
		t.Error("every requested domain should be reported")
	}
	if resp.Hydraulic != nil || resp.Spectrum != nil {
		t.Error("domains not requested should be absent")
	}
}

func TestDiagnose_CriticalVibration(t *testing.T) {
	f := newFixture(t)
	body := `{"asset_tag":"P-101","vibration":{
		"driver_de":{"h":1,"v":1,"a":1},"driver_nde":{"h":1,"v":1,"a":1},
		"driven_de":{"h":12,"v":11,"a":10},"driven_nde":{"h":12,"v":11,"a":10},
		"noise":"cavitation-like"}}`

	var resp report.Report
	rr := do(t, f.h, http.MethodPost, "/api/v1/diagnose", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	decode(t, rr, &resp)
	if resp.Condition() != health.ConditionCritical {
		t.Errorf("condition = %q, want CRITICAL", resp.Condition())
	}
	if len(resp.AllFaults()) == 0 {
		t.Error("expected at least one fault")
	}
}

func TestDiagnose_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"unknown field", `{"asset_tag":"P-101","rpm":3}`, http.StatusBadRequest},
		{"no domains", `{"asset_tag":"P-101"}`, http.StatusBadRequest},
		{"unknown asset", `{"asset_tag":"X-9","visual":{}}`, http.StatusNotFound},
		{"negative velocity", `{"asset_tag":"P-101","vibration":{"driver_de":{"h":-1}}}`, http.StatusBadRequest},
		{"bad noise", `{"asset_tag":"P-101","vibration":{"noise":"humming"}}`, http.StatusBadRequest},
		{"bad oil", `{"asset_tag":"P-101","visual":{"oil":"purple"}}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			rr := do(t, f.h, http.MethodPost, "/api/v1/diagnose", tc.body)
			if rr.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

// --- sessions ---------------------------------------------------------------

func TestSession_Lifecycle(t *testing.T) {
	f := newFixture(t)

	rr := do(t, f.h, http.MethodPost, "/api/v1/sessions", `{"asset_tag":"p-102"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rr.Code, rr.Body.String())
	}
	var info store.SessionInfo
	decode(t, rr, &info)
	if info.ID == "" || info.AssetTag != "P-102" {
		t.Fatalf("session = %+v", info)
	}
	base := "/api/v1/sessions/" + info.ID

	rr = do(t, f.h, http.MethodPost, base+"/vibration", calmVibration)
	if rr.Code != http.StatusOK {
		t.Fatalf("vibration status = %d body = %s", rr.Code, rr.Body.String())
	}
	var step api.StepResponse
	decode(t, rr, &step)
	if step.Domain != "vibration" || step.Verdict.Condition != health.ConditionGood {
		t.Errorf("step = %+v", step)
	}

	rr = do(t, f.h, http.MethodPost, base+"/visual", `{"oil":"milky"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("visual status = %d body = %s", rr.Code, rr.Body.String())
	}

	var v api.VerdictResponse
	decode(t, do(t, f.h, http.MethodGet, base+"/verdict", ""), &v)
	if v.Verdict.Condition != health.ConditionCritical {
		t.Errorf("verdict = %q, want CRITICAL after milky oil", v.Verdict.Condition)
	}
	if v.Results.Vibration == nil || v.Results.Visual == nil {
		t.Error("verdict should carry both domain results")
	}

	if rr := do(t, f.h, http.MethodDelete, base, ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rr.Code)
	}
	if rr := do(t, f.h, http.MethodGet, base+"/verdict", ""); rr.Code != http.StatusNotFound {
		t.Errorf("verdict after delete status = %d, want 404", rr.Code)
	}
}

func TestSession_Errors(t *testing.T) {
	f := newFixture(t)
	if rr := do(t, f.h, http.MethodPost, "/api/v1/sessions", `{"asset_tag":"Z-1"}`); rr.Code != http.StatusNotFound {
		t.Errorf("unknown asset status = %d, want 404", rr.Code)
	}
	if rr := do(t, f.h, http.MethodPost, "/api/v1/sessions/missing/visual", `{}`); rr.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", rr.Code)
	}
	if rr := do(t, f.h, http.MethodDelete, "/api/v1/sessions/missing", ""); rr.Code != http.StatusNotFound {
		t.Errorf("delete unknown status = %d, want 404", rr.Code)
	}

	var info store.SessionInfo
	decode(t, do(t, f.h, http.MethodPost, "/api/v1/sessions", `{"asset_tag":"P-101"}`), &info)
	if rr := do(t, f.h, http.MethodPost, "/api/v1/sessions/"+info.ID+"/thermal", `{}`); rr.Code != http.StatusNotFound {
		t.Errorf("unknown domain status = %d, want 404", rr.Code)
	}
	rr := do(t, f.h, http.MethodPost, "/api/v1/sessions/"+info.ID+"/electrical", `{"voltages":[-1,380,380],"currents":[1,1,1]}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("negative voltage status = %d, want 400", rr.Code)
	}
}
