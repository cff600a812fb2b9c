package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/reliabilitypro/reliabilitypro/pkg/asset"
	"github.com/reliabilitypro/reliabilitypro/pkg/electrical"
	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/report"
	"github.com/reliabilitypro/reliabilitypro/pkg/types"
	"github.com/reliabilitypro/reliabilitypro/pkg/vibration"
	"github.com/reliabilitypro/reliabilitypro/pkg/visual"
	"github.com/reliabilitypro/reliabilitypro/server/internal/alerts"
	"github.com/reliabilitypro/reliabilitypro/server/internal/store"
)

const maxBody = 1 << 20

// AlertSource lists the currently firing alerts.
type AlertSource interface {
	Active() []*alerts.Alert
}

// Recorder records diagnose latency.
type Recorder interface {
	ObserveDiagnose(op string, err error, d time.Duration)
}

// Deps are the collaborators of the API. Alerts and Metrics may be nil.
type Deps struct {
	Store    *store.Store
	Sessions *store.Sessions
	Catalog  func() *asset.Catalog
	Toolkit  func() *health.Toolkit
	Alerts   AlertSource
	Metrics  Recorder
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	deps Deps
	mux  *http.ServeMux
	now  func() time.Time
}

// New creates a Handler and registers all routes.
func New(d Deps) *Handler {
	h := &Handler{deps: d, mux: http.NewServeMux(), now: time.Now}

	h.mux.HandleFunc("GET /api/v1/health", h.health)
	h.mux.HandleFunc("GET /api/v1/assets", h.listAssets)
	h.mux.HandleFunc("GET /api/v1/assets/{tag}", h.getAsset)
	h.mux.HandleFunc("GET /api/v1/catalog", h.catalog)
	h.mux.HandleFunc("GET /api/v1/snapshot", h.snapshot)
	h.mux.HandleFunc("GET /api/v1/alerts", h.alerts)
	h.mux.HandleFunc("POST /api/v1/diagnose", h.diagnose)
	h.mux.HandleFunc("POST /api/v1/sessions", h.createSession)
	h.mux.HandleFunc("POST /api/v1/sessions/{id}/{domain}", h.runStep)
	h.mux.HandleFunc("GET /api/v1/sessions/{id}/verdict", h.verdict)
	h.mux.HandleFunc("DELETE /api/v1/sessions/{id}", h.deleteSession)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- board ------------------------------------------------------------------

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	sum := h.deps.Store.Summary()
	resp := HealthResponse{
		Condition:  worstCondition(sum),
		Summary:    sum,
		AssetCount: h.deps.Catalog().Len(),
		AlertCount: len(h.activeAlerts()),
		Sessions:   h.deps.Sessions.Len(),
	}
	jsonResp(w, http.StatusOK, resp)
}

func (h *Handler) listAssets(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.assets())
}

func (h *Handler) getAsset(w http.ResponseWriter, r *http.Request) {
	tag := strings.ToUpper(strings.TrimSpace(r.PathValue("tag")))
	a, err := h.deps.Catalog().Get(tag)
	if err != nil {
		jsonErr(w, http.StatusNotFound, "asset not found: "+tag)
		return
	}
	jsonResp(w, http.StatusOK, h.assetResponse(a))
}

func (h *Handler) catalog(w http.ResponseWriter, _ *http.Request) {
	list := h.deps.Catalog().List()
	out := make([]CatalogEntry, 0, len(list))
	for _, a := range list {
		out = append(out, CatalogEntry{Spec: a.Spec(), Limits: a.Limits()})
	}
	jsonResp(w, http.StatusOK, out)
}

func (h *Handler) snapshot(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.Snapshot())
}

func (h *Handler) alerts(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.activeAlerts())
}

// Snapshot builds the full board dump. It is shared with the WebSocket hub.
func (h *Handler) Snapshot() SnapshotResponse {
	return SnapshotResponse{
		Summary:     h.deps.Store.Summary(),
		Assets:      h.assets(),
		Alerts:      h.activeAlerts(),
		GeneratedAt: h.now().UTC().Format(time.RFC3339),
	}
}

func (h *Handler) assets() []AssetResponse {
	list := h.deps.Catalog().List()
	out := make([]AssetResponse, 0, len(list))
	for _, a := range list {
		out = append(out, h.assetResponse(a))
	}
	return out
}

func (h *Handler) assetResponse(a *asset.Asset) AssetResponse {
	resp := AssetResponse{
		Spec:      a.Spec(),
		Limits:    a.Limits(),
		Condition: ConditionUnknown,
	}
	e, ok := h.deps.Store.Get(a.Tag())
	if ok {
		resp.Report = e.Report
		ts := e.UpdatedAt
		resp.UpdatedAt = &ts
		if c := e.Report.Condition(); c != "" {
			resp.Condition = string(c)
		}
		resp.Diagnostics = computeDiagnostics(e.Report)
	} else {
		resp.Diagnostics = computeDiagnostics(nil)
	}
	return resp
}

func (h *Handler) activeAlerts() []*alerts.Alert {
	if h.deps.Alerts == nil {
		return []*alerts.Alert{}
	}
	active := h.deps.Alerts.Active()
	if active == nil {
		return []*alerts.Alert{}
	}
	return active
}

// --- diagnosis --------------------------------------------------------------

// diagnose runs a complete stateless inspection and returns the report.
func (h *Handler) diagnose(w http.ResponseWriter, r *http.Request) {
	var req DiagnoseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.empty() {
		jsonErr(w, http.StatusBadRequest, "at least one inspection domain is required")
		return
	}

	start := h.now()
	rep, err := h.runDiagnose(&req)
	h.observe("diagnose", err, start)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResp(w, http.StatusOK, rep)
}

func (h *Handler) runDiagnose(req *DiagnoseRequest) (*report.Report, error) {
	a, err := h.deps.Catalog().Get(strings.ToUpper(strings.TrimSpace(req.AssetTag)))
	if err != nil {
		return nil, err
	}
	s := health.NewSessionWith(a, h.deps.Toolkit())

	if req.Vibration != nil {
		if _, err := runVibration(s, req.Vibration); err != nil {
			return nil, err
		}
	}
	if req.Electrical != nil {
		if _, err := s.RunElectrical(*req.Electrical); err != nil {
			return nil, err
		}
	}
	if req.Hydraulic != nil {
		if _, err := s.RunHydraulic(req.Hydraulic.Readings, req.Hydraulic.Design); err != nil {
			return nil, err
		}
	}
	if req.Spectrum != nil {
		if _, err := s.RunSpectrum(req.Spectrum.Peaks); err != nil {
			return nil, err
		}
	}
	if req.Visual != nil {
		if _, err := s.RunVisual(*req.Visual); err != nil {
			return nil, err
		}
	}
	rep := report.FromSession(s, "api", h.now().UTC())
	rep.UptimePct = 100
	return rep, nil
}

func runVibration(s *health.Session, req *VibrationRequest) (*vibration.Result, error) {
	noise, err := vibration.ParseNoise(req.Noise)
	if err != nil {
		return nil, err
	}
	return s.RunVibration(req.Readings, req.Temperatures, noise)
}

// --- sessions ---------------------------------------------------------------

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.deps.Catalog().Get(strings.ToUpper(strings.TrimSpace(req.AssetTag)))
	if err != nil {
		writeError(w, err)
		return
	}
	info := h.deps.Sessions.Create(a, h.deps.Toolkit())
	slog.Debug("session created", "id", info.ID, "asset", info.AssetTag)
	jsonResp(w, http.StatusCreated, info)
}

// runStep feeds one inspection domain into an open session.
func (h *Handler) runStep(w http.ResponseWriter, r *http.Request) {
	id, domain := r.PathValue("id"), r.PathValue("domain")

	var step func(*health.Session) (any, error)
	switch domain {
	case "vibration":
		var req VibrationRequest
		if !decodeBody(w, r, &req) {
			return
		}
		step = func(s *health.Session) (any, error) { return runVibration(s, &req) }
	case "electrical":
		var req electrical.Readings
		if !decodeBody(w, r, &req) {
			return
		}
		step = func(s *health.Session) (any, error) { return s.RunElectrical(req) }
	case "hydraulic":
		var req HydraulicRequest
		if !decodeBody(w, r, &req) {
			return
		}
		step = func(s *health.Session) (any, error) { return s.RunHydraulic(req.Readings, req.Design) }
	case "spectrum":
		var req SpectrumRequest
		if !decodeBody(w, r, &req) {
			return
		}
		step = func(s *health.Session) (any, error) { return s.RunSpectrum(req.Peaks) }
	case "visual":
		var req visual.Checklist
		if !decodeBody(w, r, &req) {
			return
		}
		step = func(s *health.Session) (any, error) { return s.RunVisual(req) }
	default:
		jsonErr(w, http.StatusNotFound, "unknown inspection domain: "+domain)
		return
	}

	resp := StepResponse{SessionID: id, Domain: domain}
	start := h.now()
	err := h.deps.Sessions.With(id, func(s *health.Session) error {
		res, err := step(s)
		if err != nil {
			return err
		}
		resp.Result = res
		resp.Verdict = s.Verdict()
		return nil
	})
	h.observe(domain, err, start)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResp(w, http.StatusOK, resp)
}

func (h *Handler) verdict(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var resp VerdictResponse
	err := h.deps.Sessions.With(id, func(s *health.Session) error {
		resp = VerdictResponse{
			SessionID: id,
			AssetTag:  s.Asset().Tag(),
			Verdict:   s.Verdict(),
			Results:   s.Results(),
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResp(w, http.StatusOK, resp)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) observe(op string, err error, start time.Time) {
	if h.deps.Metrics != nil {
		h.deps.Metrics.ObserveDiagnose(op, err, h.now().Sub(start))
	}
}

// --- helpers ----------------------------------------------------------------

func worstCondition(s store.Summary) string {
	switch {
	case s.Critical > 0:
		return string(health.ConditionCritical)
	case s.Warning > 0:
		return string(health.ConditionWarning)
	case s.Good > 0:
		return string(health.ConditionGood)
	}
	return ConditionUnknown
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrMeasurementOutOfRange),
		errors.Is(err, types.ErrInvalidSpecification):
		code = http.StatusBadRequest
	case errors.Is(err, types.ErrUnknownAsset),
		errors.Is(err, store.ErrSessionNotFound):
		code = http.StatusNotFound
	}
	if code == http.StatusInternalServerError {
		slog.Error("api request failed", "err", err)
	}
	jsonErr(w, code, err.Error())
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
