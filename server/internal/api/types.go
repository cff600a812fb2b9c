package api

import (
	"time"

	"github.com/reliabilitypro/reliabilitypro/pkg/asset"
	"github.com/reliabilitypro/reliabilitypro/pkg/electrical"
	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/hydraulic"
	"github.com/reliabilitypro/reliabilitypro/pkg/report"
	"github.com/reliabilitypro/reliabilitypro/pkg/spectrum"
	"github.com/reliabilitypro/reliabilitypro/pkg/vibration"
	"github.com/reliabilitypro/reliabilitypro/pkg/visual"
	"github.com/reliabilitypro/reliabilitypro/server/internal/alerts"
	"github.com/reliabilitypro/reliabilitypro/server/internal/store"
)

// ConditionUnknown is reported for assets with no verdict on the board.
const ConditionUnknown = "UNKNOWN"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// Condition is the worst condition on the board.
	Condition string `json:"condition"`
	store.Summary
	AssetCount int `json:"asset_count"`
	AlertCount int `json:"alert_count"`
	Sessions   int `json:"sessions"`
}

// AssetResponse is one asset in GET /api/v1/assets or
// GET /api/v1/assets/{tag}.
type AssetResponse struct {
	asset.Spec
	Limits      asset.Limits     `json:"limits"`
	Condition   string           `json:"condition"`
	Report      *report.Report   `json:"report,omitempty"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
	Diagnostics []DiagnosticHint `json:"diagnostics"`
}

// CatalogEntry is one asset in GET /api/v1/catalog.
type CatalogEntry struct {
	asset.Spec
	Limits asset.Limits `json:"limits"`
}

// SnapshotResponse is the full board dump served by GET /api/v1/snapshot and
// broadcast over the WebSocket stream.
type SnapshotResponse struct {
	Summary     store.Summary   `json:"summary"`
	Assets      []AssetResponse `json:"assets"`
	Alerts      []*alerts.Alert `json:"alerts"`
	GeneratedAt string          `json:"generated_at"` // RFC3339
}

// VibrationRequest is the body of POST /api/v1/sessions/{id}/vibration.
type VibrationRequest struct {
	vibration.Readings
	Temperatures map[string]float64 `json:"temperatures,omitempty"`
	Noise        string             `json:"noise,omitempty"`
}

// HydraulicRequest is the body of POST /api/v1/sessions/{id}/hydraulic.
type HydraulicRequest struct {
	hydraulic.Readings
	Design hydraulic.Design `json:"design"`
}

// SpectrumRequest is the body of POST /api/v1/sessions/{id}/spectrum.
type SpectrumRequest struct {
	Peaks []spectrum.Peak `json:"peaks"`
}

// DiagnoseRequest is a complete inspection of one asset. Omitted domains are
// not run.
type DiagnoseRequest struct {
	AssetTag   string               `json:"asset_tag"`
	Vibration  *VibrationRequest    `json:"vibration,omitempty"`
	Electrical *electrical.Readings `json:"electrical,omitempty"`
	Hydraulic  *HydraulicRequest    `json:"hydraulic,omitempty"`
	Spectrum   *SpectrumRequest     `json:"spectrum,omitempty"`
	Visual     *visual.Checklist    `json:"visual,omitempty"`
}

func (r *DiagnoseRequest) empty() bool {
	return r.Vibration == nil && r.Electrical == nil && r.Hydraulic == nil &&
		r.Spectrum == nil && r.Visual == nil
}

// StepResponse is returned after one domain of a session has run.
type StepResponse struct {
	SessionID string         `json:"session_id"`
	Domain    string         `json:"domain"`
	Result    any            `json:"result"`
	Verdict   health.Verdict `json:"verdict"`
}

// VerdictResponse is the payload for GET /api/v1/sessions/{id}/verdict.
type VerdictResponse struct {
	SessionID string         `json:"session_id"`
	AssetTag  string         `json:"asset_tag"`
	Verdict   health.Verdict `json:"verdict"`
	Results   health.Results `json:"results"`
}

// SessionRequest is the body of POST /api/v1/sessions.
type SessionRequest struct {
	AssetTag string `json:"asset_tag"`
}

type errorResponse struct {
	Error string `json:"error"`
}
