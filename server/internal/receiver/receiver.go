package receiver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/reliabilitypro/reliabilitypro/pkg/asset"
	"github.com/reliabilitypro/reliabilitypro/pkg/report"
	"github.com/reliabilitypro/reliabilitypro/pkg/types"
	"github.com/reliabilitypro/reliabilitypro/server/internal/store"
)

const maxBody = 1 << 20

// Evaluator is notified of every accepted report.
type Evaluator interface {
	Evaluate(r *report.Report)
}

// Recorder records accepted reports as metrics.
type Recorder interface {
	ObserveReport(r *report.Report)
}

// Receiver validates incoming reports and stores them on the board.
type Receiver struct {
	store   *store.Store
	catalog func() *asset.Catalog
	alerts  Evaluator
	metrics Recorder
}

// New creates a Receiver. catalog is consulted per request so a swapped
// catalog takes effect immediately. alerts and metrics may be nil.
func New(st *store.Store, catalog func() *asset.Catalog, alerts Evaluator, metrics Recorder) *Receiver {
	return &Receiver{store: st, catalog: catalog, alerts: alerts, metrics: metrics}
}

type response struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// ServeHTTP handles POST /api/v1/reports.
func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		reply(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var rep report.Report
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&rep); err != nil {
		reply(w, http.StatusBadRequest, "invalid report body: "+err.Error())
		return
	}
	rep.AssetTag = strings.ToUpper(strings.TrimSpace(rep.AssetTag))
	if rep.AssetTag == "" {
		reply(w, http.StatusBadRequest, "asset_tag is required")
		return
	}
	a, err := rc.catalog().Get(rep.AssetTag)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, types.ErrUnknownAsset) {
			status = http.StatusNotFound
		}
		reply(w, status, err.Error())
		return
	}
	rep.AssetTag = a.Tag()

	rc.store.Put(&rep)
	if rc.metrics != nil {
		rc.metrics.ObserveReport(&rep)
	}
	if rc.alerts != nil {
		rc.alerts.Evaluate(&rep)
	}

	slog.Debug("receiver: report stored",
		"asset", rep.AssetTag,
		"source", rep.Source,
		"condition", rep.Condition(),
		"error", rep.ErrorMessage,
	)
	reply(w, http.StatusAccepted, "")
}

func reply(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{OK: status < 300, Message: msg})
}
