package compute

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/reliabilitypro/reliabilitypro/agent/internal/collector"
	"github.com/reliabilitypro/reliabilitypro/pkg/asset"
	"github.com/reliabilitypro/reliabilitypro/pkg/electrical"
	"github.com/reliabilitypro/reliabilitypro/pkg/health"
	"github.com/reliabilitypro/reliabilitypro/pkg/hydraulic"
	"github.com/reliabilitypro/reliabilitypro/pkg/vibration"
)

// baseTime is a fixed reference point so all test timings are deterministic.
var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// tick returns baseTime advanced by n minutes.
func tick(n int) time.Time {
	return baseTime.Add(time.Duration(n) * time.Minute)
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	cat, err := asset.NewCatalog(asset.DefaultSpecs())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return NewEngine(cat, health.DefaultConfig())
}

func quiet() *vibration.Readings {
	p := vibration.Point{H: 0.5, V: 0.5, A: 0.5}
	return &vibration.Readings{DriverDE: p, DriverNDE: p, DrivenDE: p, DrivenNDE: p}
}

func balanced() *electrical.Readings {
	return &electrical.Readings{
		Voltages: [3]float64{380, 380, 380},
		Currents: [3]float64{60, 60, 60},
	}
}

func TestEngine_QuietAssetIsGood(t *testing.T) {
	e := newEngine(t)
	out := e.Process(&collector.Sample{SourceID: "sheet", AssetTag: "P-101", Vibration: quiet()}, tick(0))

	if out.ErrorMessage != "" {
		t.Fatalf("ErrorMessage = %q", out.ErrorMessage)
	}
	if out.AssetTag != "P-101" || out.Source != "sheet" {
		t.Errorf("report identity = %s/%s", out.AssetTag, out.Source)
	}
	if !out.Timestamp.Equal(tick(0)) {
		t.Errorf("Timestamp = %v, want %v", out.Timestamp, tick(0))
	}
	if out.Condition() != health.ConditionGood {
		t.Errorf("Condition = %s, want GOOD", out.Condition())
	}
	if out.Vibration == nil {
		t.Error("Vibration = nil")
	}
	if out.UptimePct != 100 {
		t.Errorf("UptimePct = %v, want 100", out.UptimePct)
	}
}

func TestEngine_MergesDomainsAcrossSources(t *testing.T) {
	e := newEngine(t)
	e.Process(&collector.Sample{SourceID: "plc", AssetTag: "P-101", Electrical: balanced()}, tick(0))
	out := e.Process(&collector.Sample{SourceID: "sheet", AssetTag: "P-101", Vibration: quiet()}, tick(1))

	if out.Electrical == nil {
		t.Error("Electrical from earlier source missing")
	}
	if out.Vibration == nil {
		t.Error("Vibration missing")
	}
	if out.Source != "sheet" {
		t.Errorf("Source = %q, want sheet", out.Source)
	}
}

func TestEngine_CollectionFailure(t *testing.T) {
	e := newEngine(t)
	e.Process(&collector.Sample{SourceID: "plc", AssetTag: "P-101", Electrical: balanced()}, tick(0))
	out := e.Process(&collector.Sample{SourceID: "plc", AssetTag: "P-101", Err: errors.New("connect: refused")}, tick(1))

	if !strings.Contains(out.ErrorMessage, "refused") {
		t.Errorf("ErrorMessage = %q", out.ErrorMessage)
	}
	if out.UptimePct != 50 {
		t.Errorf("UptimePct = %v, want 50", out.UptimePct)
	}
	if out.Electrical == nil {
		t.Error("previous electrical result should be kept")
	}
}

func TestEngine_UnknownAsset(t *testing.T) {
	e := newEngine(t)
	out := e.Process(&collector.Sample{SourceID: "x", AssetTag: "P-999", Vibration: quiet()}, tick(0))
	if out.ErrorMessage == "" {
		t.Fatal("ErrorMessage empty for unknown asset")
	}
	if out.Verdict != nil {
		t.Error("Verdict should be nil for unknown asset")
	}
}

func TestEngine_RejectedMeasurement(t *testing.T) {
	e := newEngine(t)
	bad := quiet()
	bad.DriverDE.H = -1

	out := e.Process(&collector.Sample{SourceID: "sheet", AssetTag: "P-101", Vibration: bad, Electrical: balanced()}, tick(0))
	if out.ErrorMessage == "" {
		t.Error("ErrorMessage empty for negative velocity")
	}
	if out.Vibration != nil {
		t.Error("rejected vibration should not be recorded")
	}
	if out.Electrical == nil {
		t.Error("valid electrical domain should still run")
	}
}

func TestEngine_HydraulicNeedsDesign(t *testing.T) {
	e := newEngine(t)
	r := &hydraulic.Readings{SuctionBar: 1.5, DischargeBar: 4.5}

	out := e.Process(&collector.Sample{SourceID: "plc", AssetTag: "P-101", Hydraulic: r}, tick(0))
	if !strings.Contains(out.ErrorMessage, "design") {
		t.Errorf("ErrorMessage = %q, want design point error", out.ErrorMessage)
	}

	d := &hydraulic.Design{SpecificGravity: 1, HeadM: 31.5}
	out = e.Process(&collector.Sample{SourceID: "plc", AssetTag: "P-101", Hydraulic: r, Design: d}, tick(1))
	if out.ErrorMessage != "" {
		t.Fatalf("ErrorMessage = %q", out.ErrorMessage)
	}
	if out.Hydraulic == nil {
		t.Error("Hydraulic = nil")
	}
}

func TestEngine_UptimeWindow(t *testing.T) {
	e := newEngine(t)
	for i := 0; i < 10; i++ {
		e.Process(&collector.Sample{SourceID: "plc", AssetTag: "P-101", Err: errors.New("down")}, tick(i))
	}
	var last float64
	for i := 0; i < uptimeWindow; i++ {
		last = e.Process(&collector.Sample{SourceID: "plc", AssetTag: "P-101", Electrical: balanced()}, tick(10+i)).UptimePct
	}
	if last != 100 {
		t.Errorf("UptimePct after full window of successes = %v, want 100", last)
	}
}

func TestEngine_UptimeIsPerSource(t *testing.T) {
	e := newEngine(t)
	e.Process(&collector.Sample{SourceID: "a", AssetTag: "P-101", Err: errors.New("down")}, tick(0))
	out := e.Process(&collector.Sample{SourceID: "b", AssetTag: "P-101", Vibration: quiet()}, tick(1))
	if out.UptimePct != 100 {
		t.Errorf("UptimePct = %v, want 100", out.UptimePct)
	}
}

func TestEngine_Reconfigure(t *testing.T) {
	e := newEngine(t)
	e.Process(&collector.Sample{SourceID: "plc", AssetTag: "P-101", Electrical: balanced()}, tick(0))
	if got := len(e.Assets()); got != 1 {
		t.Fatalf("Assets() = %d, want 1", got)
	}

	cat, err := asset.NewCatalog(asset.DefaultSpecs()[1:])
	if err != nil {
		t.Fatal(err)
	}
	e.Reconfigure(cat, health.DefaultConfig())
	if got := len(e.Assets()); got != 0 {
		t.Errorf("Assets() after reconfigure = %d, want 0", got)
	}

	out := e.Process(&collector.Sample{SourceID: "plc", AssetTag: "P-101", Electrical: balanced()}, tick(1))
	if out.ErrorMessage == "" {
		t.Error("P-101 should be unknown after it left the catalog")
	}
}
