package collector

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reliabilitypro/reliabilitypro/agent/internal/config"
	"github.com/reliabilitypro/reliabilitypro/pkg/electrical"
	"github.com/reliabilitypro/reliabilitypro/pkg/hydraulic"
	"github.com/reliabilitypro/reliabilitypro/pkg/spectrum"
	"github.com/reliabilitypro/reliabilitypro/pkg/vibration"
	"github.com/reliabilitypro/reliabilitypro/pkg/visual"
)

// Sheet is a manual measurement sheet. Every section is optional.
type Sheet struct {
	Asset        string               `yaml:"asset"`
	InspectedAt  time.Time            `yaml:"inspected_at"`
	Vibration    *vibration.Readings  `yaml:"vibration"`
	Temperatures map[string]float64   `yaml:"temperatures"`
	Noise        string               `yaml:"noise"`
	Electrical   *electrical.Readings `yaml:"electrical"`
	Hydraulic    *hydraulic.Readings  `yaml:"hydraulic"`
	Design       *hydraulic.Design    `yaml:"design"`
	Spectrum     []spectrum.Peak      `yaml:"spectrum"`
	Visual       *visual.Checklist    `yaml:"visual"`
}

// ParseSheet decodes a YAML measurement sheet.
func ParseSheet(data []byte) (*Sheet, error) {
	var sh Sheet
	if err := yaml.Unmarshal(data, &sh); err != nil {
		return nil, fmt.Errorf("parse sheet: %w", err)
	}
	return &sh, nil
}

type fileCollector struct {
	src config.Source
}

// Collect re-reads the sheet every cycle so edits are picked up.
func (c *fileCollector) Collect(_ context.Context) (*Sample, error) {
	res := newSample(c.src)

	data, err := os.ReadFile(c.src.Path)
	if err != nil {
		res.Err = fmt.Errorf("file collect %q: %w", c.src.ID, err)
		slog.Warn("collector: sheet read failed", "source", c.src.ID, "path", c.src.Path, "err", err)
		return res, nil
	}
	sh, err := ParseSheet(data)
	if err != nil {
		res.Err = fmt.Errorf("file collect %q: %w", c.src.ID, err)
		return res, nil
	}
	if sh.Asset != "" && sh.Asset != c.src.Asset {
		res.Err = fmt.Errorf("file collect %q: sheet is for asset %q, source is bound to %q", c.src.ID, sh.Asset, c.src.Asset)
		return res, nil
	}
	noise, err := vibration.ParseNoise(sh.Noise)
	if err != nil {
		res.Err = fmt.Errorf("file collect %q: %w", c.src.ID, err)
		return res, nil
	}

	if !sh.InspectedAt.IsZero() {
		res.CollectedAt = sh.InspectedAt.UTC()
	}
	res.Vibration = sh.Vibration
	res.Temperatures = sh.Temperatures
	res.Noise = noise
	res.Electrical = sh.Electrical
	res.Hydraulic = sh.Hydraulic
	res.Design = sh.Design
	if res.Design == nil {
		res.Design = c.src.Hydraulic
	}
	res.Peaks = sh.Spectrum
	res.Visual = sh.Visual
	return res, nil
}
