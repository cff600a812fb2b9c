package asset

import (
	"fmt"
	"sort"
	"sync"

	"github.com/reliabilitypro/reliabilitypro/pkg/types"
)

// Catalog is an in-memory asset lookup keyed by tag.
// It is safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	assets map[string]*Asset
}

// NewCatalog builds a catalog from specs. The first invalid spec aborts
// construction.
func NewCatalog(specs []Spec) (*Catalog, error) {
	c := &Catalog{assets: make(map[string]*Asset, len(specs))}
	for _, s := range specs {
		if err := c.Add(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add validates s and registers it, replacing any asset with the same tag.
func (c *Catalog) Add(s Spec) error {
	a, err := New(s)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.assets[a.Tag()] = a
	c.mu.Unlock()
	return nil
}

// Get returns the asset registered under tag.
func (c *Catalog) Get(tag string) (*Asset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.assets[tag]
	if !ok {
		return nil, fmt.Errorf("asset: %q: %w", tag, types.ErrUnknownAsset)
	}
	return a, nil
}

// List returns all assets sorted by tag.
func (c *Catalog) List() []*Asset {
	c.mu.RLock()
	out := make([]*Asset, 0, len(c.assets))
	for _, a := range c.assets {
		out = append(out, a)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Tag() < out[j].Tag() })
	return out
}

// Len returns the number of registered assets.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}

// DefaultSpecs returns the built-in plant catalog.
func DefaultSpecs() []Spec {
	return []Spec{
		{Tag: "P-101", Name: "HC 180-56/2/N (MFO Pump)", PumpType: "Centrifugal", PowerKW: 45, RPM: 1483, RatedVoltage: 380, RatedCurrent: 85, Mounting: Rigid},
		{Tag: "P-102", Name: "KSB RPH EM 80-230", PumpType: "Centrifugal", PowerKW: 18.5, RPM: 2950, RatedVoltage: 380, RatedCurrent: 35.5, Mounting: Rigid},
		{Tag: "P-103", Name: "Blackmer FRA (Vane Pump)", PumpType: "Positive Displacement", PowerKW: 30, RPM: 2956, RatedVoltage: 400, RatedCurrent: 54, Mounting: Rigid},
		{Tag: "P-104", Name: "KSB RPH S6 080-230B", PumpType: "Centrifugal", PowerKW: 15, RPM: 2955, RatedVoltage: 380, RatedCurrent: 29, Mounting: Rigid},
	}
}
