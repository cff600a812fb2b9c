// Package asset holds pump/motor nameplate data and the vibration severity
// limits derived from it.
//
// Limits follow a simplified two-tier reading of ISO 10816-3: the machine
// group is picked by rated power (15 kW boundary) unless overridden, and the
// mounting class selects the column. Limits are computed once in New and the
// Asset is read-only afterwards.
//
// Catalog is a concurrency-safe in-memory lookup by tag. DefaultSpecs returns
// the four field assets used when no catalog is configured.
package asset
