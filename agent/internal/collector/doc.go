// Package collector gathers one asset's field measurements per inspection
// cycle and normalises them into a Sample.
//
// Implemented collectors:
//   - file: a YAML measurement sheet filled in by the inspector (file.go)
//   - prometheus: transmitter values from a text exposition endpoint, one
//     metric selector per canonical point key (prometheus.go)
//   - opcua: a single Read of the configured node ids from a PLC or DCS
//     (opcua.go)
//
// The prometheus and opcua collectors produce a flat map of canonical point
// keys (driver_de_h, voltage_l1, suction_bar, temp_driver_de, ...) which
// FromPoints assembles into domain readings. Factory: New(config.Source).
//
// A collector that cannot reach its source returns a Sample with Err set
// rather than an error, so the compute engine can count the cycle against
// uptime.
package collector
