// Package vibration classifies overall velocity readings against ISO 10816-3
// zones and infers likely mechanical faults from their pattern.
//
// Each bearing point is read in three axes (H, V, A). The DE and NDE readings
// of a unit are averaged per axis, giving six rows. Every row is classified
// into Zone A-D from the asset's warning and trip limits; the Zone A boundary
// is ZoneARatio x warning (0.51 by default, 2.3 mm/s at a 4.5 mm/s warning).
//
// Fault rules are heuristics over averaged amplitudes. Without phase or
// spectral data they point at a probable cause, they do not prove one; use
// package spectrum to corroborate.
//
// Augment adds bearing temperatures and the inspector's noise assessment to a
// vibration result.
package vibration
