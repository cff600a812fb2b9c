// Package health merges the per-domain results into one asset verdict.
//
// Synthesizer.Assess applies a top-down hierarchy: CRITICAL when vibration
// is in Zone D, the electrical status is CRITICAL, the hottest bearing is
// above 90°C or a MAJOR physical issue was found; WARNING for Zone C, an
// electrical WARNING, a bearing above 75°C, any physical issue or any domain
// fault; GOOD otherwise. Recommendations are picked by keyword from the fault
// names and are never empty.
//
// Session holds the latest result of each domain for one asset so domains
// can be run in any order before asking for the Verdict. A Session is not
// safe for concurrent use; callers serialise access.
//
// Config bundles every analyzer's thresholds for YAML configuration.
package health
