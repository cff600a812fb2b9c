// Package compute turns collector samples into inspection reports.
//
// The Engine keeps one health.Session per asset so that a domain measured by
// one source (say electrical from a PLC) is still present in the verdict when
// another source (a manual vibration sheet) reports later. It also tracks a
// rolling uptime window per source. Process accepts an injectable time.Time
// so tests are deterministic.
package compute
