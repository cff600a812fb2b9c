// Package shipper delivers inspection reports to the reliabilitypro server
// as JSON over HTTP (POST /api/v1/reports).
//
// Shipper.Ship() is non-blocking: reports are placed in an in-memory channel
// (default capacity 1000). When the buffer is full the oldest entry is
// evicted so the latest condition of each asset is always preserved.
//
// Shipper.Run() drains the buffer in a loop, backing off exponentially
// (1s→60s, ±25% jitter) on transport errors and 5xx responses. 4xx
// responses discard the report immediately rather than retrying.
package shipper
