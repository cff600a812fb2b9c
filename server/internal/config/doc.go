// Package config loads the server-side configuration: the `server:` section
// plus the shared `log:`, `assets:` and `thresholds:` sections of config.yaml
// (the `agent:` key is ignored by the server binary).
//
// Server fields:
//   - HTTPPort          port for the REST API, receiver and WebSocket hub (default 8080)
//   - Auth.Mode         "apikey" or "none"
//   - Auth.KeyEnv       environment variable holding the expected API key
//   - Auth.Header       HTTP header name (default "X-API-Key")
//   - Report.TTL        how long an asset's latest report stays on the board (default 30m)
//   - Session.TTL       idle lifetime of an interactive diagnosis session (default 2h)
//   - BroadcastInterval board push period for WebSocket clients (default 5s)
//   - Metrics           Prometheus endpoint toggle and path (default on, /metrics)
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
