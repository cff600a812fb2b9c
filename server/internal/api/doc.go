// Package api implements the HTTP REST API of the reliability server.
//
// New(deps) returns an http.Handler that serves:
//
//	GET    /api/v1/health                    worst condition, per-condition counts
//	GET    /api/v1/assets                    every catalog asset with its latest report
//	GET    /api/v1/assets/{tag}              single asset; 404 if not in the catalog
//	GET    /api/v1/catalog                   nameplate data and derived ISO limits
//	GET    /api/v1/snapshot                  board dump (also streamed on /ws/stream)
//	GET    /api/v1/alerts                    firing alerts
//	POST   /api/v1/diagnose                  stateless full inspection, returns a report
//	POST   /api/v1/sessions                  open an inspection session for an asset
//	POST   /api/v1/sessions/{id}/{domain}    run vibration|electrical|hydraulic|spectrum|visual
//	GET    /api/v1/sessions/{id}/verdict     verdict over the domains run so far
//	DELETE /api/v1/sessions/{id}             discard a session
//
// Invalid measurements and specifications map to 400, unknown assets and
// sessions to 404. Handlers reply with JSON bodies.
package api
