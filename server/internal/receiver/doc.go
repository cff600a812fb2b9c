// Package receiver implements POST /api/v1/reports, the endpoint that accepts
// inspection reports from reliabilitypro-agent instances.
//
// The receiver checks that asset_tag is present and names a catalog asset
// (400 / 404 otherwise), stores the report on the board, evaluates alert
// rules and records metrics. Authentication is enforced upstream by the auth
// middleware, so the receiver itself only performs structural validation.
package receiver
