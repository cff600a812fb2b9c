// Package ws streams the reliability board to browser clients.
//
// The hub is mounted at /ws/stream. Every client receives the current board
// on connect and again on each broadcast tick:
//
//	{
//	  "event": "board",
//	  "data":  { /* same schema as GET /api/v1/snapshot */ }
//	}
//
// Clients that cannot keep up with the broadcast rate are disconnected.
package ws
