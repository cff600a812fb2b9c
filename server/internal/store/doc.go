// Package store holds the server's in-memory state: the board (latest
// report per asset, evicted after a TTL) and interactive diagnosis sessions
// keyed by id. Nothing is persisted and no history is kept.
package store
