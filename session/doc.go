// Package session provides the refresh-session model embedded in user documents
// and the pure functions that decide its lifecycle.
//
// # Expiry
//
// Expiry instants are unix seconds. [HasExpired] uses an exclusive boundary: a
// session whose ExpiresAt equals the current second is already expired.
//
// # Architecture boundaries
//
// This package owns the [Session] model, token lookup and list maintenance
// ([Prune], [Cap]). It does NOT persist sessions, generate tokens, or interpret
// JWT access tokens; those responsibilities belong to the Engine and its stores.
//
// # What this package must NOT do
//
//   - Import courseapp, jwt, or any store package (no upward imports).
//   - Perform I/O.
package session
