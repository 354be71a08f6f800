// Package queue persists practice attempts and recorded audio in SQLite and
// exposes helpers for driving their sync lifecycle.
//
// The Store manages database connections, schema initialization, FIFO pending
// listings, idempotent state transitions (synced/failed/terminal), terminal
// cascades from dead audio to dependent attempts, and the local mirror of SRS
// schedule entries. Enqueue operations never depend on connectivity; they fail
// only on local storage errors, which are fatal and surfaced to the caller.
//
// The database is the single source of truth for pending and failed work.
// Records are deleted only after confirmed remote acceptance, never before.
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package queue
