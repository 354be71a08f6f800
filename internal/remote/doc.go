// Package remote contains the clients used during a sync pass: the HTTP API
// client for attempt inserts and SRS schedule upserts, and the object-storage
// uploader for audio clips. Failures from both are mapped onto the shared
// error taxonomy so the orchestrator can separate retryable from terminal.
package remote
