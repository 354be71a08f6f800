// Package services defines the shared error taxonomy consumed by the sync
// orchestrator and the remote API clients.
//
// Failures are tagged with sentinel markers (transient, timeout, auth,
// validation, storage) via Wrap so the orchestrator can decide between
// retry-with-backoff, immediate terminal failure, and fatal surfacing without
// inspecting error strings.
package services
