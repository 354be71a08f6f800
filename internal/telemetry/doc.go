// Package telemetry holds the in-memory sync metrics hub observed by the UI
// layer.
//
// The hub is an explicitly owned object passed by reference to the sync
// orchestrator, never an ambient singleton. Counters are advisory and reset on
// restart; the queue store remains authoritative for pending and failed
// counts. Subscriber callbacks run synchronously on every mutation.
package telemetry
