// Package daemon ties the pieces together for background operation: the
// queue store, the sync orchestrator, the connectivity monitor, and the
// single-instance lock. The IPC server exposes its practice service to the
// CLI.
package daemon
