// Package main hosts the spellsync CLI entrypoint and command graph.
//
// The Cobra-based command tree records practice results into the local queue,
// inspects queue state, triggers manual syncs against a running daemon, and
// scaffolds configuration. Commands prefer the daemon's IPC socket and fall
// back to direct store access when no daemon is running, so everything keeps
// working offline.
package main
