// Package ipc implements daemon control over JSON-RPC on a Unix domain
// socket. The server wraps the daemon's practice service; the client is used
// by the CLI to reach a running daemon.
package ipc
