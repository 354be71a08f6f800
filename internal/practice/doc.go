// Package practice is the application surface: it validates and queues
// attempts and audio clips, grades typed answers, exposes queue status, and
// drives manual sync passes. The CLI and the daemon's IPC handlers both sit
// on top of this package.
package practice
