// Package main is the spellsync daemon entrypoint. It loads configuration
// and runs the background sync loop until interrupted.
package main
