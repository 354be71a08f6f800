// Package preflight validates the runtime environment before the daemon or
// CLI start doing work: directory access, API credentials, and storage
// configuration.
package preflight
