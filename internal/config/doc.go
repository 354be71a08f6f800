// Package config loads, normalizes, and validates the TOML configuration for
// the spellsync daemon and CLI.
//
// Lookup order: an explicit --config path, then ~/.config/spellsync/config.toml,
// then ./spellsync.toml. Missing files fall back to defaults so the CLI works
// out of the box; validation runs on every load.
package config
