// Package logging assembles the structured slog loggers used across spellsync.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and defines the standardized field-name constants (component, item id, child
// id, event type) so all components emit data with the same shape. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
