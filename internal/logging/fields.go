package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for queue item identifiers.
	FieldItemID = "item_id"
	// FieldItemKind is the standardized structured logging key for queue item kinds (attempt/audio).
	FieldItemKind = "item_kind"
	// FieldChildID is the standardized structured logging key for child identifiers.
	FieldChildID = "child_id"
	// FieldWordID is the standardized structured logging key for word identifiers.
	FieldWordID = "word_id"
	// FieldListID is the standardized structured logging key for list identifiers.
	FieldListID = "list_id"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldRetryCount is the standardized structured logging key for per-item retry counts.
	FieldRetryCount = "retry_count"
	// FieldErrorHint suggests a next step when an operation fails.
	FieldErrorHint = "error_hint"
)
