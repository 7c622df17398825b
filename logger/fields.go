package logger

// Standard field names for consistent structured logging across the engine.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Components
	FieldComponent = "component"

	// Documents and elements
	FieldDocument  = "document"
	FieldElement   = "element"
	FieldElementID = "element_id"
	FieldName      = "name"
	FieldQualified = "qualified_name"
	FieldKind      = "kind"

	// Build pipeline
	FieldPhase      = "phase"
	FieldGeneration = "generation"
	FieldBatchSize  = "batch_size"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors and diagnostics
	FieldError       = "error"
	FieldCode        = "code"
	FieldSeverity    = "severity"
	FieldDiagnostics = "diagnostics"

	// Counts and sizes
	FieldCount      = "count"
	FieldTotalCount = "total_count"

	// Files
	FieldFile = "file"
	FieldLine = "line"
)
