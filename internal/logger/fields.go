package logger

// Standard field names for structured logging across flowtag.
// Use these constants instead of raw strings to keep keys consistent.
const (
	FieldComponent  = "component"
	FieldOntology   = "ontology"
	FieldRequestID  = "request_id"
	FieldTag        = "tag"
	FieldFlow       = "flow"
	FieldLevel      = "level"
	FieldCount      = "count"
	FieldBatchSize  = "batch_size"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
	FieldPath       = "path"
	FieldBackend    = "backend"
	FieldGram       = "gram"
)
