package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldCollection  = "collection"
	FieldEntityID    = "entity_id"
	FieldRuleID      = "rule_id"
	FieldPeriodKey   = "period_key"
	FieldAmountCents = "amount_cents"
	FieldSyncStatus  = "sync_status"
	FieldCount       = "count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentTracker   = "tracker"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentSync      = "sync"
	ComponentRecurring = "recurring"
	ComponentRemote    = "remote"
	ComponentCache     = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSync     = "sync"
	OpGenerate = "generate"
	OpMerge    = "merge"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
