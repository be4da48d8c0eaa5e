package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldTransactionID = "transaction_id"
	FieldAmount        = "amount"
	FieldType          = "type"
	FieldBalance       = "balance"
	FieldEmail         = "email"
	FieldCount         = "count"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentSession = "session"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentPrefs   = "prefs"
	ComponentEvents  = "events"
	ComponentNotify  = "notify"
	ComponentWorker  = "worker"
)

// Operations defines standard operation names
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpAdd      = "add"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpWatch    = "watch"
	OpBalance  = "balance"
	OpNotify   = "notify"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
