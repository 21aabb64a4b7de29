package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldYear       = "year"
	FieldRecords    = "records"
	FieldSector     = "sector"
	FieldEmployer   = "employer"
	FieldJobTitle   = "job_title"
	FieldSalary     = "salary"
	FieldCategory   = "category"
	FieldSourceURL  = "source_url"
	FieldEncoding   = "encoding"
	FieldBatchSize  = "batch_size"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentIngest    = "ingest"
	ComponentBudget    = "budget"
	ComponentAnalytics = "analytics"
	ComponentClassify  = "classify"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpFetch      = "fetch"
	OpDecode     = "decode"
	OpIngest     = "ingest"
	OpReconcile  = "reconcile"
	OpClassify   = "classify"
	OpReclassify = "reclassify"
	OpQuery      = "query"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithYear adds the disclosure year field
func (f LogFields) WithYear(year int) LogFields {
	f[FieldYear] = year
	return f
}

// WithIngestion adds ingestion run fields
func (f LogFields) WithIngestion(year, records int, sourceURL string) LogFields {
	f[FieldYear] = year
	f[FieldRecords] = records
	f[FieldSourceURL] = sourceURL
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
