package log

// Field names shared by every log line.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldBatchID       = "batch_id"
	FieldFilename      = "filename"
	FieldRows          = "rows"
	FieldLabel         = "label"
	FieldLabels        = "labels"
	FieldAccount       = "account"
	FieldTag           = "tag"
	FieldFile          = "file"
	FieldReason        = "reason"
	FieldVectorizerDim = "vectorizer_dim"
	FieldClassifierDim = "classifier_dim"
)

// Component names.
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentModel      = "model"
	ComponentPredict    = "predict"
	ComponentCategorize = "categorize"
	ComponentAnalytics  = "analytics"
	ComponentForecast   = "forecast"
	ComponentHistory    = "history"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentExport     = "export"
	ComponentCache      = "cache"
	ComponentSecurity   = "security"
	ComponentRateLimit  = "rate_limit"
	ComponentTrace      = "trace"
	ComponentTemplate   = "template"
)

// Operation names.
const (
	OpLoad     = "load"
	OpPredict  = "predict"
	OpBatch    = "categorize_batch"
	OpRecord   = "record"
	OpPublish  = "publish"
	OpExport   = "export"
	OpList     = "list"
	OpParse    = "parse"
	OpValidate = "validate"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Error type categories.
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeData          = "data_error"
	ErrorTypeModel         = "model_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields is a builder for structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError records err and its category. A nil error is ignored.
func (f LogFields) WithError(err error, errorType string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		if errorType != "" {
			f[FieldErrorType] = errorType
		}
	}
	return f
}

func (f LogFields) WithReason(reason string) LogFields {
	f[FieldReason] = reason
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithBatch adds the fields identifying a categorized upload.
func (f LogFields) WithBatch(batchID, filename string, rows int) LogFields {
	if batchID != "" {
		f[FieldBatchID] = batchID
	}
	f[FieldFilename] = filename
	f[FieldRows] = rows
	return f
}

// WithPrediction adds a single prediction's inputs and output.
func (f LogFields) WithPrediction(account, tag, label string) LogFields {
	f[FieldAccount] = account
	f[FieldTag] = tag
	f[FieldLabel] = label
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice flattens the fields into slog key/value pairs.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
