package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMXResponseBuilder collects HX-Trigger events, a status and an HTML
// fragment for one response.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       string
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds an event to the HX-Trigger header. Later calls with the same
// name replace the payload.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerBatchCategorized announces a finished upload to the page.
func (b *HTMXResponseBuilder) TriggerBatchCategorized(batchID string, rows int) *HTMXResponseBuilder {
	return b.Trigger("batch:categorized", map[string]any{"batch_id": batchID, "rows": rows})
}

// TriggerHistoryRefresh asks the history panel to reload.
func (b *HTMXResponseBuilder) TriggerHistoryRefresh() *HTMXResponseBuilder {
	return b.Trigger("history:refresh", struct{}{})
}

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// TriggerNotification shows a toast for durationMs milliseconds.
func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger("show-notification", map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": durationMs,
	})
}

// HTML sets a fragment that is written verbatim.
func (b *HTMXResponseBuilder) HTML(fragment string) *HTMXResponseBuilder {
	b.body = fragment
	return b
}

// WriteHeaders sets the HX-Trigger header without committing the status,
// for handlers that render a template afterwards.
func (b *HTMXResponseBuilder) WriteHeaders(w http.ResponseWriter) {
	if len(b.triggers) == 0 {
		return
	}
	if payload, err := json.Marshal(b.triggers); err == nil {
		w.Header().Set("HX-Trigger", string(payload))
	}
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	b.WriteHeaders(w)
	if b.body != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(b.statusCode)
	if b.body != "" {
		_, _ = w.Write([]byte(b.body))
	}
}

// ErrorResponse renders message as an alert and raises an error toast.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		TriggerNotification(NotificationError, message, 5000).
		HTML(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}
