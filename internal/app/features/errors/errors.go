// internal/app/features/errors/errors.go
//
// Package errors renders API error bodies and logs server-side failures.
// Every error response is {"message": "..."}; internal details stay in the
// log.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error response.
type Body struct {
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg} with the given status.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Body{Message: msg})
}

// ErrorLogger logs a failure with request context and writes the public
// message.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs err at Error and answers 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Error(msg, append(requestFields(r), zap.Error(err))...)
	WriteMessage(w, http.StatusInternalServerError, userMsg)
}

// LogBadRequest logs err at Debug and answers 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Debug(msg, append(requestFields(r), zap.Error(err))...)
	WriteMessage(w, http.StatusBadRequest, userMsg)
}

// NotFound answers unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteMessage(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed answers routes matched with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func requestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	return fields
}
