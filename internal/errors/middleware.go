package errors

import (
	"log/slog"
	"net/http"
)

// ErrorMiddleware turns panics into RFC 7807 responses
type ErrorMiddleware struct {
	handler *ErrorHandler
	logger  *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(handler *ErrorHandler, logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		handler: handler,
		logger:  logger.With(slog.String("component", "error_middleware")),
	}
}

// Handler returns the middleware handler function
func (m *ErrorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					m.logger.DebugContext(r.Context(), "handler aborted", slog.String("path", r.URL.Path))
					panic(rec)
				}
				m.handler.HandlePanic(w, r, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
