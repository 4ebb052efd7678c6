package errors

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// ErrorHandler provides centralized error handling for HTTP handlers
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger.With(slog.String("component", "error_handler")),
	}
}

// HandleError converts any error to a structured response and writes it
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", w.Header().Get("X-Request-ID")),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	apiErr := h.toAPIError(err)
	if renderErr := render.Render(w, r, apiErr); renderErr != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}

// toAPIError maps the domain taxonomy onto structured API errors
func (h *ErrorHandler) toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return NewWithDetails(http.StatusBadGateway, "UPSTREAM_FETCH_FAILED", fetchErr.Error(), map[string]interface{}{
			"series_id": fetchErr.SeriesID,
			"status":    fetchErr.Status,
		})
	}

	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return NewWithDetails(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", storageErr.Error(), map[string]interface{}{
			"op":  storageErr.Op,
			"key": storageErr.Key,
		})
	}

	var malformedErr *MalformedDataError
	if errors.As(err, &malformedErr) {
		return NewWithDetails(http.StatusInternalServerError, "DATA_CORRUPTED", malformedErr.Error(), map[string]interface{}{
			"commodity": malformedErr.Commodity,
		})
	}

	return InternalError(err)
}
