package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ErrorResponse is the JSON envelope returned for every failed request.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Error     string    `json:"error"`
	Details   any       `json:"details,omitempty"`
}

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondError writes the error envelope with the given category label and message.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, category, message string) {
	RespondJSON(w, logger, status, ErrorResponse{
		Timestamp: time.Now(),
		Success:   false,
		Message:   message,
		Error:     category,
	})
}

// RespondErrorDetails writes the error envelope with an additional details payload,
// e.g. a per-field validation failure map.
func RespondErrorDetails(w http.ResponseWriter, logger *slog.Logger, status int, category, message string, details any) {
	RespondJSON(w, logger, status, ErrorResponse{
		Timestamp: time.Now(),
		Success:   false,
		Message:   message,
		Error:     category,
		Details:   details,
	})
}

// ParseID extracts and validates the numeric ID from the request path.
// Returns the ID and a boolean indicating success.
func ParseID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	pathValueID := r.PathValue("id")
	id, err := strconv.ParseInt(pathValueID, 10, 64)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Invalid ID: %s", pathValueID))
		return 0, false
	}
	return id, true
}

// ParseDecimal extracts a required decimal query parameter.
// Returns the parsed value and a boolean indicating success.
func ParseDecimal(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string) (decimal.Decimal, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		RespondError(w, logger, http.StatusBadRequest, "Bad Request", fmt.Sprintf("%s url parameter is required", key))
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Invalid %s value: %s", key, value))
		return decimal.Zero, false
	}
	return d, true
}
