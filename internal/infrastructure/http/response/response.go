package response

import (
	"encoding/json"
	"net/http"

	"github.com/mrops-br/product-catalog-api/internal/app/dto"
)

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a successful envelope
func OK[T any](w http.ResponseWriter, data T, message string) {
	JSON(w, http.StatusOK, dto.Ok(data, message))
}

// Fail sends a failed envelope with optional field errors
func Fail(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	JSON(w, status, dto.Fail(message, fields))
}

// Error sends a failed envelope for err. Server errors hide the cause.
func Error(w http.ResponseWriter, status int, err error) {
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	Fail(w, status, message, nil)
}
