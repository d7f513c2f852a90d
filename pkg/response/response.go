package response

import (
	"encoding/json"
	"net/http"

	"github.com/just-nibble/srs-tracker/pkg/errcodes"
)

type successBody struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

type errorBody struct {
	Status  string      `json:"status"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse writes data wrapped in the success envelope.
func SuccessResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, successBody{Status: "success", Data: data})
}

// ErrorResponse writes a plain error message.
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorBody{Status: "error", Code: http.StatusText(statusCode), Message: message})
}

// Error maps err through errcodes and writes it. details is attached
// verbatim when non-nil (analysis diagnostics, for instance).
func Error(w http.ResponseWriter, err error, details interface{}) {
	status := errcodes.HTTPStatus(err)
	writeJSON(w, status, errorBody{
		Status:  "error",
		Code:    errcodes.Code(err),
		Message: err.Error(),
		Details: details,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
