package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// APIError is the body of every non-2xx JSON response.
type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError sends an APIError tagged with the request's id.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeNotFound reports that no kind called name exists,
// e.g. `no posting "Riot:1"`.
func writeNotFound(w http.ResponseWriter, r *http.Request, kind, name string) {
	WriteError(w, r, http.StatusNotFound, "not_found", "no "+kind+" "+strconv.Quote(name))
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusBadRequest, "bad_request", message)
}
