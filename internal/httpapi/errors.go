package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"offersearch-engine/internal/dispatch"
	"offersearch-engine/internal/gateway"
	"offersearch-engine/internal/scrape"
)

type APIError struct {
	Error struct {
		Code      string   `json:"code"`
		Message   string   `json:"message"`
		RequestID string   `json:"request_id,omitempty"`
		Sources   []string `json:"sources,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// WriteDomainError maps the engine's typed failures onto status codes.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		us *dispatch.UnsupportedSourceError
		hq *scrape.HostQueryError
		ru *gateway.RemoteUnavailableError
	)
	switch {
	case errors.As(err, &us):
		var e APIError
		e.Error.Code = "unsupported_source"
		e.Error.Message = err.Error()
		e.Error.RequestID = RequestIDFrom(r.Context())
		e.Error.Sources = us.Known
		WriteJSON(w, http.StatusUnprocessableEntity, e)
	case errors.As(err, &hq):
		WriteError(w, r, http.StatusUnprocessableEntity, "host_query_failure", err.Error())
	case errors.As(err, &ru):
		WriteError(w, r, http.StatusBadGateway, "remote_unavailable", err.Error())
	default:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
