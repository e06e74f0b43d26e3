package httpapi

import (
	"context"
	"net"
	"net/http"
)

type DBHandler struct {
	Checkpoint func(ctx context.Context) error
}

func isLoopback(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return host == "127.0.0.1" || host == "::1" || host == "localhost"
}

func (h DBHandler) CheckpointWAL(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}
	if h.Checkpoint == nil {
		WriteError(w, r, http.StatusNotImplemented, "unsupported", "state backend has no checkpoint")
		return
	}
	if err := h.Checkpoint(r.Context()); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "checkpoint_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
