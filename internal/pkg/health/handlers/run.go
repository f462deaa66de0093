package handlers

import (
	"log/slog"
	"net/http"
)

// Trigger starts a season run in the background. It reports false when a run
// is already in progress.
type Trigger func() bool

// NewRunHandler handles POST /run.
func NewRunHandler(trigger Trigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if trigger == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "manual runs are disabled"})
			return
		}
		if !trigger() {
			writeJSON(w, http.StatusConflict, map[string]string{"status": "already running"})
			return
		}
		slog.Info("Manual season run triggered", "remote", r.RemoteAddr)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
	}
}
