package handlers

import (
	"database/sql"
	"net/http"
)

// Health reports service liveness.
type Health struct {
	DB *sql.DB
}

func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
