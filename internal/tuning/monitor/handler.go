package monitor

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	monitor *Monitor
	logger  *slog.Logger
}

func NewHandler(m *Monitor) *Handler {
	return &Handler{
		monitor: m,
		logger:  slog.Default().With("component", "sweep-handler"),
	}
}

// List serves every tracked run.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, h.monitor.Runs())
}

// Get serves the run named by the {id} path value.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	run, ok := h.monitor.Get(r.PathValue("id"))
	if !ok {
		h.write(w, http.StatusNotFound, map[string]string{"error": "unknown run"})
		return
	}
	h.write(w, http.StatusOK, run)
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to write sweep response", "error", err)
	}
}
