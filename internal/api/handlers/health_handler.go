package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/markdave123-py/storagegate/internal/core"
)

type HealthHandler struct {
	storage core.ObjectClient
	log     log.FieldLogger
}

func NewHealthHandler(storage core.ObjectClient, logger log.FieldLogger) *HealthHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &HealthHandler{storage: storage, log: logger}
}

// Healthz reports that the process is serving.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether the storage backend answers.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Ping(r.Context()); err != nil {
		h.log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"kind":       core.KindOf(err).String(),
			"err":        err,
		}).Warn("Storage backend not ready")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
