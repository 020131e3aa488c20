package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/markdave123-py/storagegate/internal/core"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func statusForKind(kind core.ErrorKind) int {
	switch kind {
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindInvalidInput:
		return http.StatusBadRequest
	case core.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// storageFailure logs err with its detail and answers with a status chosen by
// the error kind. Only routes that read an object pass a notFound message;
// elsewhere a not-found from storage (a missing bucket, say) is a server fault.
func storageFailure(logger log.FieldLogger, w http.ResponseWriter, r *http.Request, err error, op, key, generic, notFound string) {
	kind := core.KindOf(err)
	if kind == core.KindNotFound && notFound == "" {
		kind = core.KindUnknown
	}
	status := statusForKind(kind)

	entry := logger.WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"op":         op,
		"key":        key,
		"kind":       kind.String(),
		"err":        err,
	})

	msg := generic
	switch kind {
	case core.KindNotFound:
		msg = notFound
		entry.Info("Object not found")
	case core.KindInvalidInput:
		msg = "Invalid object key"
		entry.Warn("Rejected storage request")
	default:
		entry.Error("Storage operation failed")
	}
	writeError(w, status, msg)
}

// keyParam returns everything after the route prefix. chi matches on the raw
// path when the request carried escapes, so those are decoded here once.
func keyParam(r *http.Request) string {
	key := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(key); err == nil {
			key = decoded
		}
	}
	return key
}
