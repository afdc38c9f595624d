package api

import (
	"errors"
	"net/http"

	"courseware/internal/observability/metrics"
	"courseware/internal/storage"
)

type Handler struct {
	Store   storage.Repository
	Metrics *metrics.Recorder
}

func NewHandler(store storage.Repository, recorder *metrics.Recorder) *Handler {
	return &Handler{Store: store, Metrics: recorder}
}

// Health reports datastore reachability. It is wired to GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Metrics.SetDatastoreHealth(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	h.Metrics.SetDatastoreHealth(true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeStorageError maps storage sentinel errors onto HTTP statuses. Other
// errors are treated as rejected input.
func writeStorageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrCourseNotFound):
		writeLocalizedError(w, r, http.StatusNotFound, msgCourseNotFound)
	case errors.Is(err, storage.ErrSessionNotFound):
		writeLocalizedError(w, r, http.StatusNotFound, msgSessionNotFound)
	case errors.Is(err, storage.ErrCourseExists):
		writeLocalizedError(w, r, http.StatusBadRequest, msgCourseExists)
	case errors.Is(err, storage.ErrSessionExists):
		writeLocalizedError(w, r, http.StatusBadRequest, msgSessionExists)
	default:
		writeError(w, http.StatusBadRequest, err)
	}
}
