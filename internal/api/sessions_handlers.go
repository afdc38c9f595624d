package api

import (
	"errors"
	"net/http"
	"time"

	"courseware/internal/storage"
)

type createSessionRequest struct {
	ID              *int64     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	StartsAt        *time.Time `json:"startsAt"`
	DurationMinutes int        `json:"durationMinutes"`
	Location        string     `json:"location"`
}

type updateSessionRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	StartsAt        *time.Time `json:"startsAt"`
	DurationMinutes *int       `json:"durationMinutes"`
	Location        *string    `json:"location"`
}

func (h *Handler) sessions(w http.ResponseWriter, r *http.Request, courseID int64) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := h.Store.ListSessions(r.Context(), courseID)
		if err != nil {
			writeStorageError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
	case http.MethodPost:
		var req createSessionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeLocalizedError(w, r, http.StatusBadRequest, msgInvalidPayload)
			return
		}
		if req.ID == nil || *req.ID <= 0 {
			writeLocalizedError(w, r, http.StatusBadRequest, msgInvalidID)
			return
		}
		session, err := h.Store.CreateSession(r.Context(), courseID, storage.CreateSessionParams{
			ID:              *req.ID,
			Title:           req.Title,
			Description:     req.Description,
			StartsAt:        req.StartsAt,
			DurationMinutes: req.DurationMinutes,
			Location:        req.Location,
		})
		if err != nil {
			writeStorageError(w, r, err)
			return
		}
		h.Metrics.RecordSessionEvent("created")
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message": localize(r, msgSessionCreated),
			"session": session,
		})
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (h *Handler) sessionByID(w http.ResponseWriter, r *http.Request, courseID, sessionID int64) {
	switch r.Method {
	case http.MethodPut:
		var req updateSessionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeLocalizedError(w, r, http.StatusBadRequest, msgInvalidPayload)
			return
		}
		session, err := h.Store.UpdateSession(r.Context(), courseID, sessionID, storage.SessionUpdate{
			Title:           req.Title,
			Description:     req.Description,
			StartsAt:        req.StartsAt,
			DurationMinutes: req.DurationMinutes,
			Location:        req.Location,
		})
		if err != nil {
			writeStorageError(w, r, err)
			return
		}
		h.Metrics.RecordSessionEvent("updated")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": localize(r, msgSessionUpdated),
			"session": session,
		})
	case http.MethodDelete:
		if err := h.Store.DeleteSession(r.Context(), courseID, sessionID); err != nil {
			writeStorageError(w, r, err)
			return
		}
		h.Metrics.RecordSessionEvent("deleted")
		writeJSON(w, http.StatusOK, map[string]string{
			"message": localize(r, msgSessionDeleted),
		})
	default:
		w.Header().Set("Allow", "PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}
