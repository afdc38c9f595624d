package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"courseware/internal/storage"
)

type createCourseRequest struct {
	ID          *int64 `json:"id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Instructor  string `json:"instructor"`
}

type updateCourseRequest struct {
	Code        *string `json:"code"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Instructor  *string `json:"instructor"`
}

// Courses serves the /api/courses collection.
func (h *Handler) Courses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listCourses(w, r)
	case http.MethodPost:
		h.createCourse(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// CourseRoutes serves everything below /api/courses/: a single course and its
// sessions sub-resource.
func (h *Handler) CourseRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/courses/"), "/")
	if rest == "" {
		h.Courses(w, r)
		return
	}
	parts := strings.Split(rest, "/")

	courseID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || courseID <= 0 {
		writeLocalizedError(w, r, http.StatusBadRequest, msgInvalidID)
		return
	}

	switch {
	case len(parts) == 1:
		h.courseByID(w, r, courseID)
	case len(parts) == 2 && parts[1] == "sessions":
		h.sessions(w, r, courseID)
	case len(parts) == 3 && parts[1] == "sessions":
		sessionID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || sessionID <= 0 {
			writeLocalizedError(w, r, http.StatusBadRequest, msgInvalidID)
			return
		}
		h.sessionByID(w, r, courseID, sessionID)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Store.ListCourses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

func (h *Handler) createCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeLocalizedError(w, r, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if req.ID == nil || *req.ID <= 0 {
		writeLocalizedError(w, r, http.StatusBadRequest, msgInvalidID)
		return
	}

	course, err := h.Store.CreateCourse(r.Context(), storage.CreateCourseParams{
		ID:          *req.ID,
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		Instructor:  req.Instructor,
	})
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	h.Metrics.RecordCourseEvent("created")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": localize(r, msgCourseCreated),
		"course":  course,
	})
}

func (h *Handler) courseByID(w http.ResponseWriter, r *http.Request, id int64) {
	switch r.Method {
	case http.MethodGet:
		course, err := h.Store.GetCourse(r.Context(), id)
		if err != nil {
			writeStorageError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, course)
	case http.MethodPut:
		var req updateCourseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeLocalizedError(w, r, http.StatusBadRequest, msgInvalidPayload)
			return
		}
		course, err := h.Store.UpdateCourse(r.Context(), id, storage.CourseUpdate{
			Code:        req.Code,
			Title:       req.Title,
			Description: req.Description,
			Instructor:  req.Instructor,
		})
		if err != nil {
			writeStorageError(w, r, err)
			return
		}
		h.Metrics.RecordCourseEvent("updated")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": localize(r, msgCourseUpdated),
			"course":  course,
		})
	case http.MethodDelete:
		if err := h.Store.DeleteCourse(r.Context(), id); err != nil {
			writeStorageError(w, r, err)
			return
		}
		h.Metrics.RecordCourseEvent("deleted")
		writeJSON(w, http.StatusOK, map[string]string{
			"message": localize(r, msgCourseDeleted),
		})
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}
