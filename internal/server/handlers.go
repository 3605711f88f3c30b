package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/splitlog/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.log.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	info := userInfoFromContext(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":      uid,
		"login":        info.Login,
		"display_name": info.DisplayName,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP statuses. Unexpected errors are
// logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *workout.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
	case errors.Is(err, workout.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	case errors.Is(err, workout.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": errorMessage(err)})
	case errors.Is(err, workout.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": errorMessage(err)})
	case errors.Is(err, workout.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": errorMessage(err)})
	case errors.Is(err, workout.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errorMessage(err)})
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// errorMessage returns the innermost message for ownership errors so that
// missing and foreign resources read the same to the client.
func errorMessage(err error) string {
	for _, target := range []error{workout.ErrSessionNotOwned, workout.ErrLogNotOwned, workout.ErrRecordNotOwned} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

// decodeJSON reads a size-limited JSON body into v. An empty body leaves v
// untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: invalid JSON: %v", workout.ErrInvalidInput, err)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, &workout.ValidationError{Fields: map[string]string{name: "must be a valid ID"}}
	}
	return id, nil
}

func queryLimit(r *http.Request) (int, error) {
	l := r.URL.Query().Get("limit")
	if l == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(l)
	if err != nil || n < 0 {
		return 0, &workout.ValidationError{Fields: map[string]string{"limit": "must be a non-negative integer"}}
	}
	return n, nil
}

// parseTimeRange reads optional start/end query parameters (RFC 3339 or
// YYYY-MM-DD). ok is false when neither is present. A date-only end covers
// the whole day.
func parseTimeRange(r *http.Request, now time.Time) (start, end time.Time, ok bool, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" && endStr == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	if startStr == "" {
		return time.Time{}, time.Time{}, false, &workout.ValidationError{Fields: map[string]string{"start": "is required with end"}}
	}
	start, _, err = parseFlexTime(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, false, &workout.ValidationError{Fields: map[string]string{"start": "must be RFC 3339 or YYYY-MM-DD"}}
	}

	if endStr == "" {
		return start, now, true, nil
	}
	var dateOnly bool
	end, dateOnly, err = parseFlexTime(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, false, &workout.ValidationError{Fields: map[string]string{"end": "must be RFC 3339 or YYYY-MM-DD"}}
	}
	if dateOnly {
		end = end.Add(24 * time.Hour)
	}
	return start, end, true, nil
}

func parseFlexTime(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, err
}
