package server

import (
	"net/http"
	"time"

	"github.com/claude/splitlog/internal/workout"
)

type updateLogRequest struct {
	Notes *string `json:"notes"`
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, ranged, err := parseTimeRange(r, time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if ranged {
		logs, err := s.svc.LogsBetween(r.Context(), uid, start, end)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, logs)
		return
	}

	logs, err := s.svc.Logs(r.Context(), uid, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	log, err := s.svc.Log(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// handleUpdateLog edits the notes of a finished log. Sets are immutable.
func (s *Server) handleUpdateLog(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateLogRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Notes == nil {
		s.writeError(w, r, &workout.ValidationError{Fields: map[string]string{"notes": "is required"}})
		return
	}
	log, err := s.svc.UpdateLogNotes(r.Context(), id, uid, *req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.DeleteLog(r.Context(), id, uid); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	stats, err := s.svc.Stats(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// defaultVolumeWindow is the range of GET /stats/volume without start/end.
const defaultVolumeWindow = 12 * 7 * 24 * time.Hour

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	bucket := r.URL.Query().Get("bucket")
	switch bucket {
	case "":
		bucket = "week"
	case "week", "month":
	default:
		s.writeError(w, r, &workout.ValidationError{Fields: map[string]string{"bucket": "must be week or month"}})
		return
	}

	now := time.Now().UTC()
	start, end, ranged, err := parseTimeRange(r, now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ranged {
		start, end = now.Add(-defaultVolumeWindow), now
	}

	summary, err := s.db.GetVolumeSummary(r.Context(), uid, start, end, bucket)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	records, err := s.svc.PersonalRecords(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.DeleteRecord(r.Context(), id, uid); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	history, err := s.svc.ExerciseHistory(r.Context(), uid, id, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleSplitCompleted(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	done, err := s.svc.HasCompletedSplit(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"completed": done})
}
