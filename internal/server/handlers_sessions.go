package server

import (
	"context"
	"io"
	"net/http"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/uuid"
)

type startSessionRequest struct {
	SplitID uuid.UUID `json:"splitId"`
	DayID   uuid.UUID `json:"dayId"`
}

type completeSessionRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req startSessionRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	verr := &workout.ValidationError{Fields: map[string]string{}}
	if req.SplitID == uuid.Nil {
		verr.Fields["splitId"] = "is required"
	}
	if req.DayID == uuid.Nil {
		verr.Fields["dayId"] = "is required"
	}
	if len(verr.Fields) > 0 {
		s.writeError(w, r, verr)
		return
	}

	session, err := s.svc.Start(r.Context(), uid, req.SplitID, req.DayID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// handleActiveSession returns the session with its plan, or null.
func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	detail, err := s.svc.GetActive(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := workout.ParseSnapshot(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.svc.Sync(r.Context(), uid, snap); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var patch models.SessionPatch
	if err := decodeJSON(w, r, &patch, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.svc.Update(r.Context(), id, uid, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleRecordSet(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in models.SetInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	set, err := s.svc.RecordSet(r.Context(), id, uid, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.svc.Pause)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.svc.Resume)
}

func (s *Server) sessionAction(w http.ResponseWriter, r *http.Request,
	action func(ctx context.Context, sessionID uuid.UUID, userID int) (*models.WorkoutSession, error),
) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := action(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req completeSessionRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.svc.Complete(r.Context(), id, uid, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAbandonSession discards the session without writing a log.
func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Abandon(r.Context(), id, uid); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
