// Package workouttest provides an in-memory implementation of the workout
// stores for tests.
package workouttest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/claude/splitlog/internal/models"
	"github.com/claude/splitlog/internal/workout"
	"github.com/google/uuid"
)

type recordKey struct {
	userID     int
	exerciseID uuid.UUID
}

// Store keeps sessions, logs, records and plans in maps. The Err fields let a
// test force a single store call to fail.
type Store struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*models.WorkoutSession
	logs      map[uuid.UUID]*models.WorkoutLog
	records   map[recordKey]*models.PersonalRecord
	plans     map[uuid.UUID]*models.DayPlan
	exercises map[string]uuid.UUID

	Now func() time.Time

	CreateLogErr     error
	UpsertRecordErr  error
	DeleteSessionErr error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		sessions:  make(map[uuid.UUID]*models.WorkoutSession),
		logs:      make(map[uuid.UUID]*models.WorkoutLog),
		records:   make(map[recordKey]*models.PersonalRecord),
		plans:     make(map[uuid.UUID]*models.DayPlan),
		exercises: make(map[string]uuid.UUID),
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// Stores exposes the store through the workout repository interfaces.
func (s *Store) Stores() workout.Stores {
	return workout.Stores{
		Sessions: sessionStore{s},
		Logs:     logStore{s},
		Records:  recordStore{s},
		Plans:    planStore{s},
	}
}

// AddPlan seeds a split with one day holding the named exercises in order.
func (s *Store) AddPlan(dayName string, exercises ...string) models.DayPlan {
	s.mu.Lock()
	defer s.mu.Unlock()

	split := models.Split{ID: uuid.New(), Name: dayName + " split"}
	plan := &models.DayPlan{
		Split: split,
		Day:   models.SplitDay{ID: uuid.New(), SplitID: split.ID, Name: dayName},
	}
	for i, name := range exercises {
		plan.Exercises = append(plan.Exercises, models.DayExercise{
			ExerciseID:  s.exerciseLocked(name, ""),
			Name:        name,
			Position:    i,
			TargetSets:  3,
			TargetReps:  10,
			RestSeconds: 90,
		})
	}
	s.plans[plan.Day.ID] = plan
	return clonePlan(plan)
}

// AddRecord seeds a personal record.
func (s *Store) AddRecord(pr models.PersonalRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pr.ID == uuid.Nil {
		pr.ID = uuid.New()
	}
	s.records[recordKey{pr.UserID, pr.ExerciseID}] = &pr
}

// AddLog seeds a workout log.
func (s *Store) AddLog(log models.WorkoutLog) models.WorkoutLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	s.logs[log.ID] = cloneLog(&log)
	return log
}

// Session returns a copy of a stored session.
func (s *Store) Session(id uuid.UUID) (models.WorkoutSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return models.WorkoutSession{}, false
	}
	return cloneSession(sess), true
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// LogCount returns the number of stored logs.
func (s *Store) LogCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

// Record returns the stored record for a user and exercise.
func (s *Store) Record(userID int, exerciseID uuid.UUID) (models.PersonalRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, ok := s.records[recordKey{userID, exerciseID}]
	if !ok {
		return models.PersonalRecord{}, false
	}
	return *pr, true
}

// RecordCount returns the number of stored records.
func (s *Store) RecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) exerciseLocked(name, equipment string) uuid.UUID {
	key := name + "\x00" + equipment
	if id, ok := s.exercises[key]; ok {
		return id
	}
	id := uuid.New()
	s.exercises[key] = id
	return id
}

func (s *Store) detailLocked(sess *models.WorkoutSession) *models.SessionDetail {
	d := &models.SessionDetail{WorkoutSession: cloneSession(sess)}
	if plan, ok := s.plans[sess.DayID]; ok {
		d.Split = plan.Split
		d.Day = plan.Day
		d.Exercises = append([]models.DayExercise(nil), plan.Exercises...)
	}
	return d
}

// sessionStore implements workout.SessionStore.
type sessionStore struct{ s *Store }

func (st sessionStore) Create(_ context.Context, sess *models.WorkoutSession) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	for _, existing := range st.s.sessions {
		if existing.UserID == sess.UserID {
			return fmt.Errorf("%w: user %d already has a session", workout.ErrConflict, sess.UserID)
		}
	}
	c := cloneSession(sess)
	st.s.sessions[sess.ID] = &c
	return nil
}

func (st sessionStore) Update(_ context.Context, id uuid.UUID, patch models.SessionPatch) (*models.WorkoutSession, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	sess, ok := st.s.sessions[id]
	if !ok {
		return nil, workout.ErrNotFound
	}
	workout.ApplyPatch(sess, patch)
	sess.LastUpdatedAt = st.s.Now()
	c := cloneSession(sess)
	return &c, nil
}

func (st sessionStore) Delete(_ context.Context, id uuid.UUID) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if st.s.DeleteSessionErr != nil {
		return st.s.DeleteSessionErr
	}
	if _, ok := st.s.sessions[id]; !ok {
		return workout.ErrNotFound
	}
	delete(st.s.sessions, id)
	return nil
}

func (st sessionStore) FindByID(_ context.Context, id uuid.UUID) (*models.WorkoutSession, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	sess, ok := st.s.sessions[id]
	if !ok {
		return nil, workout.ErrNotFound
	}
	c := cloneSession(sess)
	return &c, nil
}

func (st sessionStore) FindByIDWithDetails(_ context.Context, id uuid.UUID) (*models.SessionDetail, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	sess, ok := st.s.sessions[id]
	if !ok {
		return nil, workout.ErrNotFound
	}
	return st.s.detailLocked(sess), nil
}

func (st sessionStore) FindActiveByUserID(_ context.Context, userID int) (*models.WorkoutSession, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	for _, sess := range st.s.sessions {
		if sess.UserID == userID {
			c := cloneSession(sess)
			return &c, nil
		}
	}
	return nil, nil
}

func (st sessionStore) FindActiveByUserIDWithDetails(_ context.Context, userID int) (*models.SessionDetail, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	for _, sess := range st.s.sessions {
		if sess.UserID == userID {
			return st.s.detailLocked(sess), nil
		}
	}
	return nil, nil
}

func (st sessionStore) IsOwnedByUser(_ context.Context, id uuid.UUID, userID int) (bool, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	sess, ok := st.s.sessions[id]
	return ok && sess.UserID == userID, nil
}

func (st sessionStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	_, ok := st.s.sessions[id]
	return ok, nil
}

func (st sessionStore) AppendSet(_ context.Context, sessionID uuid.UUID, set models.CompletedSet) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	sess, ok := st.s.sessions[sessionID]
	if !ok {
		return workout.ErrNotFound
	}
	if sess.HasSet(set.ExerciseIndex, set.SetIndex) {
		return workout.ErrConflict
	}
	sess.CompletedSets = append(sess.CompletedSets, set)
	sess.LastUpdatedAt = st.s.Now()
	return nil
}

// logStore implements workout.LogStore.
type logStore struct{ s *Store }

func (st logStore) CreateWithExercises(_ context.Context, log *models.WorkoutLog) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if st.s.CreateLogErr != nil {
		return st.s.CreateLogErr
	}
	if _, ok := st.s.logs[log.ID]; ok {
		return workout.ErrConflict
	}
	st.s.logs[log.ID] = cloneLog(log)
	return nil
}

func (st logStore) FindByID(_ context.Context, id uuid.UUID) (*models.WorkoutLog, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	log, ok := st.s.logs[id]
	if !ok {
		return nil, workout.ErrNotFound
	}
	c := cloneLog(log)
	c.Exercises = nil
	return c, nil
}

func (st logStore) FindByIDWithDetails(_ context.Context, id uuid.UUID) (*models.WorkoutLog, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	log, ok := st.s.logs[id]
	if !ok {
		return nil, workout.ErrNotFound
	}
	return cloneLog(log), nil
}

func (st logStore) FindByUserID(_ context.Context, userID, limit int) ([]models.WorkoutLog, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	out := st.s.userLogsLocked(userID, func(*models.WorkoutLog) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (st logStore) FindByUserIDAndDateRange(_ context.Context, userID int, start, end time.Time) ([]models.WorkoutLog, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	return st.s.userLogsLocked(userID, func(l *models.WorkoutLog) bool {
		return !l.CompletedAt.Before(start) && l.CompletedAt.Before(end)
	}), nil
}

// userLogsLocked returns matching logs without sets, newest first.
func (s *Store) userLogsLocked(userID int, keep func(*models.WorkoutLog) bool) []models.WorkoutLog {
	var out []models.WorkoutLog
	for _, l := range s.logs {
		if l.UserID != userID || !keep(l) {
			continue
		}
		c := cloneLog(l)
		c.Exercises = nil
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out
}

func (st logStore) Update(_ context.Context, id uuid.UUID, notes string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	log, ok := st.s.logs[id]
	if !ok {
		return workout.ErrNotFound
	}
	log.Notes = notes
	return nil
}

func (st logStore) Delete(_ context.Context, id uuid.UUID) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if _, ok := st.s.logs[id]; !ok {
		return workout.ErrNotFound
	}
	delete(st.s.logs, id)
	for _, pr := range st.s.records {
		if pr.LogID != nil && *pr.LogID == id {
			pr.LogID = nil
		}
	}
	return nil
}

func (st logStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	_, ok := st.s.logs[id]
	return ok, nil
}

func (st logStore) IsOwnedByUser(_ context.Context, id uuid.UUID, userID int) (bool, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	log, ok := st.s.logs[id]
	return ok && log.UserID == userID, nil
}

func (st logStore) GetUserStats(_ context.Context, userID int, now time.Time) (*models.UserStats, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	stats := &models.UserStats{}
	var dates []time.Time
	for _, l := range st.s.logs {
		if l.UserID != userID {
			continue
		}
		stats.TotalWorkouts++
		stats.TotalDuration += l.DurationMinutes
		dates = append(dates, l.CompletedAt)
		if stats.LastWorkoutDate == nil || l.CompletedAt.After(*stats.LastWorkoutDate) {
			t := l.CompletedAt
			stats.LastWorkoutDate = &t
		}
	}
	if stats.TotalWorkouts > 0 {
		stats.AverageDuration = float64(stats.TotalDuration) / float64(stats.TotalWorkouts)
	}
	stats.CurrentStreak = workout.CurrentStreak(dates, now)
	return stats, nil
}

func (st logStore) FindExerciseHistory(_ context.Context, userID int, exerciseID uuid.UUID, limit int) ([]models.ExerciseHistoryEntry, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	var out []models.ExerciseHistoryEntry
	for _, l := range st.s.logs {
		if l.UserID != userID {
			continue
		}
		for _, ex := range l.Exercises {
			if ex.ExerciseID != exerciseID {
				continue
			}
			for _, set := range ex.Sets {
				out = append(out, models.ExerciseHistoryEntry{
					LogID:       l.ID,
					CompletedAt: l.CompletedAt,
					SetIndex:    set.SetIndex,
					Weight:      set.Weight,
					Reps:        set.Reps,
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].SetIndex < out[j].SetIndex
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (st logStore) HasCompletedWorkoutForSplit(_ context.Context, userID int, splitID uuid.UUID) (bool, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	for _, l := range st.s.logs {
		if l.UserID == userID && l.SplitID != nil && *l.SplitID == splitID {
			return true, nil
		}
	}
	return false, nil
}

// recordStore implements workout.RecordStore.
type recordStore struct{ s *Store }

func (st recordStore) FindByID(_ context.Context, id uuid.UUID) (*models.PersonalRecord, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	for _, pr := range st.s.records {
		if pr.ID == id {
			c := *pr
			return &c, nil
		}
	}
	return nil, workout.ErrNotFound
}

func (st recordStore) FindByUserIDAndExerciseID(_ context.Context, userID int, exerciseID uuid.UUID) (*models.PersonalRecord, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	pr, ok := st.s.records[recordKey{userID, exerciseID}]
	if !ok {
		return nil, nil
	}
	c := *pr
	return &c, nil
}

func (st recordStore) FindByUserID(_ context.Context, userID int) ([]models.PersonalRecord, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	var out []models.PersonalRecord
	for _, pr := range st.s.records {
		if pr.UserID == userID {
			out = append(out, *pr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OneRepMax > out[j].OneRepMax })
	return out, nil
}

func (st recordStore) Upsert(_ context.Context, pr *models.PersonalRecord) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if st.s.UpsertRecordErr != nil {
		return st.s.UpsertRecordErr
	}
	c := *pr
	st.s.records[recordKey{pr.UserID, pr.ExerciseID}] = &c
	return nil
}

func (st recordStore) Delete(_ context.Context, id uuid.UUID) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	for k, pr := range st.s.records {
		if pr.ID == id {
			delete(st.s.records, k)
			return nil
		}
	}
	return workout.ErrNotFound
}

func (st recordStore) IsOwnedByUser(_ context.Context, id uuid.UUID, userID int) (bool, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	for _, pr := range st.s.records {
		if pr.ID == id {
			return pr.UserID == userID, nil
		}
	}
	return false, nil
}

// planStore implements workout.PlanStore.
type planStore struct{ s *Store }

func (st planStore) FindDayPlan(_ context.Context, splitID, dayID uuid.UUID) (*models.DayPlan, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	plan, ok := st.s.plans[dayID]
	if !ok || plan.Split.ID != splitID {
		return nil, fmt.Errorf("%w: split day %s", workout.ErrNotFound, dayID)
	}
	c := clonePlan(plan)
	return &c, nil
}

func (st planStore) FindOrCreateExercise(_ context.Context, name, equipment string) (uuid.UUID, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	return st.s.exerciseLocked(name, equipment), nil
}

func cloneSession(s *models.WorkoutSession) models.WorkoutSession {
	c := *s
	if s.RestRemainingSeconds != nil {
		v := *s.RestRemainingSeconds
		c.RestRemainingSeconds = &v
	}
	if s.PausedAt != nil {
		t := *s.PausedAt
		c.PausedAt = &t
	}
	c.CompletedSets = append([]models.CompletedSet(nil), s.CompletedSets...)
	return c
}

func cloneLog(l *models.WorkoutLog) *models.WorkoutLog {
	c := *l
	c.Exercises = nil
	for _, ex := range l.Exercises {
		ex.Sets = append([]models.LogSet(nil), ex.Sets...)
		c.Exercises = append(c.Exercises, ex)
	}
	return &c
}

func clonePlan(p *models.DayPlan) models.DayPlan {
	c := *p
	c.Exercises = append([]models.DayExercise(nil), p.Exercises...)
	return c
}
