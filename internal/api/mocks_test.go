package api

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/catalog"
	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/store"
)

// Map-backed store fakes for handler tests. Handlers here run against real
// services, so these only need to satisfy the store contracts: sentinel
// errors on misses, WithTx returning the fake itself.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type passTxRunner struct{}

func (passTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

type memScheduleStore struct {
	schedules map[uuid.UUID]*domain.Schedule
	records   []*domain.AdaptationRecord
}

func newMemScheduleStore() *memScheduleStore {
	return &memScheduleStore{schedules: make(map[uuid.UUID]*domain.Schedule)}
}

func (m *memScheduleStore) Create(_ context.Context, schedule *domain.Schedule) error {
	if schedule.Status == domain.ScheduleStatusActive {
		for _, existing := range m.schedules {
			if existing.UserID == schedule.UserID && existing.Status == domain.ScheduleStatusActive {
				return store.ErrActiveScheduleExists
			}
		}
	}
	clone := *schedule
	m.schedules[schedule.ID] = &clone
	return nil
}

func (m *memScheduleStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Schedule, error) {
	schedule, ok := m.schedules[id]
	if !ok {
		return nil, store.ErrScheduleNotFound
	}
	clone := *schedule
	return &clone, nil
}

func (m *memScheduleStore) GetActiveForUser(_ context.Context, userID uuid.UUID) (*domain.Schedule, error) {
	for _, schedule := range m.schedules {
		if schedule.UserID == userID && schedule.Status == domain.ScheduleStatusActive {
			clone := *schedule
			return &clone, nil
		}
	}
	return nil, store.ErrScheduleNotFound
}

func (m *memScheduleStore) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]*domain.Schedule, error) {
	var result []*domain.Schedule
	for _, schedule := range m.schedules {
		if schedule.UserID == userID {
			clone := *schedule
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memScheduleStore) Update(_ context.Context, schedule *domain.Schedule) error {
	if _, ok := m.schedules[schedule.ID]; !ok {
		return store.ErrScheduleNotFound
	}
	clone := *schedule
	m.schedules[schedule.ID] = &clone
	return nil
}

func (m *memScheduleStore) ArchiveActiveForUser(_ context.Context, userID uuid.UUID) (int, error) {
	archived := 0
	for _, schedule := range m.schedules {
		if schedule.UserID == userID && schedule.Status == domain.ScheduleStatusActive {
			schedule.Status = domain.ScheduleStatusArchived
			archived++
		}
	}
	return archived, nil
}

func (m *memScheduleStore) CreateAdaptationRecord(_ context.Context, record *domain.AdaptationRecord) error {
	m.records = append(m.records, record)
	return nil
}

func (m *memScheduleStore) ListAdaptationRecords(_ context.Context, scheduleID uuid.UUID) ([]*domain.AdaptationRecord, error) {
	var result []*domain.AdaptationRecord
	for _, record := range m.records {
		if record.ScheduleID == scheduleID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (m *memScheduleStore) ListActiveUserIDs(_ context.Context) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	for _, schedule := range m.schedules {
		if schedule.Status == domain.ScheduleStatusActive {
			userIDs = append(userIDs, schedule.UserID)
		}
	}
	return userIDs, nil
}

func (m *memScheduleStore) WithTx(*sql.Tx) store.ScheduleStore { return m }

type memSessionStore struct {
	sessions map[uuid.UUID]*domain.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (m *memSessionStore) CreateBatch(_ context.Context, sessions []*domain.Session) error {
	for _, session := range sessions {
		clone := *session
		m.sessions[session.ID] = &clone
	}
	return nil
}

func (m *memSessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	clone := *session
	return &clone, nil
}

func (m *memSessionStore) ListBySchedule(_ context.Context, scheduleID uuid.UUID) ([]*domain.Session, error) {
	var result []*domain.Session
	for _, session := range m.sessions {
		if session.ScheduleID == scheduleID {
			clone := *session
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartMinute < result[j].StartMinute
	})
	return result, nil
}

func (m *memSessionStore) ListByScheduleAndDate(ctx context.Context, scheduleID uuid.UUID, date time.Time) ([]*domain.Session, error) {
	all, err := m.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	day := domain.DateOnly(date)
	var result []*domain.Session
	for _, session := range all {
		if session.Date.Equal(day) {
			result = append(result, session)
		}
	}
	return result, nil
}

func (m *memSessionStore) UpdateStatusCAS(
	_ context.Context,
	id uuid.UUID,
	from, to domain.SessionStatus,
	mutate func(*domain.Session),
) (*domain.Session, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	if session.Status != from {
		return nil, store.ErrStateConflict
	}
	updated := *session
	if mutate != nil {
		mutate(&updated)
	}
	updated.Status = to
	updated.UpdatedAt = time.Now().UTC()
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	m.sessions[id] = &updated
	clone := updated
	return &clone, nil
}

func (m *memSessionStore) ExpireScheduledBefore(_ context.Context, scheduleID uuid.UUID, before time.Time) (int, error) {
	day := domain.DateOnly(before)
	expired := 0
	for _, session := range m.sessions {
		if session.ScheduleID == scheduleID &&
			session.Status == domain.SessionStatusScheduled &&
			session.Date.Before(day) {
			session.Status = domain.SessionStatusSkipped
			session.SkipReason = domain.SkipReasonMissed
			expired++
		}
	}
	return expired, nil
}

func (m *memSessionStore) WithTx(*sql.Tx) store.SessionStore { return m }

type memSettingsStore struct {
	settings map[uuid.UUID]*domain.Settings
}

func newMemSettingsStore() *memSettingsStore {
	return &memSettingsStore{settings: make(map[uuid.UUID]*domain.Settings)}
}

func (m *memSettingsStore) GetForUser(_ context.Context, userID uuid.UUID) (*domain.Settings, error) {
	settings, ok := m.settings[userID]
	if !ok {
		return nil, store.ErrSettingsNotFound
	}
	clone := *settings
	return &clone, nil
}

func (m *memSettingsStore) Upsert(_ context.Context, settings *domain.Settings) error {
	clone := *settings
	m.settings[settings.UserID] = &clone
	return nil
}

func (m *memSettingsStore) WithTx(*sql.Tx) store.SettingsStore { return m }

type memSubjectStore struct {
	subjects map[uuid.UUID]*domain.SubjectPriority
	academic map[uuid.UUID]*domain.AcademicContext
}

func newMemSubjectStore() *memSubjectStore {
	return &memSubjectStore{
		subjects: make(map[uuid.UUID]*domain.SubjectPriority),
		academic: make(map[uuid.UUID]*domain.AcademicContext),
	}
}

func (m *memSubjectStore) list(userID uuid.UUID, selectedOnly bool) []domain.SubjectPriority {
	var result []domain.SubjectPriority
	for _, subject := range m.subjects {
		if subject.UserID != userID {
			continue
		}
		if selectedOnly && !subject.Selected {
			continue
		}
		result = append(result, *subject)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Order < result[j].Order
	})
	return result
}

func (m *memSubjectStore) ListPriorities(_ context.Context, userID uuid.UUID) ([]domain.SubjectPriority, error) {
	return m.list(userID, false), nil
}

func (m *memSubjectStore) ListSelected(_ context.Context, userID uuid.UUID) ([]domain.SubjectPriority, error) {
	return m.list(userID, true), nil
}

func (m *memSubjectStore) SetSelection(_ context.Context, userID uuid.UUID, subjectIDs []uuid.UUID) error {
	for _, id := range subjectIDs {
		if _, ok := m.subjects[id]; !ok {
			return store.ErrSubjectNotFound
		}
	}
	selected := make(map[uuid.UUID]bool, len(subjectIDs))
	for _, id := range subjectIDs {
		selected[id] = true
	}
	for id, subject := range m.subjects {
		if subject.UserID == userID {
			subject.Selected = selected[id]
		}
	}
	return nil
}

func (m *memSubjectStore) SetFavorite(_ context.Context, _, subjectID uuid.UUID, favorite bool) error {
	subject, ok := m.subjects[subjectID]
	if !ok {
		return store.ErrSubjectNotFound
	}
	subject.Favorite = favorite
	return nil
}

func (m *memSubjectStore) UpdatePriorityScores(_ context.Context, _ uuid.UUID, scores map[uuid.UUID]float64) error {
	for id, score := range scores {
		if subject, ok := m.subjects[id]; ok {
			subject.PriorityScore = score
		}
	}
	return nil
}

func (m *memSubjectStore) RecordStudy(_ context.Context, _, subjectID uuid.UUID, studiedAt time.Time, score float64) error {
	subject, ok := m.subjects[subjectID]
	if !ok {
		return store.ErrSubjectNotFound
	}
	subject.LastStudiedAt = studiedAt
	if score >= 0 {
		subject.LastScore = score
	}
	return nil
}

func (m *memSubjectStore) GetAcademicContext(_ context.Context, userID uuid.UUID) (*domain.AcademicContext, error) {
	academic, ok := m.academic[userID]
	if !ok {
		return nil, store.ErrAcademicContextNotFound
	}
	clone := *academic
	return &clone, nil
}

func (m *memSubjectStore) UpsertAcademicContext(_ context.Context, academic *domain.AcademicContext) error {
	clone := *academic
	m.academic[academic.UserID] = &clone
	return nil
}

func (m *memSubjectStore) WithTx(*sql.Tx) store.SubjectStore { return m }

type memProgressStore struct {
	progress map[uuid.UUID]map[uuid.UUID]*domain.ContentProgress // userID -> nodeID
}

func newMemProgressStore() *memProgressStore {
	return &memProgressStore{progress: make(map[uuid.UUID]map[uuid.UUID]*domain.ContentProgress)}
}

func (m *memProgressStore) Get(_ context.Context, userID, nodeID uuid.UUID) (*domain.ContentProgress, error) {
	progress, ok := m.progress[userID][nodeID]
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	clone := *progress
	return &clone, nil
}

func (m *memProgressStore) Upsert(_ context.Context, progress *domain.ContentProgress) error {
	if m.progress[progress.UserID] == nil {
		m.progress[progress.UserID] = make(map[uuid.UUID]*domain.ContentProgress)
	}
	clone := *progress
	m.progress[progress.UserID][progress.NodeID] = &clone
	return nil
}

func (m *memProgressStore) ListForSubject(_ context.Context, userID, _ uuid.UUID) ([]*domain.ContentProgress, error) {
	var result []*domain.ContentProgress
	for _, progress := range m.progress[userID] {
		clone := *progress
		result = append(result, &clone)
	}
	return result, nil
}

func (m *memProgressStore) ListDueForReview(_ context.Context, userID uuid.UUID, before time.Time, limit int) ([]*domain.ContentProgress, error) {
	var result []*domain.ContentProgress
	for _, progress := range m.progress[userID] {
		if progress.NextReviewAt.IsZero() || progress.NextReviewAt.After(before) {
			continue
		}
		clone := *progress
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NextReviewAt.Before(result[j].NextReviewAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memProgressStore) WithTx(*sql.Tx) store.ProgressStore { return m }

type memExamStore struct {
	results []*domain.ExamResult
}

func (m *memExamStore) Create(_ context.Context, result *domain.ExamResult) error {
	clone := *result
	m.results = append([]*domain.ExamResult{&clone}, m.results...)
	return nil
}

func (m *memExamStore) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]*domain.ExamResult, error) {
	var result []*domain.ExamResult
	for _, r := range m.results {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memExamStore) ListForSubject(_ context.Context, userID, subjectID uuid.UUID) ([]*domain.ExamResult, error) {
	var result []*domain.ExamResult
	for _, r := range m.results {
		if r.UserID == userID && r.SubjectID == subjectID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *memExamStore) WithTx(*sql.Tx) store.ExamStore { return m }

type stubCatalog struct {
	units map[uuid.UUID][]catalog.StudyUnit
}

func (s *stubCatalog) SubjectTree(context.Context, uuid.UUID, uuid.UUID) ([]catalog.Node, error) {
	return nil, nil
}

func (s *stubCatalog) NextUncompleted(_ context.Context, _, subjectID, _ uuid.UUID, limit int) ([]catalog.StudyUnit, error) {
	units := s.units[subjectID]
	if limit > 0 && len(units) > limit {
		units = units[:limit]
	}
	return units, nil
}
