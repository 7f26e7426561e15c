package service

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
	"github.com/bacready/bacready-api/internal/events"
	"github.com/bacready/bacready-api/internal/store"
)

// In-memory fakes for the store interfaces. WithTx returns the fake itself
// and the fake tx runner invokes the function with a nil transaction, so
// service code exercises the same paths it does against postgres.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTxRunner struct {
	failWith error
	calls    int
}

func (r *fakeTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	r.calls++
	if r.failWith != nil {
		return r.failWith
	}
	return fn(ctx, nil)
}

type fakeScheduleStore struct {
	schedules map[uuid.UUID]*domain.Schedule
	records   []*domain.AdaptationRecord

	createErr error
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{schedules: make(map[uuid.UUID]*domain.Schedule)}
}

func (f *fakeScheduleStore) Create(_ context.Context, schedule *domain.Schedule) error {
	if f.createErr != nil {
		return f.createErr
	}
	if schedule.Status == domain.ScheduleStatusActive {
		for _, existing := range f.schedules {
			if existing.UserID == schedule.UserID && existing.Status == domain.ScheduleStatusActive {
				return store.ErrActiveScheduleExists
			}
		}
	}
	clone := *schedule
	f.schedules[schedule.ID] = &clone
	return nil
}

func (f *fakeScheduleStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Schedule, error) {
	schedule, ok := f.schedules[id]
	if !ok {
		return nil, store.ErrScheduleNotFound
	}
	clone := *schedule
	return &clone, nil
}

func (f *fakeScheduleStore) GetActiveForUser(_ context.Context, userID uuid.UUID) (*domain.Schedule, error) {
	for _, schedule := range f.schedules {
		if schedule.UserID == userID && schedule.Status == domain.ScheduleStatusActive {
			clone := *schedule
			return &clone, nil
		}
	}
	return nil, store.ErrScheduleNotFound
}

func (f *fakeScheduleStore) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]*domain.Schedule, error) {
	var result []*domain.Schedule
	for _, schedule := range f.schedules {
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

func (f *fakeScheduleStore) Update(_ context.Context, schedule *domain.Schedule) error {
	if _, ok := f.schedules[schedule.ID]; !ok {
		return store.ErrScheduleNotFound
	}
	clone := *schedule
	f.schedules[schedule.ID] = &clone
	return nil
}

func (f *fakeScheduleStore) ArchiveActiveForUser(_ context.Context, userID uuid.UUID) (int, error) {
	archived := 0
	for _, schedule := range f.schedules {
		if schedule.UserID == userID && schedule.Status == domain.ScheduleStatusActive {
			schedule.Status = domain.ScheduleStatusArchived
			archived++
		}
	}
	return archived, nil
}

func (f *fakeScheduleStore) CreateAdaptationRecord(_ context.Context, record *domain.AdaptationRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeScheduleStore) ListAdaptationRecords(_ context.Context, scheduleID uuid.UUID) ([]*domain.AdaptationRecord, error) {
	var result []*domain.AdaptationRecord
	for _, record := range f.records {
		if record.ScheduleID == scheduleID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (f *fakeScheduleStore) ListActiveUserIDs(_ context.Context) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	for _, schedule := range f.schedules {
		if schedule.Status == domain.ScheduleStatusActive {
			userIDs = append(userIDs, schedule.UserID)
		}
	}
	return userIDs, nil
}

func (f *fakeScheduleStore) WithTx(*sql.Tx) store.ScheduleStore { return f }

type fakeSessionStore struct {
	sessions map[uuid.UUID]*domain.Session

	createBatchErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (f *fakeSessionStore) CreateBatch(_ context.Context, sessions []*domain.Session) error {
	if f.createBatchErr != nil {
		return f.createBatchErr
	}
	for _, session := range sessions {
		clone := *session
		f.sessions[session.ID] = &clone
	}
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	clone := *session
	return &clone, nil
}

func (f *fakeSessionStore) ListBySchedule(_ context.Context, scheduleID uuid.UUID) ([]*domain.Session, error) {
	var result []*domain.Session
	for _, session := range f.sessions {
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

func (f *fakeSessionStore) ListByScheduleAndDate(ctx context.Context, scheduleID uuid.UUID, date time.Time) ([]*domain.Session, error) {
	all, err := f.ListBySchedule(ctx, scheduleID)
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

func (f *fakeSessionStore) UpdateStatusCAS(
	_ context.Context,
	id uuid.UUID,
	from, to domain.SessionStatus,
	mutate func(*domain.Session),
) (*domain.Session, error) {
	session, ok := f.sessions[id]
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
	f.sessions[id] = &updated
	clone := updated
	return &clone, nil
}

func (f *fakeSessionStore) ExpireScheduledBefore(_ context.Context, scheduleID uuid.UUID, before time.Time) (int, error) {
	day := domain.DateOnly(before)
	expired := 0
	for _, session := range f.sessions {
		if session.ScheduleID == scheduleID &&
			session.Status == domain.SessionStatusScheduled &&
			session.Date.Before(day) {
			session.Status = domain.SessionStatusSkipped
			session.SkipReason = domain.SkipReasonMissed
			session.UpdatedAt = time.Now().UTC()
			expired++
		}
	}
	return expired, nil
}

func (f *fakeSessionStore) WithTx(*sql.Tx) store.SessionStore { return f }

type fakeSettingsStore struct {
	settings map[uuid.UUID]*domain.Settings
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{settings: make(map[uuid.UUID]*domain.Settings)}
}

func (f *fakeSettingsStore) GetForUser(_ context.Context, userID uuid.UUID) (*domain.Settings, error) {
	settings, ok := f.settings[userID]
	if !ok {
		return nil, store.ErrSettingsNotFound
	}
	clone := *settings
	return &clone, nil
}

func (f *fakeSettingsStore) Upsert(_ context.Context, settings *domain.Settings) error {
	clone := *settings
	f.settings[settings.UserID] = &clone
	return nil
}

func (f *fakeSettingsStore) WithTx(*sql.Tx) store.SettingsStore { return f }

type studyRecord struct {
	subjectID uuid.UUID
	studiedAt time.Time
	score     float64
}

type fakeSubjectStore struct {
	subjects map[uuid.UUID]*domain.SubjectPriority
	academic map[uuid.UUID]*domain.AcademicContext
	scores   map[uuid.UUID]float64
	studied  []studyRecord
}

func newFakeSubjectStore() *fakeSubjectStore {
	return &fakeSubjectStore{
		subjects: make(map[uuid.UUID]*domain.SubjectPriority),
		academic: make(map[uuid.UUID]*domain.AcademicContext),
		scores:   make(map[uuid.UUID]float64),
	}
}

func (f *fakeSubjectStore) addSubject(subject domain.SubjectPriority) {
	clone := subject
	f.subjects[subject.SubjectID] = &clone
}

func (f *fakeSubjectStore) list(userID uuid.UUID, selectedOnly bool) []domain.SubjectPriority {
	var result []domain.SubjectPriority
	for _, subject := range f.subjects {
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

func (f *fakeSubjectStore) ListPriorities(_ context.Context, userID uuid.UUID) ([]domain.SubjectPriority, error) {
	return f.list(userID, false), nil
}

func (f *fakeSubjectStore) ListSelected(_ context.Context, userID uuid.UUID) ([]domain.SubjectPriority, error) {
	return f.list(userID, true), nil
}

func (f *fakeSubjectStore) SetSelection(_ context.Context, userID uuid.UUID, subjectIDs []uuid.UUID) error {
	for _, id := range subjectIDs {
		if _, ok := f.subjects[id]; !ok {
			return store.ErrSubjectNotFound
		}
	}
	selected := make(map[uuid.UUID]bool, len(subjectIDs))
	for _, id := range subjectIDs {
		selected[id] = true
	}
	for id, subject := range f.subjects {
		if subject.UserID == userID {
			subject.Selected = selected[id]
		}
	}
	return nil
}

func (f *fakeSubjectStore) SetFavorite(_ context.Context, _, subjectID uuid.UUID, favorite bool) error {
	subject, ok := f.subjects[subjectID]
	if !ok {
		return store.ErrSubjectNotFound
	}
	subject.Favorite = favorite
	return nil
}

func (f *fakeSubjectStore) UpdatePriorityScores(_ context.Context, _ uuid.UUID, scores map[uuid.UUID]float64) error {
	for id, score := range scores {
		f.scores[id] = score
	}
	return nil
}

func (f *fakeSubjectStore) RecordStudy(_ context.Context, _, subjectID uuid.UUID, studiedAt time.Time, score float64) error {
	if _, ok := f.subjects[subjectID]; !ok {
		return store.ErrSubjectNotFound
	}
	f.studied = append(f.studied, studyRecord{subjectID: subjectID, studiedAt: studiedAt, score: score})
	return nil
}

func (f *fakeSubjectStore) GetAcademicContext(_ context.Context, userID uuid.UUID) (*domain.AcademicContext, error) {
	academic, ok := f.academic[userID]
	if !ok {
		return nil, store.ErrAcademicContextNotFound
	}
	clone := *academic
	return &clone, nil
}

func (f *fakeSubjectStore) UpsertAcademicContext(_ context.Context, academic *domain.AcademicContext) error {
	clone := *academic
	f.academic[academic.UserID] = &clone
	return nil
}

func (f *fakeSubjectStore) WithTx(*sql.Tx) store.SubjectStore { return f }

type progressKey struct {
	userID uuid.UUID
	nodeID uuid.UUID
}

type fakeProgressStore struct {
	progress map[progressKey]*domain.ContentProgress
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{progress: make(map[progressKey]*domain.ContentProgress)}
}

func (f *fakeProgressStore) Get(_ context.Context, userID, nodeID uuid.UUID) (*domain.ContentProgress, error) {
	progress, ok := f.progress[progressKey{userID, nodeID}]
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	clone := *progress
	return &clone, nil
}

func (f *fakeProgressStore) Upsert(_ context.Context, progress *domain.ContentProgress) error {
	clone := *progress
	f.progress[progressKey{progress.UserID, progress.NodeID}] = &clone
	return nil
}

func (f *fakeProgressStore) ListForSubject(_ context.Context, userID, _ uuid.UUID) ([]*domain.ContentProgress, error) {
	var result []*domain.ContentProgress
	for key, progress := range f.progress {
		if key.userID == userID {
			clone := *progress
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (f *fakeProgressStore) ListDueForReview(_ context.Context, userID uuid.UUID, before time.Time, limit int) ([]*domain.ContentProgress, error) {
	var result []*domain.ContentProgress
	for key, progress := range f.progress {
		if key.userID != userID || progress.NextReviewAt.IsZero() {
			continue
		}
		if !progress.NextReviewAt.After(before) {
			clone := *progress
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NextReviewAt.Before(result[j].NextReviewAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakeProgressStore) WithTx(*sql.Tx) store.ProgressStore { return f }

type fakeExamStore struct {
	results []*domain.ExamResult
}

func (f *fakeExamStore) Create(_ context.Context, result *domain.ExamResult) error {
	clone := *result
	f.results = append([]*domain.ExamResult{&clone}, f.results...)
	return nil
}

func (f *fakeExamStore) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]*domain.ExamResult, error) {
	var result []*domain.ExamResult
	for _, r := range f.results {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakeExamStore) ListForSubject(_ context.Context, userID, subjectID uuid.UUID) ([]*domain.ExamResult, error) {
	var result []*domain.ExamResult
	for _, r := range f.results {
		if r.UserID == userID && r.SubjectID == subjectID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeExamStore) WithTx(*sql.Tx) store.ExamStore { return f }

type fakeCatalog struct {
	units map[uuid.UUID][]catalog.StudyUnit
}

func (f *fakeCatalog) SubjectTree(context.Context, uuid.UUID, uuid.UUID) ([]catalog.Node, error) {
	return nil, nil
}

func (f *fakeCatalog) NextUncompleted(_ context.Context, _, subjectID, _ uuid.UUID, limit int) ([]catalog.StudyUnit, error) {
	units := f.units[subjectID]
	if limit > 0 && len(units) > limit {
		units = units[:limit]
	}
	return units, nil
}

type capturingHandler struct {
	received []*events.Event
}

func (h *capturingHandler) HandleEvent(_ context.Context, event *events.Event) error {
	h.received = append(h.received, event)
	return nil
}
