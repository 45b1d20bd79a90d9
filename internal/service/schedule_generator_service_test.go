package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-sync/timetable-api/internal/dto"
	"github.com/campus-sync/timetable-api/internal/models"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
)

func TestScheduleGeneratorServiceGenerateSuccess(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{})

	resp, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Stats.SuccessfulAssignments)
	assert.Equal(t, 1, resp.Stats.GroupsFullyScheduled)
	assert.Equal(t, 0, resp.Stats.GroupsNotFullyScheduled)
	assert.Empty(t, resp.UnresolvedConflicts)

	require.Len(t, fixture.committer.committed, 2)
	for _, a := range fixture.committer.committed {
		assert.Equal(t, "group-1", a.GroupID)
		assert.Equal(t, "teacher-1", a.TeacherID)
		assert.Equal(t, models.AssignmentStatusScheduled, a.Status)
	}
}

func TestScheduleGeneratorServicePrefersHigherPreference(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		availability: map[AvailabilityKey]int{
			{TeacherID: "teacher-1", Day: 1, BlockID: "block-1"}: 0,
			{TeacherID: "teacher-1", Day: 1, BlockID: "block-2"}: 2,
		},
	})

	resp, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Stats.SuccessfulAssignments)

	// The preferred block wins the first session, the remaining slot the second.
	assert.Equal(t, "block-2", fixture.committer.committed[0].TimeBlockID)
	assert.Equal(t, "block-1", fixture.committer.committed[1].TimeBlockID)
}

func TestScheduleGeneratorServiceDeterministicAcrossRuns(t *testing.T) {
	first := newGeneratorFixture(t, generatorFixtureConfig{})
	second := newGeneratorFixture(t, generatorFixtureConfig{})

	_, err := first.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.NoError(t, err)
	_, err = second.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.NoError(t, err)

	require.Equal(t, len(first.committer.committed), len(second.committer.committed))
	for i := range first.committer.committed {
		a, b := first.committer.committed[i], second.committer.committed[i]
		assert.Equal(t, a.TeacherID, b.TeacherID)
		assert.Equal(t, a.RoomID, b.RoomID)
		assert.Equal(t, a.DayOfWeek, b.DayOfWeek)
		assert.Equal(t, a.TimeBlockID, b.TimeBlockID)
	}
}

func TestScheduleGeneratorServiceNoAvailability(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		availability: map[AvailabilityKey]int{},
	})

	resp, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Stats.SuccessfulAssignments)
	assert.Equal(t, 1, resp.Stats.GroupsNotFullyScheduled)
	require.Len(t, resp.UnresolvedConflicts, 1)
	assert.Contains(t, resp.UnresolvedConflicts[0], "group G1")
	assert.Empty(t, fixture.committer.committed)
	assert.True(t, fixture.committer.called, "an empty schedule still replaces the previous one")
}

func TestScheduleGeneratorServiceFailFastKeepsPartialGroupStaged(t *testing.T) {
	// Only one feasible slot for a subject needing two sessions: the second
	// session fails, but the first stays staged and is committed.
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		availability: map[AvailabilityKey]int{
			{TeacherID: "teacher-1", Day: 1, BlockID: "block-1"}: 1,
		},
	})

	resp, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Stats.SuccessfulAssignments)
	assert.Equal(t, 1, resp.Stats.FailedAttempts)
	assert.Equal(t, 1, resp.Stats.GroupsNotFullyScheduled)
	require.Len(t, resp.UnresolvedConflicts, 1)
	assert.Contains(t, resp.UnresolvedConflicts[0], "session 2 of 2")
	assert.Len(t, fixture.committer.committed, 1)
}

func TestScheduleGeneratorServiceNegativePreferenceExcluded(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		availability: map[AvailabilityKey]int{
			{TeacherID: "teacher-1", Day: 1, BlockID: "block-1"}: -1,
			{TeacherID: "teacher-1", Day: 1, BlockID: "block-2"}: -2,
		},
	})

	resp, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Stats.SuccessfulAssignments)
	assert.Equal(t, 1, resp.Stats.GroupsNotFullyScheduled)
}

func TestScheduleGeneratorServiceRunInProgress(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{lockHeld: true})

	_, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrRunInProgress.Code, appErr.Code)
	assert.False(t, fixture.committer.called)
}

func TestScheduleGeneratorServiceReleasesLock(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{})

	_, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, fixture.locker.released)
}

func TestScheduleGeneratorServiceUnknownSubject(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		groups: []models.Group{{ID: "group-1", Code: "G1", SubjectID: "missing", ProgramID: "prog-1", PeriodID: "period-1"}},
	})

	_, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSnapshotInvalid.Code, appErr.Code)
	assert.False(t, fixture.committer.called)
}

func TestScheduleGeneratorServiceCommitFailure(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{commitErr: assert.AnError})

	_, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.Error(t, err)
	assert.Equal(t, 1, fixture.locker.released)
	assert.Equal(t, "failed", fixture.metrics.lastStatus)
}

func TestScheduleGeneratorServiceConfirmedAssignmentsBlockSlots(t *testing.T) {
	// A confirmed manual assignment occupies teacher-1 on Monday block-1, so
	// the generator must route both sessions through block-2 and fail the rest.
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		persistedConflicts: map[SlotKey]models.ConflictKind{
			{EntityID: "teacher-1", Day: 1, BlockID: "block-1"}: models.ConflictTeacher,
		},
	})

	resp, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Stats.SuccessfulAssignments)
	require.Len(t, fixture.committer.committed, 1)
	assert.Equal(t, "block-2", fixture.committer.committed[0].TimeBlockID)
}

func TestScheduleGeneratorServiceInvalidatesTimetableCache(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{})

	_, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{PeriodID: "period-1"})
	require.NoError(t, err)
	require.Len(t, fixture.cache.patterns, 1)
	assert.Equal(t, "timetable:view:period-1*", fixture.cache.patterns[0])
}

// --- Fixtures ---

type generatorFixtureConfig struct {
	groups             []models.Group
	availability       map[AvailabilityKey]int
	rules              []models.ConstraintRule
	persistedConflicts map[SlotKey]models.ConflictKind
	lockHeld           bool
	commitErr          error
}

type generatorFixture struct {
	service   *ScheduleGeneratorService
	committer *committerStub
	locker    *lockerStub
	cache     *cacheInvalidatorStub
	metrics   *metricsStub
}

func newGeneratorFixture(t *testing.T, cfg generatorFixtureConfig) *generatorFixture {
	t.Helper()

	groups := cfg.groups
	if groups == nil {
		groups = []models.Group{
			{ID: "group-1", Code: "G1", SubjectID: "subj-math", ProgramID: "prog-1", PeriodID: "period-1"},
		}
	}
	availability := cfg.availability
	if availability == nil {
		availability = map[AvailabilityKey]int{
			{TeacherID: "teacher-1", Day: 1, BlockID: "block-1"}: 1,
			{TeacherID: "teacher-1", Day: 1, BlockID: "block-2"}: 1,
		}
	}

	loader := NewSnapshotLoader(
		periodReaderStub{period: &models.Period{ID: "period-1", Name: "2026-1", Active: true}},
		groupListerStub{groups: groups},
		teacherListerStub{
			teachers:    []models.Teacher{{ID: "teacher-1", Code: "T1", FullName: "Teacher One", Active: true}},
			specialties: map[string][]string{"teacher-1": {"math"}},
		},
		roomListerStub{rooms: []models.Room{{ID: "room-1", Name: "R101", RoomType: "STANDARD"}}},
		blockListerStub{blocks: []models.TimeBlock{
			{ID: "block-1", Name: "P1", DayOfWeek: 1, StartTime: "07:00", EndTime: "08:00", Shift: models.ShiftMorning},
			{ID: "block-2", Name: "P2", DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00", Shift: models.ShiftMorning},
		}},
		subjectListerStub{
			subjects: []models.Subject{{ID: "subj-math", Code: "MATH", Name: "Mathematics", TheoryHours: 2, Active: true}},
			required: map[string][]string{"subj-math": {"math"}},
		},
		availabilityListerStub{availability: availability},
		ruleListerStub{rules: cfg.rules},
	)

	committer := &committerStub{conflicts: cfg.persistedConflicts, commitErr: cfg.commitErr}
	locker := &lockerStub{held: cfg.lockHeld}
	cache := &cacheInvalidatorStub{}
	metrics := &metricsStub{}

	service := NewScheduleGeneratorService(
		loader,
		committer,
		locker,
		cache,
		metrics,
		validator.New(),
		zap.NewNop(),
		ScheduleGeneratorConfig{GenerationTimeout: time.Minute, DefaultMaxWeeklyHours: 40},
	)

	return &generatorFixture{service: service, committer: committer, locker: locker, cache: cache, metrics: metrics}
}

type periodReaderStub struct {
	period *models.Period
}

func (s periodReaderStub) FindByID(ctx context.Context, id string) (*models.Period, error) {
	return s.period, nil
}

type groupListerStub struct {
	groups []models.Group
}

func (s groupListerStub) ListByPeriod(ctx context.Context, periodID string) ([]models.Group, error) {
	return s.groups, nil
}

type teacherListerStub struct {
	teachers    []models.Teacher
	specialties map[string][]string
}

func (s teacherListerStub) ListActive(ctx context.Context) ([]models.Teacher, error) {
	return s.teachers, nil
}

func (s teacherListerStub) ListSpecialties(ctx context.Context) (map[string][]string, error) {
	return s.specialties, nil
}

type roomListerStub struct {
	rooms []models.Room
}

func (s roomListerStub) ListAll(ctx context.Context) ([]models.Room, error) {
	return s.rooms, nil
}

type blockListerStub struct {
	blocks []models.TimeBlock
}

func (s blockListerStub) List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, error) {
	return s.blocks, nil
}

type subjectListerStub struct {
	subjects []models.Subject
	required map[string][]string
}

func (s subjectListerStub) ListActive(ctx context.Context) ([]models.Subject, error) {
	return s.subjects, nil
}

func (s subjectListerStub) ListRequiredSpecialties(ctx context.Context) (map[string][]string, error) {
	return s.required, nil
}

type availabilityListerStub struct {
	availability map[AvailabilityKey]int
}

func (s availabilityListerStub) ListAvailableByPeriod(ctx context.Context, periodID string) ([]models.AvailabilityRecord, error) {
	records := make([]models.AvailabilityRecord, 0, len(s.availability))
	for key, pref := range s.availability {
		records = append(records, models.AvailabilityRecord{
			TeacherID:   key.TeacherID,
			PeriodID:    periodID,
			DayOfWeek:   key.Day,
			TimeBlockID: key.BlockID,
			Available:   true,
			Preference:  pref,
		})
	}
	return records, nil
}

type ruleListerStub struct {
	rules []models.ConstraintRule
}

func (s ruleListerStub) ListActiveForPeriod(ctx context.Context, periodID string) ([]models.ConstraintRule, error) {
	return s.rules, nil
}

type committerStub struct {
	conflicts map[SlotKey]models.ConflictKind
	commitErr error
	committed []models.Assignment
	called    bool
}

func (s *committerStub) FindConfirmedConflict(ctx context.Context, periodID string, day int, blockID, teacherID, roomID, groupID string) (models.ConflictKind, error) {
	if s.conflicts == nil {
		return models.ConflictNone, nil
	}
	if kind, ok := s.conflicts[SlotKey{EntityID: teacherID, Day: day, BlockID: blockID}]; ok {
		return kind, nil
	}
	if kind, ok := s.conflicts[SlotKey{EntityID: roomID, Day: day, BlockID: blockID}]; ok {
		return kind, nil
	}
	if kind, ok := s.conflicts[SlotKey{EntityID: groupID, Day: day, BlockID: blockID}]; ok {
		return kind, nil
	}
	return models.ConflictNone, nil
}

func (s *committerStub) ReplaceForPeriod(ctx context.Context, periodID string, assignments []models.Assignment) error {
	s.called = true
	if s.commitErr != nil {
		return s.commitErr
	}
	s.committed = assignments
	return nil
}

type lockerStub struct {
	held     bool
	released int
}

func (s *lockerStub) Acquire(ctx context.Context, periodID, token string) (bool, error) {
	return !s.held, nil
}

func (s *lockerStub) Release(ctx context.Context, periodID, token string) error {
	s.released++
	return nil
}

type cacheInvalidatorStub struct {
	patterns []string
}

func (s *cacheInvalidatorStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

type metricsStub struct {
	lastStatus string
	lastPlaced int
}

func (s *metricsStub) ObserveGenerationRun(status string, duration time.Duration, assignments int) {
	s.lastStatus = status
	s.lastPlaced = assignments
}
