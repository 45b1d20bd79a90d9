package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-sync/timetable-api/internal/dto"
	"github.com/campus-sync/timetable-api/internal/models"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
)

type assignmentRepoStub struct {
	assignments map[string]*models.Assignment
	conflict    models.ConflictKind
	excludedID  string
	entries     []dto.TimetableEntry
	created     *models.Assignment
	updated     *models.Assignment
	deletedID   string
}

func (s *assignmentRepoStub) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	var out []models.Assignment
	for _, a := range s.assignments {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (s *assignmentRepoStub) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	a, ok := s.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (s *assignmentRepoStub) FindConflict(ctx context.Context, periodID string, day int, blockID, teacherID, roomID, groupID string) (models.ConflictKind, error) {
	return s.conflict, nil
}

func (s *assignmentRepoStub) FindConflictExcluding(ctx context.Context, periodID string, day int, blockID, teacherID, roomID, groupID, excludeID string) (models.ConflictKind, error) {
	s.excludedID = excludeID
	return s.conflict, nil
}

func (s *assignmentRepoStub) ListTimetable(ctx context.Context, periodID string) ([]dto.TimetableEntry, error) {
	return s.entries, nil
}

func (s *assignmentRepoStub) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = "assignment-new"
	s.created = assignment
	return nil
}

func (s *assignmentRepoStub) Update(ctx context.Context, assignment *models.Assignment) error {
	s.updated = assignment
	return nil
}

func (s *assignmentRepoStub) Delete(ctx context.Context, id string) error {
	s.deletedID = id
	return nil
}

type timetableCacheStub struct {
	store    map[string]*dto.TimetableView
	sets     int
	patterns []string
}

func newTimetableCacheStub() *timetableCacheStub {
	return &timetableCacheStub{store: map[string]*dto.TimetableView{}}
}

func (c *timetableCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	view, ok := c.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*dto.TimetableView) = *view
	return nil
}

func (c *timetableCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	view := value.(*dto.TimetableView)
	c.store[key] = view
	return nil
}

func (c *timetableCacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	return nil
}

func TestAssignmentServiceTimetableCachesView(t *testing.T) {
	repo := &assignmentRepoStub{entries: []dto.TimetableEntry{{AssignmentID: "assignment-1", GroupCode: "G1", DayOfWeek: 1}}}
	cache := newTimetableCacheStub()
	svc := NewAssignmentService(repo, cache, nil, time.Minute, nil, nil)

	view, err := svc.Timetable(context.Background(), "period-1")
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from the cache even after the repo changes.
	repo.entries = nil
	cached, err := svc.Timetable(context.Background(), "period-1")
	require.NoError(t, err)
	assert.Len(t, cached.Entries, 1)
	assert.Equal(t, 1, cache.sets)
}

func TestAssignmentServiceTimetableRequiresPeriod(t *testing.T) {
	svc := NewAssignmentService(&assignmentRepoStub{}, nil, nil, time.Minute, nil, nil)

	_, err := svc.Timetable(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceCreateRejectsConflict(t *testing.T) {
	repo := &assignmentRepoStub{conflict: models.ConflictRoom}
	svc := NewAssignmentService(repo, nil, nil, time.Minute, nil, nil)

	_, err := svc.Create(context.Background(), CreateAssignmentRequest{
		GroupID:     "group-1",
		TeacherID:   "teacher-1",
		RoomID:      "room-1",
		PeriodID:    "period-1",
		DayOfWeek:   1,
		TimeBlockID: "block-1",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "room_conflict")
	assert.Nil(t, repo.created)
}

func TestAssignmentServiceCreateInvalidatesCache(t *testing.T) {
	repo := &assignmentRepoStub{}
	cache := newTimetableCacheStub()
	svc := NewAssignmentService(repo, cache, nil, time.Minute, nil, nil)

	assignment, err := svc.Create(context.Background(), CreateAssignmentRequest{
		GroupID:     "group-1",
		TeacherID:   "teacher-1",
		RoomID:      "room-1",
		PeriodID:    "period-1",
		DayOfWeek:   2,
		TimeBlockID: "block-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "assignment-new", assignment.ID)
	assert.Equal(t, models.AssignmentStatusScheduled, assignment.Status)
	require.Len(t, cache.patterns, 1)
	assert.Equal(t, "timetable:view:period-1*", cache.patterns[0])
}

func TestAssignmentServiceCreateValidatesPayload(t *testing.T) {
	svc := NewAssignmentService(&assignmentRepoStub{}, nil, nil, time.Minute, nil, nil)

	_, err := svc.Create(context.Background(), CreateAssignmentRequest{GroupID: "group-1", DayOfWeek: 9})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceUpdateExcludesSelfFromConflictCheck(t *testing.T) {
	repo := &assignmentRepoStub{assignments: map[string]*models.Assignment{
		"assignment-1": {ID: "assignment-1", GroupID: "group-1", PeriodID: "period-1", TeacherID: "teacher-1", RoomID: "room-1", DayOfWeek: 1, TimeBlockID: "block-1", Status: models.AssignmentStatusScheduled},
	}}
	svc := NewAssignmentService(repo, nil, nil, time.Minute, nil, nil)

	updated, err := svc.Update(context.Background(), "assignment-1", UpdateAssignmentRequest{
		TeacherID:   "teacher-2",
		RoomID:      "room-1",
		DayOfWeek:   3,
		TimeBlockID: "block-2",
		Status:      string(models.AssignmentStatusConfirmed),
	})
	require.NoError(t, err)
	assert.Equal(t, "assignment-1", repo.excludedID)
	assert.Equal(t, "teacher-2", updated.TeacherID)
	assert.Equal(t, models.AssignmentStatusConfirmed, updated.Status)
}

func TestAssignmentServiceUpdateSkipsConflictCheckWhenCancelling(t *testing.T) {
	repo := &assignmentRepoStub{
		conflict: models.ConflictTeacher,
		assignments: map[string]*models.Assignment{
			"assignment-1": {ID: "assignment-1", GroupID: "group-1", PeriodID: "period-1", TeacherID: "teacher-1", RoomID: "room-1", DayOfWeek: 1, TimeBlockID: "block-1", Status: models.AssignmentStatusScheduled},
		},
	}
	svc := NewAssignmentService(repo, nil, nil, time.Minute, nil, nil)

	updated, err := svc.Update(context.Background(), "assignment-1", UpdateAssignmentRequest{
		TeacherID:   "teacher-1",
		RoomID:      "room-1",
		DayOfWeek:   1,
		TimeBlockID: "block-1",
		Status:      string(models.AssignmentStatusCancelled),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusCancelled, updated.Status)
	assert.Empty(t, repo.excludedID)
}

func TestAssignmentServiceUpdateNotFound(t *testing.T) {
	svc := NewAssignmentService(&assignmentRepoStub{assignments: map[string]*models.Assignment{}}, nil, nil, time.Minute, nil, nil)

	_, err := svc.Update(context.Background(), "missing", UpdateAssignmentRequest{
		TeacherID:   "teacher-1",
		RoomID:      "room-1",
		DayOfWeek:   1,
		TimeBlockID: "block-1",
		Status:      string(models.AssignmentStatusScheduled),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceDeleteInvalidatesCache(t *testing.T) {
	repo := &assignmentRepoStub{assignments: map[string]*models.Assignment{
		"assignment-1": {ID: "assignment-1", PeriodID: "period-1"},
	}}
	cache := newTimetableCacheStub()
	svc := NewAssignmentService(repo, cache, nil, time.Minute, nil, nil)

	err := svc.Delete(context.Background(), "assignment-1")
	require.NoError(t, err)
	assert.Equal(t, "assignment-1", repo.deletedID)
	require.Len(t, cache.patterns, 1)
	assert.Equal(t, "timetable:view:period-1*", cache.patterns[0])
}
