package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-sync/timetable-api/internal/dto"
	"github.com/campus-sync/timetable-api/internal/models"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	FindConflict(ctx context.Context, periodID string, day int, blockID, teacherID, roomID, groupID string) (models.ConflictKind, error)
	FindConflictExcluding(ctx context.Context, periodID string, day int, blockID, teacherID, roomID, groupID, excludeID string) (models.ConflictKind, error)
	ListTimetable(ctx context.Context, periodID string) ([]dto.TimetableEntry, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateAssignmentRequest captures a manual timetable edit.
type CreateAssignmentRequest struct {
	GroupID     string  `json:"groupId" validate:"required"`
	TeacherID   string  `json:"teacherId" validate:"required"`
	RoomID      string  `json:"roomId" validate:"required"`
	PeriodID    string  `json:"periodId" validate:"required"`
	DayOfWeek   int     `json:"dayOfWeek" validate:"required,min=1,max=7"`
	TimeBlockID string  `json:"timeBlockId" validate:"required"`
	Notes       *string `json:"notes"`
}

// UpdateAssignmentRequest modifies a manual assignment.
type UpdateAssignmentRequest struct {
	TeacherID   string  `json:"teacherId" validate:"required"`
	RoomID      string  `json:"roomId" validate:"required"`
	DayOfWeek   int     `json:"dayOfWeek" validate:"required,min=1,max=7"`
	TimeBlockID string  `json:"timeBlockId" validate:"required"`
	Status      string  `json:"status" validate:"required,oneof=SCHEDULED CONFIRMED CANCELLED"`
	Notes       *string `json:"notes"`
}

// AssignmentService handles manual timetable edits and the cached timetable
// view. Every mutation validates against the persisted non-overlap invariant
// before saving.
type AssignmentService struct {
	repo      assignmentRepository
	cache     timetableCache
	metrics   *MetricsService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService creates a new assignment service.
func NewAssignmentService(repo assignmentRepository, cache timetableCache, metrics *MetricsService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &AssignmentService{repo: repo, cache: cache, metrics: metrics, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns paginated assignments.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, *models.Pagination, error) {
	assignments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return assignments, pagination, nil
}

// Get returns an assignment by identifier.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Timetable returns the joined timetable view of a period, served from the
// cache when possible.
func (s *AssignmentService) Timetable(ctx context.Context, periodID string) (*dto.TimetableView, error) {
	if periodID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "periodId is required")
	}

	key := timetableCacheKey(periodID)
	if s.cache != nil {
		started := time.Now()
		var cached dto.TimetableView
		err := s.cache.Get(ctx, key, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(started))
		if err == nil {
			return &cached, nil
		}
		if err != appErrors.ErrCacheMiss {
			s.logger.Warn("timetable cache read failed", zap.String("period_id", periodID), zap.Error(err))
		}
	}

	entries, err := s.repo.ListTimetable(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if entries == nil {
		entries = []dto.TimetableEntry{}
	}
	view := &dto.TimetableView{PeriodID: periodID, Entries: entries}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, view, s.cacheTTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.String("period_id", periodID), zap.Error(err))
		}
	}
	return view, nil
}

// Create adds a manual assignment after checking all three conflict axes.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	kind, err := s.repo.FindConflict(ctx, req.PeriodID, req.DayOfWeek, req.TimeBlockID, req.TeacherID, req.RoomID, req.GroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check conflicts")
	}
	if kind != models.ConflictNone {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("slot is not free: %s", kind))
	}

	assignment := &models.Assignment{
		GroupID:     req.GroupID,
		TeacherID:   req.TeacherID,
		RoomID:      req.RoomID,
		PeriodID:    req.PeriodID,
		DayOfWeek:   req.DayOfWeek,
		TimeBlockID: req.TimeBlockID,
		Status:      models.AssignmentStatusScheduled,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.invalidateTimetable(ctx, req.PeriodID)
	return assignment, nil
}

// Update moves or re-statuses an assignment, revalidating the slot.
func (s *AssignmentService) Update(ctx context.Context, id string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	status := models.AssignmentStatus(req.Status)
	if status != models.AssignmentStatusCancelled {
		kind, err := s.repo.FindConflictExcluding(ctx, assignment.PeriodID, req.DayOfWeek, req.TimeBlockID, req.TeacherID, req.RoomID, assignment.GroupID, assignment.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check conflicts")
		}
		if kind != models.ConflictNone {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("slot is not free: %s", kind))
		}
	}

	assignment.TeacherID = req.TeacherID
	assignment.RoomID = req.RoomID
	assignment.DayOfWeek = req.DayOfWeek
	assignment.TimeBlockID = req.TimeBlockID
	assignment.Status = status
	assignment.Notes = req.Notes

	if err := s.repo.Update(ctx, assignment); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}

	s.invalidateTimetable(ctx, assignment.PeriodID)
	return assignment, nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}

	s.invalidateTimetable(ctx, assignment.PeriodID)
	return nil
}

func (s *AssignmentService) invalidateTimetable(ctx context.Context, periodID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, timetableCachePattern(periodID)); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("period_id", periodID), zap.Error(err))
	}
}

func timetableCacheKey(periodID string) string {
	return "timetable:view:" + periodID
}
