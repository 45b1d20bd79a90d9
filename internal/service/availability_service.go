package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-sync/timetable-api/internal/dto"
	"github.com/campus-sync/timetable-api/internal/models"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
)

type availabilityRepository interface {
	List(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityRecord, int, error)
	Upsert(ctx context.Context, record *models.AvailabilityRecord) error
	ReplaceForTeacherPeriod(ctx context.Context, teacherID, periodID string, records []models.AvailabilityRecord) error
}

type availabilityTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// AvailabilityService manages teacher availability declarations.
type AvailabilityService struct {
	repo      availabilityRepository
	teachers  availabilityTeacherReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService creates a new availability service.
func NewAvailabilityService(repo availabilityRepository, teachers availabilityTeacherReader, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// List returns paginated availability records.
func (s *AvailabilityService) List(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
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
	return records, pagination, nil
}

// Upsert creates or updates one availability record.
func (s *AvailabilityService) Upsert(ctx context.Context, req dto.UpsertAvailabilityRequest) (*models.AvailabilityRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if err := s.ensureTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	record := &models.AvailabilityRecord{
		TeacherID:   req.TeacherID,
		PeriodID:    req.PeriodID,
		DayOfWeek:   req.DayOfWeek,
		TimeBlockID: req.TimeBlockID,
		Available:   req.Available,
		Preference:  req.Preference,
		Source:      models.AvailabilitySourceManual,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save availability")
	}
	return record, nil
}

// Replace swaps the full availability set of one (teacher, period) pair. It
// covers bulk loads from external rosters, replacing the spreadsheet import
// flow with a JSON payload.
func (s *AvailabilityService) Replace(ctx context.Context, req dto.ReplaceAvailabilityRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if err := s.ensureTeacher(ctx, req.TeacherID); err != nil {
		return 0, err
	}

	seen := make(map[AvailabilityKey]bool, len(req.Slots))
	records := make([]models.AvailabilityRecord, 0, len(req.Slots))
	for _, slot := range req.Slots {
		key := AvailabilityKey{TeacherID: req.TeacherID, Day: slot.DayOfWeek, BlockID: slot.TimeBlockID}
		if seen[key] {
			return 0, appErrors.Clone(appErrors.ErrValidation, "duplicate (day, block) entry in slots")
		}
		seen[key] = true
		records = append(records, models.AvailabilityRecord{
			DayOfWeek:   slot.DayOfWeek,
			TimeBlockID: slot.TimeBlockID,
			Available:   slot.Available,
			Preference:  slot.Preference,
			Source:      models.AvailabilitySourceImported,
		})
	}

	if err := s.repo.ReplaceForTeacherPeriod(ctx, req.TeacherID, req.PeriodID, records); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace availability")
	}
	return len(records), nil
}

func (s *AvailabilityService) ensureTeacher(ctx context.Context, teacherID string) error {
	if s.teachers == nil {
		return nil
	}
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return nil
}
