package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-sync/timetable-api/internal/models"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
)

type timeBlockRepository interface {
	List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, error)
	FindByID(ctx context.Context, id string) (*models.TimeBlock, error)
	Create(ctx context.Context, block *models.TimeBlock) error
	Update(ctx context.Context, block *models.TimeBlock) error
	Delete(ctx context.Context, id string) error
}

// TimeBlockRequest captures fields for creating or updating a time block.
type TimeBlockRequest struct {
	Name      string `json:"name" validate:"required"`
	DayOfWeek int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartTime string `json:"startTime" validate:"required,len=5"`
	EndTime   string `json:"endTime" validate:"required,len=5"`
	Shift     string `json:"shift" validate:"required,oneof=MORNING AFTERNOON EVENING"`
}

// TimeBlockService handles time block reference data.
type TimeBlockService struct {
	repo      timeBlockRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimeBlockService creates a new time block service.
func NewTimeBlockService(repo timeBlockRepository, validate *validator.Validate, logger *zap.Logger) *TimeBlockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeBlockService{repo: repo, validator: validate, logger: logger}
}

// List returns time blocks in canonical (day, start) order.
func (s *TimeBlockService) List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, error) {
	blocks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time blocks")
	}
	return blocks, nil
}

// Get returns a time block by identifier.
func (s *TimeBlockService) Get(ctx context.Context, id string) (*models.TimeBlock, error) {
	block, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
	}
	return block, nil
}

// Create adds a new time block.
func (s *TimeBlockService) Create(ctx context.Context, req TimeBlockRequest) (*models.TimeBlock, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	block := &models.TimeBlock{
		Name:      req.Name,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Shift:     models.Shift(req.Shift),
	}
	if err := s.repo.Create(ctx, block); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time block")
	}
	return block, nil
}

// Update modifies an existing time block.
func (s *TimeBlockService) Update(ctx context.Context, id string, req TimeBlockRequest) (*models.TimeBlock, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	block, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
	}

	block.Name = req.Name
	block.DayOfWeek = req.DayOfWeek
	block.StartTime = req.StartTime
	block.EndTime = req.EndTime
	block.Shift = models.Shift(req.Shift)

	if err := s.repo.Update(ctx, block); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update time block")
	}
	return block, nil
}

// Delete removes a time block.
func (s *TimeBlockService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "time block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time block")
	}
	return nil
}

func (s *TimeBlockService) validateRequest(req TimeBlockRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time block payload")
	}
	if req.EndTime <= req.StartTime {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	return nil
}
