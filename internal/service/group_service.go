package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-sync/timetable-api/internal/models"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
)

type groupRepository interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.Group, int, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error
}

type groupSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateGroupRequest captures fields for creating a group.
type CreateGroupRequest struct {
	Code              string  `json:"code" validate:"required"`
	SubjectID         string  `json:"subjectId" validate:"required"`
	ProgramID         string  `json:"programId" validate:"required"`
	PeriodID          string  `json:"periodId" validate:"required"`
	EstimatedStudents *int    `json:"estimatedStudents" validate:"omitempty,min=1"`
	PreferredShift    *string `json:"preferredShift" validate:"omitempty,oneof=MORNING AFTERNOON EVENING"`
	AssignedTeacherID *string `json:"assignedTeacherId"`
}

// UpdateGroupRequest modifies group fields.
type UpdateGroupRequest struct {
	Code              string  `json:"code" validate:"required"`
	SubjectID         string  `json:"subjectId" validate:"required"`
	ProgramID         string  `json:"programId" validate:"required"`
	EstimatedStudents *int    `json:"estimatedStudents" validate:"omitempty,min=1"`
	PreferredShift    *string `json:"preferredShift" validate:"omitempty,oneof=MORNING AFTERNOON EVENING"`
	AssignedTeacherID *string `json:"assignedTeacherId"`
}

// GroupService handles group catalog workflows.
type GroupService struct {
	repo      groupRepository
	subjects  groupSubjectReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService creates a new group service.
func NewGroupService(repo groupRepository, subjects groupSubjectReader, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

// List returns paginated groups.
func (s *GroupService) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, *models.Pagination, error) {
	groups, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return groups, pagination, nil
}

// Get returns a group by identifier.
func (s *GroupService) Get(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}

// Create adds a new group after verifying the subject exists.
func (s *GroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	group := &models.Group{
		Code:              strings.ToUpper(strings.TrimSpace(req.Code)),
		SubjectID:         req.SubjectID,
		ProgramID:         req.ProgramID,
		PeriodID:          req.PeriodID,
		EstimatedStudents: req.EstimatedStudents,
		PreferredShift:    shiftPtr(req.PreferredShift),
		AssignedTeacherID: req.AssignedTeacherID,
	}

	if err := s.repo.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	return group, nil
}

// Update modifies an existing group.
func (s *GroupService) Update(ctx context.Context, id string, req UpdateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	group.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	group.SubjectID = req.SubjectID
	group.ProgramID = req.ProgramID
	group.EstimatedStudents = req.EstimatedStudents
	group.PreferredShift = shiftPtr(req.PreferredShift)
	group.AssignedTeacherID = req.AssignedTeacherID

	if err := s.repo.Update(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
	}
	return group, nil
}

// Delete removes a group.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}
	return nil
}

func shiftPtr(raw *string) *models.Shift {
	if raw == nil || *raw == "" {
		return nil
	}
	shift := models.Shift(*raw)
	return &shift
}
