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

type constraintRuleRepository interface {
	List(ctx context.Context, filter models.ConstraintRuleFilter) ([]models.ConstraintRule, int, error)
	FindByID(ctx context.Context, id string) (*models.ConstraintRule, error)
	Create(ctx context.Context, rule *models.ConstraintRule) error
	Update(ctx context.Context, rule *models.ConstraintRule) error
	Delete(ctx context.Context, id string) error
}

// ConstraintRuleRequest captures fields for creating or updating a rule.
type ConstraintRuleRequest struct {
	Code        string  `json:"code" validate:"required"`
	Description string  `json:"description"`
	Scope       string  `json:"scope" validate:"required,oneof=GLOBAL TEACHER SUBJECT ROOM PROGRAM PERIOD"`
	EntityID1   *string `json:"entityId1"`
	EntityID2   *string `json:"entityId2"`
	Param       *string `json:"param"`
	PeriodID    *string `json:"periodId"`
	Active      bool    `json:"active"`
}

// ConstraintRuleService manages configured scheduling rules. Saving a rule
// with a code outside the engine's vocabulary is allowed but logged: the
// engine will ignore it at generation time.
type ConstraintRuleService struct {
	repo      constraintRuleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConstraintRuleService creates a new constraint rule service.
func NewConstraintRuleService(repo constraintRuleRepository, validate *validator.Validate, logger *zap.Logger) *ConstraintRuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintRuleService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated rules.
func (s *ConstraintRuleService) List(ctx context.Context, filter models.ConstraintRuleFilter) ([]models.ConstraintRule, *models.Pagination, error) {
	rules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
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
	return rules, pagination, nil
}

// Get returns a rule by identifier.
func (s *ConstraintRuleService) Get(ctx context.Context, id string) (*models.ConstraintRule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rule")
	}
	return rule, nil
}

// Create adds a new rule.
func (s *ConstraintRuleService) Create(ctx context.Context, req ConstraintRuleRequest) (*models.ConstraintRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	s.warnUnrecognized(code)

	rule := &models.ConstraintRule{
		Code:        code,
		Description: req.Description,
		Scope:       models.RuleScope(req.Scope),
		EntityID1:   req.EntityID1,
		EntityID2:   req.EntityID2,
		Param:       req.Param,
		PeriodID:    req.PeriodID,
		Active:      req.Active,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rule")
	}
	return rule, nil
}

// Update modifies an existing rule.
func (s *ConstraintRuleService) Update(ctx context.Context, id string, req ConstraintRuleRequest) (*models.ConstraintRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}

	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rule")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	s.warnUnrecognized(code)

	rule.Code = code
	rule.Description = req.Description
	rule.Scope = models.RuleScope(req.Scope)
	rule.EntityID1 = req.EntityID1
	rule.EntityID2 = req.EntityID2
	rule.Param = req.Param
	rule.PeriodID = req.PeriodID
	rule.Active = req.Active

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rule")
	}
	return rule, nil
}

// Delete removes a rule.
func (s *ConstraintRuleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rule")
	}
	return nil
}

func (s *ConstraintRuleService) warnUnrecognized(code string) {
	if !recognizedRuleCodes[code] {
		s.logger.Warn("saving constraint rule with code outside the engine vocabulary", zap.String("code", code))
	}
}
