package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-sync/timetable-api/internal/models"
)

// ConstraintRuleRepository handles persistence for configurable scheduling rules.
type ConstraintRuleRepository struct {
	db *sqlx.DB
}

// NewConstraintRuleRepository creates a new constraint rule repository.
func NewConstraintRuleRepository(db *sqlx.DB) *ConstraintRuleRepository {
	return &ConstraintRuleRepository{db: db}
}

const constraintRuleColumns = "id, code, description, scope, entity_id_1, entity_id_2, param, period_id, active, created_at, updated_at"

// ListActiveForPeriod returns active rules that apply to the given period,
// either period-scoped or global (period_id IS NULL), in stable order.
func (r *ConstraintRuleRepository) ListActiveForPeriod(ctx context.Context, periodID string) ([]models.ConstraintRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM constraint_rules
		WHERE active = TRUE AND (period_id IS NULL OR period_id = $1)
		ORDER BY code ASC, id ASC`, constraintRuleColumns)
	var rules []models.ConstraintRule
	if err := r.db.SelectContext(ctx, &rules, query, periodID); err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	return rules, nil
}

// List returns constraint rules with optional filtering and pagination.
func (r *ConstraintRuleRepository) List(ctx context.Context, filter models.ConstraintRuleFilter) ([]models.ConstraintRule, int, error) {
	base := "FROM constraint_rules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Code != "" {
		conditions = append(conditions, fmt.Sprintf("code = $%d", len(args)+1))
		args = append(args, filter.Code)
	}
	if filter.Scope != "" {
		conditions = append(conditions, fmt.Sprintf("scope = $%d", len(args)+1))
		args = append(args, filter.Scope)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("(period_id IS NULL OR period_id = $%d)", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY code ASC, id ASC LIMIT %d OFFSET %d", constraintRuleColumns, base, size, offset)
	var rules []models.ConstraintRule
	if err := r.db.SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rules: %w", err)
	}

	return rules, total, nil
}

// FindByID returns one rule by id.
func (r *ConstraintRuleRepository) FindByID(ctx context.Context, id string) (*models.ConstraintRule, error) {
	query := fmt.Sprintf("SELECT %s FROM constraint_rules WHERE id = $1", constraintRuleColumns)
	var rule models.ConstraintRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create inserts one rule.
func (r *ConstraintRuleRepository) Create(ctx context.Context, rule *models.ConstraintRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO constraint_rules (%s) VALUES (:id, :code, :description, :scope, :entity_id_1, :entity_id_2, :param, :period_id, :active, :created_at, :updated_at)`, constraintRuleColumns)
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

// Update rewrites one rule.
func (r *ConstraintRuleRepository) Update(ctx context.Context, rule *models.ConstraintRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE constraint_rules
		SET code = :code, description = :description, scope = :scope,
		    entity_id_1 = :entity_id_1, entity_id_2 = :entity_id_2,
		    param = :param, period_id = :period_id, active = :active,
		    updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rule rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes one rule by id.
func (r *ConstraintRuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM constraint_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rule rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
