package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-sync/timetable-api/internal/models"
)

// AvailabilityRepository handles persistence for teacher availability records.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = "id, teacher_id, period_id, day_of_week, time_block_id, available, preference, source, created_at, updated_at"

// List returns availability records with optional filtering and pagination.
func (r *AvailabilityRepository) List(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityRecord, int, error) {
	base := "FROM teacher_availability WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.DayOfWeek)
	}
	if filter.Available != nil {
		conditions = append(conditions, fmt.Sprintf("available = $%d", len(args)+1))
		args = append(args, *filter.Available)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY teacher_id ASC, day_of_week ASC, time_block_id ASC LIMIT %d OFFSET %d", availabilityColumns, base, size, offset)
	var records []models.AvailabilityRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list availability: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count availability: %w", err)
	}

	return records, total, nil
}

// ListAvailableByPeriod returns the available slots of a period for snapshot
// loading. Records flagged unavailable are skipped at the query level.
func (r *AvailabilityRepository) ListAvailableByPeriod(ctx context.Context, periodID string) ([]models.AvailabilityRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_availability WHERE period_id = $1 AND available = TRUE ORDER BY teacher_id ASC, day_of_week ASC, time_block_id ASC", availabilityColumns)
	var records []models.AvailabilityRecord
	if err := r.db.SelectContext(ctx, &records, query, periodID); err != nil {
		return nil, fmt.Errorf("list availability by period: %w", err)
	}
	return records, nil
}

// Upsert creates or updates one availability record keyed by
// (teacher, period, day, block).
func (r *AvailabilityRepository) Upsert(ctx context.Context, record *models.AvailabilityRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if record.Source == "" {
		record.Source = models.AvailabilitySourceManual
	}

	const query = `INSERT INTO teacher_availability (id, teacher_id, period_id, day_of_week, time_block_id, available, preference, source, created_at, updated_at)
		VALUES (:id, :teacher_id, :period_id, :day_of_week, :time_block_id, :available, :preference, :source, :created_at, :updated_at)
		ON CONFLICT (teacher_id, period_id, day_of_week, time_block_id) DO UPDATE
		SET available = EXCLUDED.available,
		    preference = EXCLUDED.preference,
		    source = EXCLUDED.source,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert availability: %w", err)
	}
	return nil
}

// ReplaceForTeacherPeriod swaps all records of one (teacher, period) pair for
// the provided set inside a single transaction.
func (r *AvailabilityRepository) ReplaceForTeacherPeriod(ctx context.Context, teacherID, periodID string, records []models.AvailabilityRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace availability: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM teacher_availability WHERE teacher_id = $1 AND period_id = $2`, teacherID, periodID); err != nil {
		return fmt.Errorf("clear availability: %w", err)
	}

	now := time.Now().UTC()
	for i := range records {
		record := records[i]
		record.TeacherID = teacherID
		record.PeriodID = periodID
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		record.UpdatedAt = now
		if record.Source == "" {
			record.Source = models.AvailabilitySourceImported
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO teacher_availability (id, teacher_id, period_id, day_of_week, time_block_id, available, preference, source, created_at, updated_at) VALUES (:id, :teacher_id, :period_id, :day_of_week, :time_block_id, :available, :preference, :source, :created_at, :updated_at)`, &record); err != nil {
			return fmt.Errorf("insert availability: %w", err)
		}
		records[i] = record
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace availability: %w", err)
	}
	return nil
}
