package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-sync/timetable-api/internal/dto"
	"github.com/campus-sync/timetable-api/internal/models"
)

// AssignmentRepository handles persistence for schedule assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = "id, group_id, teacher_id, room_id, period_id, day_of_week, time_block_id, status, notes, created_at, updated_at"

// FindConflict reports whether the given slot would collide with a persisted
// assignment. Checks run in a fixed order so the reported kind is stable:
// teacher first, then room, then group. Cancelled assignments do not block.
func (r *AssignmentRepository) FindConflict(ctx context.Context, periodID string, day int, blockID, teacherID, roomID, groupID string) (models.ConflictKind, error) {
	return r.findConflict(ctx, periodID, day, blockID, teacherID, roomID, groupID, "", "status <> $5", models.AssignmentStatusCancelled)
}

// FindConflictExcluding is FindConflict with one assignment left out of the
// checks, used when validating an update against everything but itself.
func (r *AssignmentRepository) FindConflictExcluding(ctx context.Context, periodID string, day int, blockID, teacherID, roomID, groupID, excludeID string) (models.ConflictKind, error) {
	return r.findConflict(ctx, periodID, day, blockID, teacherID, roomID, groupID, excludeID, "status <> $5", models.AssignmentStatusCancelled)
}

// FindConfirmedConflict is like FindConflict but only confirmed assignments
// block. Generation runs use it: scheduled rows belong to the set being
// replaced, while confirmed rows survive regeneration and keep their slots.
func (r *AssignmentRepository) FindConfirmedConflict(ctx context.Context, periodID string, day int, blockID, teacherID, roomID, groupID string) (models.ConflictKind, error) {
	return r.findConflict(ctx, periodID, day, blockID, teacherID, roomID, groupID, "", "status = $5", models.AssignmentStatusConfirmed)
}

func (r *AssignmentRepository) findConflict(ctx context.Context, periodID string, day int, blockID, teacherID, roomID, groupID, excludeID, statusCond string, status models.AssignmentStatus) (models.ConflictKind, error) {
	checks := []struct {
		kind   models.ConflictKind
		column string
		value  string
	}{
		{models.ConflictTeacher, "teacher_id", teacherID},
		{models.ConflictRoom, "room_id", roomID},
		{models.ConflictGroup, "group_id", groupID},
	}

	exclusion := ""
	for _, check := range checks {
		args := []interface{}{periodID, day, blockID, check.value, status}
		if excludeID != "" {
			exclusion = " AND id <> $6"
			args = append(args, excludeID)
		}
		query := fmt.Sprintf(`SELECT EXISTS (
			SELECT 1 FROM assignments
			WHERE period_id = $1 AND day_of_week = $2 AND time_block_id = $3
			  AND %s = $4 AND %s%s
		)`, check.column, statusCond, exclusion)
		var exists bool
		if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
			return models.ConflictNone, fmt.Errorf("check %s: %w", check.kind, err)
		}
		if exists {
			return check.kind, nil
		}
	}
	return models.ConflictNone, nil
}

// List returns assignments with optional filtering and pagination.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	base := "FROM assignments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.DayOfWeek)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_of_week ASC, time_block_id ASC, id ASC LIMIT %d OFFSET %d", assignmentColumns, base, size, offset)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}

	return assignments, total, nil
}

// FindByID returns one assignment by id.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := fmt.Sprintf("SELECT %s FROM assignments WHERE id = $1", assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListTimetable returns the joined timetable rows of a period ordered by day
// and block start time.
func (r *AssignmentRepository) ListTimetable(ctx context.Context, periodID string) ([]dto.TimetableEntry, error) {
	const query = `SELECT a.id AS assignment_id,
			g.code AS group_code,
			s.code AS subject_code,
			s.name AS subject_name,
			t.full_name AS teacher_name,
			r.name AS room_name,
			a.day_of_week,
			b.name AS block_name,
			b.start_time,
			b.end_time,
			a.status
		FROM assignments a
		JOIN groups g ON g.id = a.group_id
		JOIN subjects s ON s.id = g.subject_id
		JOIN teachers t ON t.id = a.teacher_id
		JOIN rooms r ON r.id = a.room_id
		JOIN time_blocks b ON b.id = a.time_block_id
		WHERE a.period_id = $1 AND a.status <> $2
		ORDER BY a.day_of_week ASC, b.start_time ASC, g.code ASC`
	var entries []dto.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, periodID, models.AssignmentStatusCancelled); err != nil {
		return nil, fmt.Errorf("list timetable: %w", err)
	}
	return entries, nil
}

// ReplaceForPeriod swaps the generated assignment set of a period in one
// transaction. Confirmed assignments survive the replace; the previous
// schedule stays visible until the commit.
func (r *AssignmentRepository) ReplaceForPeriod(ctx context.Context, periodID string, assignments []models.Assignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace assignments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM assignments WHERE period_id = $1 AND status <> $2`, periodID, models.AssignmentStatusConfirmed); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}

	now := time.Now().UTC()
	for i := range assignments {
		assignment := assignments[i]
		assignment.PeriodID = periodID
		if assignment.ID == "" {
			assignment.ID = uuid.NewString()
		}
		if assignment.Status == "" {
			assignment.Status = models.AssignmentStatusScheduled
		}
		if assignment.CreatedAt.IsZero() {
			assignment.CreatedAt = now
		}
		assignment.UpdatedAt = now
		if _, err = sqlx.NamedExecContext(ctx, tx, fmt.Sprintf(`INSERT INTO assignments (%s) VALUES (:id, :group_id, :teacher_id, :room_id, :period_id, :day_of_week, :time_block_id, :status, :notes, :created_at, :updated_at)`, assignmentColumns), &assignment); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
		assignments[i] = assignment
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace assignments: %w", err)
	}
	return nil
}

// Create inserts one assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.Status == "" {
		assignment.Status = models.AssignmentStatusScheduled
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO assignments (%s) VALUES (:id, :group_id, :teacher_id, :room_id, :period_id, :day_of_week, :time_block_id, :status, :notes, :created_at, :updated_at)`, assignmentColumns)
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update rewrites one assignment.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments
		SET group_id = :group_id, teacher_id = :teacher_id, room_id = :room_id,
		    day_of_week = :day_of_week, time_block_id = :time_block_id,
		    status = :status, notes = :notes, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assignment rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes one assignment by id.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete assignment rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
