package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-sync/timetable-api/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func existsRow(exists bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(exists)
}

func TestAssignmentRepositoryFindConflictTeacher(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("period-1", 1, "block-1", "teacher-1", string(models.AssignmentStatusCancelled)).
		WillReturnRows(existsRow(true))

	kind, err := repo.FindConflict(context.Background(), "period-1", 1, "block-1", "teacher-1", "room-1", "group-1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictTeacher, kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindConflictChecksAllAxes(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	// Teacher and room are free, group is taken.
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("period-1", 1, "block-1", "teacher-1", string(models.AssignmentStatusCancelled)).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("period-1", 1, "block-1", "room-1", string(models.AssignmentStatusCancelled)).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("period-1", 1, "block-1", "group-1", string(models.AssignmentStatusCancelled)).
		WillReturnRows(existsRow(true))

	kind, err := repo.FindConflict(context.Background(), "period-1", 1, "block-1", "teacher-1", "room-1", "group-1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictGroup, kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindConfirmedConflictIgnoresScheduled(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	for i := 0; i < 3; i++ {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("period-1", 1, "block-1", sqlmock.AnyArg(), string(models.AssignmentStatusConfirmed)).
			WillReturnRows(existsRow(false))
	}

	kind, err := repo.FindConfirmedConflict(context.Background(), "period-1", 1, "block-1", "teacher-1", "room-1", "group-1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictNone, kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindConflictExcluding(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	for i := 0; i < 3; i++ {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("period-1", 1, "block-1", sqlmock.AnyArg(), string(models.AssignmentStatusCancelled), "assignment-1").
			WillReturnRows(existsRow(false))
	}

	kind, err := repo.FindConflictExcluding(context.Background(), "period-1", 1, "block-1", "teacher-1", "room-1", "group-1", "assignment-1")
	require.NoError(t, err)
	assert.Equal(t, models.ConflictNone, kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryReplaceForPeriod(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE period_id = $1 AND status <> $2")).
		WithArgs("period-1", string(models.AssignmentStatusConfirmed)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO assignments").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO assignments").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	staged := []models.Assignment{
		{GroupID: "group-1", TeacherID: "teacher-1", RoomID: "room-1", DayOfWeek: 1, TimeBlockID: "block-1"},
		{GroupID: "group-1", TeacherID: "teacher-1", RoomID: "room-1", DayOfWeek: 1, TimeBlockID: "block-2"},
	}
	err := repo.ReplaceForPeriod(context.Background(), "period-1", staged)
	require.NoError(t, err)
	for _, a := range staged {
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, "period-1", a.PeriodID)
		assert.Equal(t, models.AssignmentStatusScheduled, a.Status)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryReplaceForPeriodRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM assignments").
		WithArgs("period-1", string(models.AssignmentStatusConfirmed)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO assignments").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.ReplaceForPeriod(context.Background(), "period-1", []models.Assignment{
		{GroupID: "group-1", TeacherID: "teacher-1", RoomID: "room-1", DayOfWeek: 1, TimeBlockID: "block-1"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryReplaceForPeriodEmptySet(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM assignments").
		WithArgs("period-1", string(models.AssignmentStatusConfirmed)).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceForPeriod(context.Background(), "period-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryList(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "group_id", "teacher_id", "room_id", "period_id", "day_of_week", "time_block_id", "status", "notes", "created_at", "updated_at"}).
		AddRow("a1", "group-1", "teacher-1", "room-1", "period-1", 1, "block-1", "SCHEDULED", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE 1=1 AND period_id = $1 ORDER BY day_of_week ASC, time_block_id ASC, id ASC LIMIT 50 OFFSET 0")).
		WithArgs("period-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE 1=1 AND period_id = $1")).
		WithArgs("period-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.AssignmentFilter{PeriodID: "period-1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("UPDATE assignments").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Assignment{ID: "missing"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
