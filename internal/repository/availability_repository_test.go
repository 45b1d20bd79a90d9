package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-sync/timetable-api/internal/models"
)

func newAvailabilityRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func availabilityRows(records ...models.AvailabilityRecord) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "period_id", "day_of_week", "time_block_id", "available", "preference", "source", "created_at", "updated_at"})
	for _, r := range records {
		rows.AddRow(r.ID, r.TeacherID, r.PeriodID, r.DayOfWeek, r.TimeBlockID, r.Available, r.Preference, r.Source, r.CreatedAt, r.UpdatedAt)
	}
	return rows
}

func TestAvailabilityRepositoryListAvailableByPeriod(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_availability WHERE period_id = $1 AND available = TRUE ORDER BY teacher_id ASC, day_of_week ASC, time_block_id ASC")).
		WithArgs("period-1").
		WillReturnRows(availabilityRows(
			models.AvailabilityRecord{ID: "av-1", TeacherID: "teacher-1", PeriodID: "period-1", DayOfWeek: 1, TimeBlockID: "block-1", Available: true, Preference: 2, Source: models.AvailabilitySourceManual},
			models.AvailabilityRecord{ID: "av-2", TeacherID: "teacher-1", PeriodID: "period-1", DayOfWeek: 1, TimeBlockID: "block-2", Available: true, Preference: 0, Source: models.AvailabilitySourceManual},
		))

	records, err := repo.ListAvailableByPeriod(context.Background(), "period-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "block-1", records[0].TimeBlockID)
	assert.Equal(t, 2, records[0].Preference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListFiltersByTeacherAndDay(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	day := 3
	base := "FROM teacher_availability WHERE 1=1 AND teacher_id = $1 AND day_of_week = $2"
	mock.ExpectQuery(regexp.QuoteMeta(base + " ORDER BY teacher_id ASC, day_of_week ASC, time_block_id ASC LIMIT 50 OFFSET 0")).
		WithArgs("teacher-1", day).
		WillReturnRows(availabilityRows(
			models.AvailabilityRecord{ID: "av-1", TeacherID: "teacher-1", PeriodID: "period-1", DayOfWeek: 3, TimeBlockID: "block-1", Available: true, Preference: 1, Source: models.AvailabilitySourceManual},
		))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) " + base)).
		WithArgs("teacher-1", day).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.AvailabilityFilter{TeacherID: "teacher-1", DayOfWeek: &day})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "av-1", records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec("(?s)INSERT INTO teacher_availability.+ON CONFLICT \\(teacher_id, period_id, day_of_week, time_block_id\\) DO UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &models.AvailabilityRecord{
		TeacherID:   "teacher-1",
		PeriodID:    "period-1",
		DayOfWeek:   2,
		TimeBlockID: "block-1",
		Available:   true,
		Preference:  1,
	}
	err := repo.Upsert(context.Background(), record)
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, models.AvailabilitySourceManual, record.Source)
	assert.False(t, record.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceForTeacherPeriod(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_availability WHERE teacher_id = $1 AND period_id = $2")).
		WithArgs("teacher-1", "period-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO teacher_availability").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO teacher_availability").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	records := []models.AvailabilityRecord{
		{DayOfWeek: 1, TimeBlockID: "block-1", Available: true, Preference: 1},
		{DayOfWeek: 2, TimeBlockID: "block-2", Available: true, Preference: 0},
	}
	err := repo.ReplaceForTeacherPeriod(context.Background(), "teacher-1", "period-1", records)
	require.NoError(t, err)

	for _, record := range records {
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, "teacher-1", record.TeacherID)
		assert.Equal(t, "period-1", record.PeriodID)
		assert.Equal(t, models.AvailabilitySourceImported, record.Source)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_availability WHERE teacher_id = $1 AND period_id = $2")).
		WithArgs("teacher-1", "period-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO teacher_availability").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	records := []models.AvailabilityRecord{{DayOfWeek: 1, TimeBlockID: "block-1", Available: true}}
	err := repo.ReplaceForTeacherPeriod(context.Background(), "teacher-1", "period-1", records)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
