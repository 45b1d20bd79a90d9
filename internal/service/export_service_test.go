package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-sync/timetable-api/internal/dto"
	"github.com/campus-sync/timetable-api/internal/models"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
	"github.com/campus-sync/timetable-api/pkg/export"
)

type timetableProviderStub struct {
	view *dto.TimetableView
}

func (s *timetableProviderStub) Timetable(ctx context.Context, periodID string) (*dto.TimetableView, error) {
	return s.view, nil
}

type exportPeriodReaderStub struct {
	period *models.Period
}

func (s *exportPeriodReaderStub) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if s.period == nil {
		return nil, sql.ErrNoRows
	}
	return s.period, nil
}

type csvRendererStub struct {
	dataset export.Dataset
}

func (s *csvRendererStub) Render(data export.Dataset) ([]byte, error) {
	s.dataset = data
	return []byte("csv-bytes"), nil
}

type pdfRendererStub struct {
	title string
}

func (s *pdfRendererStub) Render(data export.Dataset, title string) ([]byte, error) {
	s.title = title
	return []byte("pdf-bytes"), nil
}

func exportFixtureView() *dto.TimetableView {
	return &dto.TimetableView{
		PeriodID: "period-1",
		Entries: []dto.TimetableEntry{
			{
				AssignmentID: "assignment-1",
				GroupCode:    "G1",
				SubjectCode:  "MATH",
				SubjectName:  "Mathematics",
				TeacherName:  "A. Turing",
				RoomName:     "Room 101",
				DayOfWeek:    1,
				BlockName:    "Block 1",
				StartTime:    "07:00",
				EndTime:      "07:50",
				Status:       string(models.AssignmentStatusScheduled),
			},
		},
	}
}

func TestExportServiceCSV(t *testing.T) {
	csv := &csvRendererStub{}
	svc := NewExportService(
		&timetableProviderStub{view: exportFixtureView()},
		&exportPeriodReaderStub{period: &models.Period{ID: "period-1", Name: "2026 Spring"}},
		csv, &pdfRendererStub{}, nil,
	)

	payload, err := svc.Export(context.Background(), "period-1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", payload.ContentType)
	assert.Equal(t, []byte("csv-bytes"), payload.Data)
	assert.Regexp(t, `^timetable_2026_spring_\d{8}_\d{6}\.csv$`, payload.Filename)

	require.Len(t, csv.dataset.Rows, 1)
	row := csv.dataset.Rows[0]
	assert.Equal(t, "Monday", row["Day"])
	assert.Equal(t, "MATH Mathematics", row["Subject"])
	assert.Equal(t, "A. Turing", row["Teacher"])
}

func TestExportServicePDFUsesPeriodTitle(t *testing.T) {
	pdf := &pdfRendererStub{}
	svc := NewExportService(
		&timetableProviderStub{view: exportFixtureView()},
		&exportPeriodReaderStub{period: &models.Period{ID: "period-1", Name: "2026 Spring"}},
		&csvRendererStub{}, pdf, nil,
	)

	payload, err := svc.Export(context.Background(), "period-1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", payload.ContentType)
	assert.Equal(t, "Timetable 2026 Spring", pdf.title)
	assert.Regexp(t, `\.pdf$`, payload.Filename)
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc := NewExportService(
		&timetableProviderStub{view: exportFixtureView()},
		&exportPeriodReaderStub{period: &models.Period{ID: "period-1", Name: "2026 Spring"}},
		&csvRendererStub{}, &pdfRendererStub{}, nil,
	)

	_, err := svc.Export(context.Background(), "period-1", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServicePeriodNotFound(t *testing.T) {
	svc := NewExportService(
		&timetableProviderStub{view: exportFixtureView()},
		&exportPeriodReaderStub{},
		&csvRendererStub{}, &pdfRendererStub{}, nil,
	)

	_, err := svc.Export(context.Background(), "missing", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
