package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-sync/timetable-api/internal/dto"
	"github.com/campus-sync/timetable-api/internal/models"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
	"github.com/campus-sync/timetable-api/pkg/export"
)

// ExportFormat names a supported timetable export rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type timetableProvider interface {
	Timetable(ctx context.Context, periodID string) (*dto.TimetableView, error)
}

type exportPeriodReader interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportPayload is one rendered timetable document.
type ExportPayload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the timetable of a period as CSV or PDF.
type ExportService struct {
	timetables timetableProvider
	periods    exportPeriodReader
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(timetables timetableProvider, periods exportPeriodReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{timetables: timetables, periods: periods, csv: csv, pdf: pdf, logger: logger}
}

// Export renders the period timetable in the requested format.
func (s *ExportService) Export(ctx context.Context, periodID string, format ExportFormat) (*ExportPayload, error) {
	period, err := s.periods.FindByID(ctx, periodID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	view, err := s.timetables.Timetable(ctx, periodID)
	if err != nil {
		return nil, err
	}
	dataset := timetableDataset(view.Entries)
	title := fmt.Sprintf("Timetable %s", period.Name)

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}

	return &ExportPayload{
		Filename:    exportFilename(period.Name, format),
		ContentType: contentType,
		Data:        payload,
	}, nil
}

func timetableDataset(entries []dto.TimetableEntry) export.Dataset {
	headers := []string{"Day", "Block", "Start", "End", "Group", "Subject", "Teacher", "Room", "Status"}
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, map[string]string{
			"Day":     models.DayName(entry.DayOfWeek),
			"Block":   entry.BlockName,
			"Start":   entry.StartTime,
			"End":     entry.EndTime,
			"Group":   entry.GroupCode,
			"Subject": fmt.Sprintf("%s %s", entry.SubjectCode, entry.SubjectName),
			"Teacher": entry.TeacherName,
			"Room":    entry.RoomName,
			"Status":  entry.Status,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func exportFilename(periodName string, format ExportFormat) string {
	sanitized := strings.ToLower(strings.TrimSpace(periodName))
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-")
	sanitized = replacer.Replace(sanitized)
	if sanitized == "" {
		sanitized = "period"
	}
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("timetable_%s_%s.%s", sanitized, timestamp, format)
}
