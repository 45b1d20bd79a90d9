package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-sync/timetable-api/internal/service"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
	"github.com/campus-sync/timetable-api/pkg/response"
)

// ExportHandler serves timetable exports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export timetable for a period
// @Description Streams the period timetable as a CSV or PDF attachment.
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Period ID"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /periods/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	if format != service.ExportFormatCSV && format != service.ExportFormatPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
		return
	}

	payload, err := h.service.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+payload.Filename+`"`)
	c.Data(http.StatusOK, payload.ContentType, payload.Data)
}
