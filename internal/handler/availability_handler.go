package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-sync/timetable-api/internal/dto"
	"github.com/campus-sync/timetable-api/internal/models"
	"github.com/campus-sync/timetable-api/internal/service"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
	"github.com/campus-sync/timetable-api/pkg/response"
)

// AvailabilityHandler handles teacher availability endpoints.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// List godoc
// @Summary List availability records
// @Tags Availability
// @Produce json
// @Param teacherId query string false "Filter by teacher"
// @Param periodId query string false "Filter by period"
// @Param day query int false "Filter by day of week"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	var filter models.AvailabilityFilter
	filter.TeacherID = c.Query("teacherId")
	filter.PeriodID = c.Query("periodId")
	if raw := c.Query("day"); raw != "" {
		if day, err := strconv.Atoi(raw); err == nil {
			filter.DayOfWeek = &day
		}
	}
	if raw := c.Query("available"); raw != "" {
		if avail, err := strconv.ParseBool(raw); err == nil {
			filter.Available = &avail
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}

	records, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Upsert godoc
// @Summary Upsert a single availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.UpsertAvailabilityRequest true "Availability slot"
// @Success 200 {object} response.Envelope
// @Router /availability [put]
func (h *AvailabilityHandler) Upsert(c *gin.Context) {
	var req dto.UpsertAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	record, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Replace godoc
// @Summary Replace all availability for a teacher and period
// @Description Replaces every availability slot for the teacher in the period, typically from an imported grid.
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceAvailabilityRequest true "Availability grid"
// @Success 200 {object} response.Envelope
// @Router /availability/replace [post]
func (h *AvailabilityHandler) Replace(c *gin.Context) {
	var req dto.ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	count, err := h.service.Replace(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"replaced": count}, nil)
}
