package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-sync/timetable-api/internal/models"
	"github.com/campus-sync/timetable-api/internal/service"
	appErrors "github.com/campus-sync/timetable-api/pkg/errors"
	"github.com/campus-sync/timetable-api/pkg/response"
)

// TimeBlockHandler handles time block endpoints.
type TimeBlockHandler struct {
	service *service.TimeBlockService
}

// NewTimeBlockHandler constructs a time block handler.
func NewTimeBlockHandler(svc *service.TimeBlockService) *TimeBlockHandler {
	return &TimeBlockHandler{service: svc}
}

// List godoc
// @Summary List time blocks
// @Tags TimeBlocks
// @Produce json
// @Param day query int false "Filter by day of week"
// @Param shift query string false "Filter by shift"
// @Success 200 {object} response.Envelope
// @Router /time-blocks [get]
func (h *TimeBlockHandler) List(c *gin.Context) {
	var filter models.TimeBlockFilter
	if raw := c.Query("day"); raw != "" {
		if day, err := strconv.Atoi(raw); err == nil {
			filter.DayOfWeek = &day
		}
	}
	filter.Shift = models.Shift(c.Query("shift"))

	blocks, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, nil)
}

// Get godoc
// @Summary Get time block by id
// @Tags TimeBlocks
// @Produce json
// @Param id path string true "Time block ID"
// @Success 200 {object} response.Envelope
// @Router /time-blocks/{id} [get]
func (h *TimeBlockHandler) Get(c *gin.Context) {
	block, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}

// Create godoc
// @Summary Create time block
// @Tags TimeBlocks
// @Accept json
// @Produce json
// @Param payload body service.TimeBlockRequest true "Time block payload"
// @Success 201 {object} response.Envelope
// @Router /time-blocks [post]
func (h *TimeBlockHandler) Create(c *gin.Context) {
	var req service.TimeBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// Update godoc
// @Summary Update time block
// @Tags TimeBlocks
// @Accept json
// @Produce json
// @Param id path string true "Time block ID"
// @Param payload body service.TimeBlockRequest true "Time block payload"
// @Success 200 {object} response.Envelope
// @Router /time-blocks/{id} [put]
func (h *TimeBlockHandler) Update(c *gin.Context) {
	var req service.TimeBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}

// Delete godoc
// @Summary Delete time block
// @Tags TimeBlocks
// @Param id path string true "Time block ID"
// @Success 204
// @Router /time-blocks/{id} [delete]
func (h *TimeBlockHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
