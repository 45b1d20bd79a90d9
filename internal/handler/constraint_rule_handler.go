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

// ConstraintRuleHandler handles constraint rule endpoints.
type ConstraintRuleHandler struct {
	service *service.ConstraintRuleService
}

// NewConstraintRuleHandler constructs a constraint rule handler.
func NewConstraintRuleHandler(svc *service.ConstraintRuleService) *ConstraintRuleHandler {
	return &ConstraintRuleHandler{service: svc}
}

// List godoc
// @Summary List constraint rules
// @Tags ConstraintRules
// @Produce json
// @Param code query string false "Filter by rule code"
// @Param scope query string false "Filter by scope"
// @Param periodId query string false "Filter by period"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /constraint-rules [get]
func (h *ConstraintRuleHandler) List(c *gin.Context) {
	var filter models.ConstraintRuleFilter
	filter.Code = c.Query("code")
	filter.Scope = models.RuleScope(c.Query("scope"))
	filter.PeriodID = c.Query("periodId")
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	rules, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, pagination)
}

// Get godoc
// @Summary Get constraint rule by id
// @Tags ConstraintRules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} response.Envelope
// @Router /constraint-rules/{id} [get]
func (h *ConstraintRuleHandler) Get(c *gin.Context) {
	rule, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Create godoc
// @Summary Create constraint rule
// @Description Rules with codes outside the recognized vocabulary are accepted but ignored by the generator.
// @Tags ConstraintRules
// @Accept json
// @Produce json
// @Param payload body service.ConstraintRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /constraint-rules [post]
func (h *ConstraintRuleHandler) Create(c *gin.Context) {
	var req service.ConstraintRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// Update godoc
// @Summary Update constraint rule
// @Tags ConstraintRules
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body service.ConstraintRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /constraint-rules/{id} [put]
func (h *ConstraintRuleHandler) Update(c *gin.Context) {
	var req service.ConstraintRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Delete constraint rule
// @Tags ConstraintRules
// @Param id path string true "Rule ID"
// @Success 204
// @Router /constraint-rules/{id} [delete]
func (h *ConstraintRuleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
