package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hagwon-ops/timetable-api/internal/service"
	appErrors "github.com/hagwon-ops/timetable-api/pkg/errors"
	"github.com/hagwon-ops/timetable-api/pkg/response"
)

// CompatibilityHandler manages the class-type compatibility rule table.
type CompatibilityHandler struct {
	service *service.CompatibilityService
}

// NewCompatibilityHandler constructs handler.
func NewCompatibilityHandler(svc *service.CompatibilityService) *CompatibilityHandler {
	return &CompatibilityHandler{service: svc}
}

// List godoc
// @Summary List compatibility rules
// @Tags Compatibility
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /compatibility-rules [get]
func (h *CompatibilityHandler) List(c *gin.Context) {
	rules, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Upsert godoc
// @Summary Create or replace a compatibility rule
// @Tags Compatibility
// @Accept json
// @Produce json
// @Param payload body service.UpsertCompatibilityRuleRequest true "Rule"
// @Success 200 {object} response.Envelope
// @Router /compatibility-rules [put]
func (h *CompatibilityHandler) Upsert(c *gin.Context) {
	var req service.UpsertCompatibilityRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	rule, err := h.service.UpsertRule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}
