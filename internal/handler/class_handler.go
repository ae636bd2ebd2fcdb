package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hagwon-ops/timetable-api/internal/service"
	appErrors "github.com/hagwon-ops/timetable-api/pkg/errors"
	"github.com/hagwon-ops/timetable-api/pkg/response"
)

// ClassHandler manages class mutations: creation, status transitions, moves,
// overrides, and the status history.
type ClassHandler struct {
	service *service.ClassService
}

// NewClassHandler constructs handler.
func NewClassHandler(svc *service.ClassService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// CheckConflict godoc
// @Summary Dry-run conflict check for a candidate class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Candidate class"
// @Success 200 {object} response.Envelope
// @Router /classes/check-conflict [post]
func (h *ClassHandler) CheckConflict(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.service.CheckConflict(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create godoc
// @Summary Create a class with its initial enrollment
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Class and students"
// @Success 201 {object} response.Envelope
// @Success 409 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.service.CreateWithEnrollment(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Class == nil {
		// Conflict or capacity rejection is a structured outcome, not an error.
		response.JSON(c, http.StatusConflict, result, nil)
		return
	}
	response.Created(c, result)
}

// UpdateStatus godoc
// @Summary Transition a class's status
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.UpdateStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/status [patch]
func (h *ClassHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	def, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, def, nil)
}

// Move godoc
// @Summary Move a class to a new slot
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.MoveSlotRequest true "Destination slot"
// @Success 200 {object} response.Envelope
// @Success 409 {object} response.Envelope
// @Router /classes/{id}/move [post]
func (h *ClassHandler) Move(c *gin.Context) {
	var req service.MoveSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.service.MoveSlot(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Moved {
		response.JSON(c, http.StatusConflict, result, nil)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SetOverride godoc
// @Summary Create or replace a per-date override
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param date path string true "Occurrence date (YYYY-MM-DD)"
// @Param payload body service.SetOverrideRequest true "Override"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/overrides/{date} [put]
func (h *ClassHandler) SetOverride(c *gin.Context) {
	var req service.SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	ov, err := h.service.SetOverride(c.Request.Context(), c.Param("id"), c.Param("date"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ov, nil)
}

// DeleteOverride godoc
// @Summary Remove a per-date override
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param date path string true "Occurrence date (YYYY-MM-DD)"
// @Success 204
// @Router /classes/{id}/overrides/{date} [delete]
func (h *ClassHandler) DeleteOverride(c *gin.Context) {
	if err := h.service.DeleteOverride(c.Request.Context(), c.Param("id"), c.Param("date")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// StatusLogs godoc
// @Summary Status history of a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/logs [get]
func (h *ClassHandler) StatusLogs(c *gin.Context) {
	entries, err := h.service.StatusLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.ActorID
	}
	return ""
}
