package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hagwon-ops/timetable-api/internal/service"
	appErrors "github.com/hagwon-ops/timetable-api/pkg/errors"
	"github.com/hagwon-ops/timetable-api/pkg/response"
)

// ImportHandler serves the bulk roster import.
type ImportHandler struct {
	service *service.ImportService
}

// NewImportHandler constructs handler.
func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{service: svc}
}

type importRequest struct {
	Rows []service.ImportRow `json:"rows"`
}

// Import godoc
// @Summary Bulk import class rows
// @Tags Import
// @Accept json
// @Produce json
// @Param payload body importRequest true "Import rows"
// @Success 200 {object} response.Envelope
// @Router /import/classes [post]
func (h *ImportHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	summary, err := h.service.ImportBatch(c.Request.Context(), req.Rows, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
