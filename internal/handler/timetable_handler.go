package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hagwon-ops/timetable-api/internal/models"
	"github.com/hagwon-ops/timetable-api/internal/service"
	appErrors "github.com/hagwon-ops/timetable-api/pkg/errors"
	"github.com/hagwon-ops/timetable-api/pkg/response"
)

// TimetableHandler serves the materialized weekly views.
type TimetableHandler struct {
	service *service.WeekService
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc *service.WeekService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Week godoc
// @Summary Materialized weekly timetable
// @Tags Timetable
// @Produce json
// @Param week_start query string true "Monday of the requested week (YYYY-MM-DD)"
// @Param instructor_id query string false "Narrow to one instructor (staff only)"
// @Param student_id query string false "Narrow to one student (staff only)"
// @Success 200 {object} response.Envelope
// @Router /timetable/week [get]
func (h *TimetableHandler) Week(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	weekStart, err := time.Parse("2006-01-02", c.Query("week_start"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week_start must be YYYY-MM-DD"))
		return
	}

	role, viewerID := claims.Role, claims.ActorID
	if role == models.ViewerRoleStaff {
		// Staff may narrow the view to one instructor's or one student's scope.
		if id := c.Query("instructor_id"); id != "" {
			role, viewerID = models.ViewerRoleInstructor, id
		} else if id := c.Query("student_id"); id != "" {
			role, viewerID = models.ViewerRoleStudent, id
		}
	}

	view, err := h.service.FetchWeek(c.Request.Context(), weekStart, role, viewerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
