package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/hagwon-ops/timetable-api/internal/middleware"
	"github.com/hagwon-ops/timetable-api/internal/models"
	"github.com/hagwon-ops/timetable-api/internal/service"
)

type weekClassRepoMock struct{}

func (weekClassRepoMock) ListRecurringIntersectingRange(_ context.Context, _, _ time.Time) ([]models.ClassDefinition, error) {
	return []models.ClassDefinition{
		{
			ID:            "class-1",
			Placement:     models.RecurringPlacement(2),
			InstructorID:  "inst-1",
			SubjectCode:   "MATH",
			ClassTypeCode: "GROUP",
			StartMin:      600,
			EndMin:        660,
			Status:        models.ClassStatusScheduled,
		},
	}, nil
}

func (weekClassRepoMock) ListOneOffInRange(_ context.Context, _, _ time.Time) ([]models.ClassDefinition, error) {
	return nil, nil
}

type weekEnrollmentRepoMock struct{}

func (weekEnrollmentRepoMock) ListByClassIDs(_ context.Context, _ []string) ([]models.EnrollmentDetail, error) {
	return []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ClassID: "class-1", StudentID: "stu-1"}, StudentName: "Mina Park"},
	}, nil
}

func (weekEnrollmentRepoMock) ListClassIDsByStudent(_ context.Context, studentID string) ([]string, error) {
	if studentID == "stu-1" {
		return []string{"class-1"}, nil
	}
	return nil, nil
}

type weekOverrideRepoMock struct{}

func (weekOverrideRepoMock) ListForClassesInRange(_ context.Context, _ []string, _, _ time.Time) ([]models.Override, error) {
	return nil, nil
}

type instructorNamesMock struct{}

func (instructorNamesMock) NamesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		out[id] = "Instructor " + id
	}
	return out, nil
}

func newTimetableHandler() *TimetableHandler {
	svc := service.NewWeekService(weekClassRepoMock{}, weekEnrollmentRepoMock{}, weekOverrideRepoMock{}, instructorNamesMock{}, nil, 0, nil, nil, nil)
	return NewTimetableHandler(svc)
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{ActorID: "staff-1", Role: models.ViewerRoleStaff}
}

func TestTimetableWeekRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimetableHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/week?week_start=2026-03-09", nil)
	c.Request = req

	handler.Week(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTimetableWeekRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimetableHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/week?week_start=bad", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, staffClaims())

	handler.Week(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableWeekRejectsNonMonday(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimetableHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/week?week_start=2026-03-10", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, staffClaims())

	handler.Week(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableWeekStaffView(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimetableHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/week?week_start=2026-03-09", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, staffClaims())

	handler.Week(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.WeekView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Events, 1)
	require.Equal(t, "class-1", envelope.Data.Events[0].ClassID)
	require.Equal(t, "Instructor inst-1", envelope.Data.Events[0].InstructorName)
}

func TestTimetableWeekStaffCanNarrowToStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimetableHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/week?week_start=2026-03-09&student_id=stu-unknown", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, staffClaims())

	handler.Week(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data models.WeekView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Empty(t, envelope.Data.Events)
}
