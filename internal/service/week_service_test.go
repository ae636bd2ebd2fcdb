package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hagwon-ops/timetable-api/internal/models"
	appErrors "github.com/hagwon-ops/timetable-api/pkg/errors"
)

type mockWeekClassRepo struct {
	recurring      []models.ClassDefinition
	oneOffs        []models.ClassDefinition
	recurringCalls int
}

func (m *mockWeekClassRepo) ListRecurringIntersectingRange(_ context.Context, _, _ time.Time) ([]models.ClassDefinition, error) {
	m.recurringCalls++
	return m.recurring, nil
}

func (m *mockWeekClassRepo) ListOneOffInRange(_ context.Context, _, _ time.Time) ([]models.ClassDefinition, error) {
	return m.oneOffs, nil
}

type mockWeekEnrollmentRepo struct {
	details    []models.EnrollmentDetail
	byStudent  map[string][]string
	detailErrs error
}

func (m *mockWeekEnrollmentRepo) ListByClassIDs(_ context.Context, _ []string) ([]models.EnrollmentDetail, error) {
	return m.details, m.detailErrs
}

func (m *mockWeekEnrollmentRepo) ListClassIDsByStudent(_ context.Context, studentID string) ([]string, error) {
	return m.byStudent[studentID], nil
}

type mockWeekOverrideRepo struct {
	overrides []models.Override
}

func (m *mockWeekOverrideRepo) ListForClassesInRange(_ context.Context, _ []string, _, _ time.Time) ([]models.Override, error) {
	return m.overrides, nil
}

type mockInstructorNames struct {
	names map[string]string
	calls int
}

func (m *mockInstructorNames) NamesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	m.calls++
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := m.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

type stubWeekCache struct {
	store map[string][]byte
}

func (s *stubWeekCache) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubWeekCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

var testWeekStart = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) // Monday

func weekFixture() (*mockWeekClassRepo, *mockWeekEnrollmentRepo, *mockWeekOverrideRepo, *mockInstructorNames) {
	tuesday := recurringDef("class-tue", 2, 600, 660, "GROUP")
	wednesday := recurringDef("class-wed", 3, 540, 600, "GROUP")
	oneOffDate := testWeekStart.AddDate(0, 0, 3) // Thursday
	oneOff := models.ClassDefinition{
		ID:            "class-thu",
		Placement:     models.OneOffPlacement(oneOffDate),
		InstructorID:  "inst-2",
		SubjectCode:   "ENG",
		ClassTypeCode: "ONE_ON_ONE",
		StartMin:      720,
		EndMin:        780,
		Status:        models.ClassStatusScheduled,
	}
	classes := &mockWeekClassRepo{
		recurring: []models.ClassDefinition{tuesday, wednesday},
		oneOffs:   []models.ClassDefinition{oneOff},
	}
	enrollments := &mockWeekEnrollmentRepo{
		details: []models.EnrollmentDetail{
			{Enrollment: models.Enrollment{ClassID: "class-tue", StudentID: "stu-1"}, StudentName: "Mina Park"},
			{Enrollment: models.Enrollment{ClassID: "class-thu", StudentID: "stu-2"}, StudentName: "Jun Kim"},
		},
		byStudent: map[string][]string{"stu-1": {"class-tue"}},
	}
	overrides := &mockWeekOverrideRepo{}
	names := &mockInstructorNames{names: map[string]string{"inst-1": "Ha-eun Lee", "inst-2": "Derek Cho", "inst-3": "Sora Yun"}}
	return classes, enrollments, overrides, names
}

func TestFetchWeekMaterializesSortedEvents(t *testing.T) {
	classes, enrollments, overrides, names := weekFixture()
	svc := NewWeekService(classes, enrollments, overrides, names, nil, 0, nil, nil, nil)

	view, err := svc.FetchWeek(context.Background(), testWeekStart, models.ViewerRoleStaff, "staff-1")
	require.NoError(t, err)
	require.Len(t, view.Events, 3)
	assert.Equal(t, "class-tue", view.Events[0].ClassID)
	assert.Equal(t, "class-wed", view.Events[1].ClassID)
	assert.Equal(t, "class-thu", view.Events[2].ClassID)

	tue := view.Events[0]
	assert.Equal(t, testWeekStart.AddDate(0, 0, 1), tue.Date)
	assert.Equal(t, 2, tue.Weekday)
	assert.Equal(t, "Ha-eun Lee", tue.InstructorName)
	require.Len(t, tue.Students, 1)
	assert.Equal(t, "Mina Park", tue.Students[0].FullName)

	// Events without enrollments carry an empty list, not null.
	assert.NotNil(t, view.Events[1].Students)
	assert.Empty(t, view.Events[1].Students)
}

func TestFetchWeekRejectsNonMonday(t *testing.T) {
	classes, enrollments, overrides, names := weekFixture()
	svc := NewWeekService(classes, enrollments, overrides, names, nil, 0, nil, nil, nil)

	_, err := svc.FetchWeek(context.Background(), testWeekStart.AddDate(0, 0, 1), models.ViewerRoleStaff, "staff-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Monday")
}

func TestFetchWeekAppliesCancelOverride(t *testing.T) {
	classes, enrollments, overrides, names := weekFixture()
	overrides.overrides = []models.Override{
		{ClassID: "class-tue", Date: testWeekStart.AddDate(0, 0, 1), Action: models.OverrideActionCancel},
	}
	svc := NewWeekService(classes, enrollments, overrides, names, nil, 0, nil, nil, nil)

	view, err := svc.FetchWeek(context.Background(), testWeekStart, models.ViewerRoleStaff, "staff-1")
	require.NoError(t, err)
	require.Len(t, view.Events, 2)
	for _, ev := range view.Events {
		assert.NotEqual(t, "class-tue", ev.ClassID)
	}
}

func TestFetchWeekAppliesRescheduleOverride(t *testing.T) {
	classes, enrollments, overrides, names := weekFixture()
	altStart, altEnd := models.Clock(900), models.Clock(960)
	altInstructor := "inst-3"
	overrides.overrides = []models.Override{
		{
			ClassID:         "class-tue",
			Date:            testWeekStart.AddDate(0, 0, 1),
			Action:          models.OverrideActionReschedule,
			AltInstructorID: &altInstructor,
			AltStartMin:     &altStart,
			AltEndMin:       &altEnd,
		},
	}
	svc := NewWeekService(classes, enrollments, overrides, names, nil, 0, nil, nil, nil)

	view, err := svc.FetchWeek(context.Background(), testWeekStart, models.ViewerRoleStaff, "staff-1")
	require.NoError(t, err)

	var tue *models.WeekEvent
	for i := range view.Events {
		if view.Events[i].ClassID == "class-tue" {
			tue = &view.Events[i]
		}
	}
	require.NotNil(t, tue)
	assert.Equal(t, altStart, tue.StartMin)
	assert.Equal(t, altEnd, tue.EndMin)
	assert.Equal(t, "inst-3", tue.InstructorID)
	assert.Equal(t, "Sora Yun", tue.InstructorName)
	require.NotNil(t, tue.OverrideAction)
	assert.Equal(t, models.OverrideActionReschedule, *tue.OverrideAction)
}

func TestFetchWeekAppliesStatusOnlyOverride(t *testing.T) {
	classes, enrollments, overrides, names := weekFixture()
	altStatus := models.ClassStatusCanceled
	overrides.overrides = []models.Override{
		{ClassID: "class-tue", Date: testWeekStart.AddDate(0, 0, 1), Action: models.OverrideActionStatusOnly, AltStatus: &altStatus},
	}
	svc := NewWeekService(classes, enrollments, overrides, names, nil, 0, nil, nil, nil)

	view, err := svc.FetchWeek(context.Background(), testWeekStart, models.ViewerRoleStaff, "staff-1")
	require.NoError(t, err)
	require.Len(t, view.Events, 3)
	assert.Equal(t, models.ClassStatusCanceled, view.Events[0].Status)
	assert.Equal(t, models.Clock(600), view.Events[0].StartMin)
}

func TestFetchWeekInstructorScopeFollowsSubstitution(t *testing.T) {
	classes, enrollments, overrides, names := weekFixture()
	altInstructor := "inst-2"
	overrides.overrides = []models.Override{
		{ClassID: "class-tue", Date: testWeekStart.AddDate(0, 0, 1), Action: models.OverrideActionReschedule, AltInstructorID: &altInstructor},
	}
	svc := NewWeekService(classes, enrollments, overrides, names, nil, 0, nil, nil, nil)

	// inst-1 loses the substituted session.
	view, err := svc.FetchWeek(context.Background(), testWeekStart, models.ViewerRoleInstructor, "inst-1")
	require.NoError(t, err)
	require.Len(t, view.Events, 1)
	assert.Equal(t, "class-wed", view.Events[0].ClassID)

	// inst-2 gains it alongside their own one-off.
	view, err = svc.FetchWeek(context.Background(), testWeekStart, models.ViewerRoleInstructor, "inst-2")
	require.NoError(t, err)
	require.Len(t, view.Events, 2)
	assert.Equal(t, "class-tue", view.Events[0].ClassID)
	assert.Equal(t, "class-thu", view.Events[1].ClassID)
}

func TestFetchWeekStudentScope(t *testing.T) {
	classes, enrollments, overrides, names := weekFixture()
	svc := NewWeekService(classes, enrollments, overrides, names, nil, 0, nil, nil, nil)

	view, err := svc.FetchWeek(context.Background(), testWeekStart, models.ViewerRoleStudent, "stu-1")
	require.NoError(t, err)
	require.Len(t, view.Events, 1)
	assert.Equal(t, "class-tue", view.Events[0].ClassID)
}

func TestFetchWeekStudentWithoutEnrollmentsIsEmpty(t *testing.T) {
	classes, enrollments, overrides, names := weekFixture()
	svc := NewWeekService(classes, enrollments, overrides, names, nil, 0, nil, nil, nil)

	view, err := svc.FetchWeek(context.Background(), testWeekStart, models.ViewerRoleStudent, "stu-unknown")
	require.NoError(t, err)
	assert.Empty(t, view.Events)
	assert.Equal(t, 0, classes.recurringCalls)
}

func TestFetchWeekRespectsActiveWindow(t *testing.T) {
	classes, enrollments, overrides, names := weekFixture()
	ended := testWeekStart.AddDate(0, 0, -7)
	classes.recurring[0].ActiveTo = &ended
	svc := NewWeekService(classes, enrollments, overrides, names, nil, 0, nil, nil, nil)

	view, err := svc.FetchWeek(context.Background(), testWeekStart, models.ViewerRoleStaff, "staff-1")
	require.NoError(t, err)
	for _, ev := range view.Events {
		assert.NotEqual(t, "class-tue", ev.ClassID)
	}
}

func TestFetchWeekUsesCacheOnSecondCall(t *testing.T) {
	classes, enrollments, overrides, names := weekFixture()
	cache := &stubWeekCache{}
	metrics := &stubMetrics{}
	svc := NewWeekService(classes, enrollments, overrides, names, cache, time.Minute, metrics, nil, nil)

	first, err := svc.FetchWeek(context.Background(), testWeekStart, models.ViewerRoleStaff, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, 1, classes.recurringCalls)

	second, err := svc.FetchWeek(context.Background(), testWeekStart, models.ViewerRoleStaff, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, 1, classes.recurringCalls)
	assert.Equal(t, len(first.Events), len(second.Events))
	assert.Equal(t, []bool{false, true}, metrics.lookups)
}

func TestInstructorWeekBypassesCache(t *testing.T) {
	classes, enrollments, overrides, names := weekFixture()
	cache := &stubWeekCache{}
	svc := NewWeekService(classes, enrollments, overrides, names, cache, time.Minute, nil, nil, nil)

	_, err := svc.InstructorWeek(context.Background(), "inst-1", testWeekStart)
	require.NoError(t, err)
	_, err = svc.InstructorWeek(context.Background(), "inst-1", testWeekStart)
	require.NoError(t, err)
	assert.Equal(t, 2, classes.recurringCalls)
	assert.Empty(t, cache.store)
}
