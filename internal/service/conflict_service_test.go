package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hagwon-ops/timetable-api/internal/models"
)

type mockConflictClassRepo struct {
	recurring      []models.ClassDefinition
	oneOffs        []models.ClassDefinition
	recurringCalls int
	oneOffCalls    int
}

func (m *mockConflictClassRepo) ListRecurringByInstructorWeekday(_ context.Context, _ string, _ int, _ time.Time) ([]models.ClassDefinition, error) {
	m.recurringCalls++
	return m.recurring, nil
}

func (m *mockConflictClassRepo) ListOneOffByInstructorDate(_ context.Context, _ string, _ time.Time) ([]models.ClassDefinition, error) {
	m.oneOffCalls++
	return m.oneOffs, nil
}

type stubResolver struct {
	compatible map[string]bool
	calls      int
}

func (s *stubResolver) Resolve(_ context.Context, candidateType, existingType string) (bool, string, error) {
	s.calls++
	if ok, found := s.compatible[candidateType+"|"+existingType]; found {
		return ok, "stub verdict", nil
	}
	return false, "stub verdict", nil
}

type stubMetrics struct {
	outcomes []string
	lookups  []bool
}

func (s *stubMetrics) ObserveConflictCheck(outcome string)  { s.outcomes = append(s.outcomes, outcome) }
func (s *stubMetrics) ObserveMaterialization(time.Duration) {}
func (s *stubMetrics) RecordCacheLookup(hit bool)           { s.lookups = append(s.lookups, hit) }

type stubWeekMaterializer struct {
	events []models.WeekEvent
}

func (s *stubWeekMaterializer) InstructorWeek(_ context.Context, _ string, _ time.Time) ([]models.WeekEvent, error) {
	return s.events, nil
}

func recurringDef(id string, weekday int, start, end models.Clock, classType string) models.ClassDefinition {
	return models.ClassDefinition{
		ID:            id,
		Placement:     models.RecurringPlacement(weekday),
		InstructorID:  "inst-1",
		SubjectCode:   "MATH",
		ClassTypeCode: classType,
		StartMin:      start,
		EndMin:        end,
		Status:        models.ClassStatusScheduled,
	}
}

func recurringCandidate(weekday int, start, end models.Clock, classType string) CandidateClass {
	return CandidateClass{
		Mode:          models.ClassModeRecurring,
		InstructorID:  "inst-1",
		SubjectCode:   "MATH",
		ClassTypeCode: classType,
		Weekday:       weekday,
		StartMin:      start,
		EndMin:        end,
		StudentIDs:    []string{"stu-1"},
	}
}

func TestConflictCheckTouchingIntervalsDoNotConflict(t *testing.T) {
	repo := &mockConflictClassRepo{recurring: []models.ClassDefinition{
		recurringDef("class-1", 2, 600, 660, "GROUP"),
	}}
	metrics := &stubMetrics{}
	svc := NewConflictService(repo, &stubResolver{}, metrics, nil, nil)

	result, err := svc.Check(context.Background(), recurringCandidate(2, 660, 720, "GROUP"))
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, []string{"clear"}, metrics.outcomes)
}

func TestConflictCheckIncompatibleOverlap(t *testing.T) {
	repo := &mockConflictClassRepo{recurring: []models.ClassDefinition{
		recurringDef("class-1", 2, 600, 690, "GROUP"),
	}}
	metrics := &stubMetrics{}
	svc := NewConflictService(repo, &stubResolver{}, metrics, nil, nil)

	result, err := svc.Check(context.Background(), recurringCandidate(2, 660, 750, "WORKSHOP"))
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "class-1", result.Conflicts[0].ClassID)
	assert.Equal(t, "stub verdict", result.Conflicts[0].Reason)
	assert.Equal(t, []string{"conflict"}, metrics.outcomes)
}

func TestConflictCheckCompatibleOverlapIsClear(t *testing.T) {
	repo := &mockConflictClassRepo{recurring: []models.ClassDefinition{
		recurringDef("class-1", 2, 600, 690, "SELF_STUDY"),
	}}
	resolver := &stubResolver{compatible: map[string]bool{"GROUP|SELF_STUDY": true}}
	svc := NewConflictService(repo, resolver, nil, nil, nil)

	result, err := svc.Check(context.Background(), recurringCandidate(2, 630, 720, "GROUP"))
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestConflictCheckResolvesOncePerClassType(t *testing.T) {
	repo := &mockConflictClassRepo{recurring: []models.ClassDefinition{
		recurringDef("class-1", 2, 600, 690, "GROUP"),
		recurringDef("class-2", 2, 610, 700, "GROUP"),
		recurringDef("class-3", 2, 620, 710, "WORKSHOP"),
	}}
	resolver := &stubResolver{}
	svc := NewConflictService(repo, resolver, nil, nil, nil)

	result, err := svc.Check(context.Background(), recurringCandidate(2, 630, 720, "ONE_ON_ONE"))
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	assert.Len(t, result.Conflicts, 3)
	assert.Equal(t, 2, resolver.calls)
}

func TestConflictCheckExcludesOwnClass(t *testing.T) {
	repo := &mockConflictClassRepo{recurring: []models.ClassDefinition{
		recurringDef("class-1", 2, 600, 690, "GROUP"),
	}}
	svc := NewConflictService(repo, &stubResolver{}, nil, nil, nil)

	cand := recurringCandidate(2, 600, 690, "GROUP")
	cand.ClassID = "class-1"
	result, err := svc.Check(context.Background(), cand)
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestConflictCheckOneOffUnionsRecurringSameWeekday(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) // a Tuesday
	oneOff := models.ClassDefinition{
		ID:            "class-oo",
		Placement:     models.OneOffPlacement(date),
		InstructorID:  "inst-1",
		SubjectCode:   "ENG",
		ClassTypeCode: "ONE_ON_ONE",
		StartMin:      600,
		EndMin:        660,
	}
	repo := &mockConflictClassRepo{
		oneOffs:   []models.ClassDefinition{oneOff},
		recurring: []models.ClassDefinition{recurringDef("class-rec", 2, 630, 690, "GROUP")},
	}
	svc := NewConflictService(repo, &stubResolver{}, nil, nil, nil)

	cand := CandidateClass{
		Mode:          models.ClassModeOneOff,
		InstructorID:  "inst-1",
		SubjectCode:   "SCI",
		ClassTypeCode: "WORKSHOP",
		Date:          &date,
		StartMin:      615,
		EndMin:        675,
		StudentIDs:    []string{"stu-1"},
	}
	result, err := svc.Check(context.Background(), cand)
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	assert.Len(t, result.Conflicts, 2)
	assert.Equal(t, 1, repo.oneOffCalls)
	assert.Equal(t, 1, repo.recurringCalls)
}

func TestConflictCheckRejectsInvertedTimes(t *testing.T) {
	svc := NewConflictService(&mockConflictClassRepo{}, &stubResolver{}, nil, nil, nil)

	_, err := svc.Check(context.Background(), recurringCandidate(2, 660, 600, "GROUP"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end time must be after start time")
}

func TestConflictCheckRejectsMissingPlacement(t *testing.T) {
	svc := NewConflictService(&mockConflictClassRepo{}, &stubResolver{}, nil, nil, nil)

	cand := recurringCandidate(0, 600, 660, "GROUP")
	_, err := svc.Check(context.Background(), cand)
	require.Error(t, err)
}

func TestCheckAgainstWeekHonorsOverriddenEvents(t *testing.T) {
	weekStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) // Monday
	tuesday := weekStart.AddDate(0, 0, 1)
	weeks := &stubWeekMaterializer{events: []models.WeekEvent{
		{ClassID: "class-1", Mode: models.ClassModeRecurring, Date: tuesday, Weekday: 2, StartMin: 600, EndMin: 660, InstructorID: "inst-1", ClassTypeCode: "GROUP"},
		{ClassID: "class-2", Mode: models.ClassModeRecurring, Date: weekStart, Weekday: 1, StartMin: 600, EndMin: 660, InstructorID: "inst-1", ClassTypeCode: "GROUP"},
	}}
	svc := NewConflictService(&mockConflictClassRepo{}, &stubResolver{}, nil, nil, nil)
	svc.SetWeekMaterializer(weeks)

	cand := CandidateClass{
		ClassID:       "moving",
		Mode:          models.ClassModeRecurring,
		InstructorID:  "inst-1",
		SubjectCode:   "MATH",
		ClassTypeCode: "WORKSHOP",
		Weekday:       2,
		StartMin:      630,
		EndMin:        700,
	}
	result, err := svc.CheckAgainstWeek(context.Background(), cand, weekStart, "moving")
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	require.Len(t, result.Conflicts, 1)
	// Only the Tuesday event collides; the Monday one is on another date.
	assert.Equal(t, "class-1", result.Conflicts[0].ClassID)
}

func TestCheckAgainstWeekExcludesMovingClass(t *testing.T) {
	weekStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tuesday := weekStart.AddDate(0, 0, 1)
	weeks := &stubWeekMaterializer{events: []models.WeekEvent{
		{ClassID: "moving", Mode: models.ClassModeRecurring, Date: tuesday, Weekday: 2, StartMin: 600, EndMin: 660, InstructorID: "inst-1", ClassTypeCode: "GROUP"},
	}}
	svc := NewConflictService(&mockConflictClassRepo{}, &stubResolver{}, nil, nil, nil)
	svc.SetWeekMaterializer(weeks)

	cand := CandidateClass{
		ClassID:       "moving",
		Mode:          models.ClassModeRecurring,
		InstructorID:  "inst-1",
		SubjectCode:   "MATH",
		ClassTypeCode: "GROUP",
		Weekday:       2,
		StartMin:      610,
		EndMin:        670,
	}
	result, err := svc.CheckAgainstWeek(context.Background(), cand, weekStart, "moving")
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}
