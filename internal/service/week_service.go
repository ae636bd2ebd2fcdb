package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hagwon-ops/timetable-api/internal/models"
	"github.com/hagwon-ops/timetable-api/internal/timegrid"
	appErrors "github.com/hagwon-ops/timetable-api/pkg/errors"
)

type weekClassReader interface {
	ListRecurringIntersectingRange(ctx context.Context, start, end time.Time) ([]models.ClassDefinition, error)
	ListOneOffInRange(ctx context.Context, start, end time.Time) ([]models.ClassDefinition, error)
}

type weekEnrollmentReader interface {
	ListByClassIDs(ctx context.Context, classIDs []string) ([]models.EnrollmentDetail, error)
	ListClassIDsByStudent(ctx context.Context, studentID string) ([]string, error)
}

type weekOverrideReader interface {
	ListForClassesInRange(ctx context.Context, classIDs []string, start, end time.Time) ([]models.Override, error)
}

type instructorNameReader interface {
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

type weekViewCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// viewerScope narrows materialization to what one viewer may see. The student
// scope filters by enrolled class ids before expansion; the instructor scope
// filters by the effective instructor after overrides are applied, so an
// override can move a session out of (or into) an instructor's visible week.
type viewerScope interface {
	keepDefinition(def *models.ClassDefinition) bool
	keepEvent(ev *models.WeekEvent) bool
}

type staffScope struct{}

func (staffScope) keepDefinition(*models.ClassDefinition) bool { return true }
func (staffScope) keepEvent(*models.WeekEvent) bool            { return true }

type instructorScope struct{ instructorID string }

func (instructorScope) keepDefinition(*models.ClassDefinition) bool { return true }
func (s instructorScope) keepEvent(ev *models.WeekEvent) bool {
	return ev.InstructorID == s.instructorID
}

type studentScope struct{ classIDs map[string]struct{} }

func (s studentScope) keepDefinition(def *models.ClassDefinition) bool {
	_, ok := s.classIDs[def.ID]
	return ok
}
func (studentScope) keepEvent(*models.WeekEvent) bool { return true }

// WeekService expands stored definitions plus date-scoped overrides into the
// concrete set of sessions visible for a given week and viewer. Read-only.
type WeekService struct {
	classes     weekClassReader
	enrollments weekEnrollmentReader
	overrides   weekOverrideReader
	instructors instructorNameReader
	cache       weekViewCache
	cacheTTL    time.Duration
	metrics     engineMetrics
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewWeekService constructs WeekService. cache may be nil to disable caching.
func NewWeekService(classes weekClassReader, enrollments weekEnrollmentReader, overrides weekOverrideReader, instructors instructorNameReader, cache weekViewCache, cacheTTL time.Duration, metrics engineMetrics, validate *validator.Validate, logger *zap.Logger) *WeekService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeekService{classes: classes, enrollments: enrollments, overrides: overrides, instructors: instructors, cache: cache, cacheTTL: cacheTTL, metrics: metrics, validator: validate, logger: logger}
}

// FetchWeek materializes the requested week for a viewer. weekStart must be a
// Monday. The result is deterministic and side-effect-free.
func (s *WeekService) FetchWeek(ctx context.Context, weekStart time.Time, role models.ViewerRole, viewerID string) (*models.WeekView, error) {
	weekStart = timegrid.DateOnly(weekStart)
	if timegrid.WeekdayOf(weekStart) != 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week_start must be a Monday")
	}

	cacheKey := fmt.Sprintf("timetable:week:%s:%s:%s", weekStart.Format("2006-01-02"), role, viewerID)
	if s.cache != nil {
		var cached models.WeekView
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheLookup(true)
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
	}

	started := time.Now()
	view, err := s.materialize(ctx, weekStart, role, viewerID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveMaterialization(time.Since(started))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, view, s.cacheTTL); err != nil {
			s.logger.Warn("week view cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return view, nil
}

// InstructorWeek materializes one instructor's week without touching the
// cache; the move-variant conflict check needs fresh data.
func (s *WeekService) InstructorWeek(ctx context.Context, instructorID string, weekStart time.Time) ([]models.WeekEvent, error) {
	weekStart = timegrid.DateOnly(weekStart)
	if timegrid.WeekdayOf(weekStart) != 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week_start must be a Monday")
	}
	view, err := s.materialize(ctx, weekStart, models.ViewerRoleInstructor, instructorID)
	if err != nil {
		return nil, err
	}
	return view.Events, nil
}

func (s *WeekService) materialize(ctx context.Context, weekStart time.Time, role models.ViewerRole, viewerID string) (*models.WeekView, error) {
	weekStart, weekEnd := timegrid.WeekWindow(weekStart)
	view := &models.WeekView{WeekStart: weekStart, WeekEnd: weekEnd, Events: []models.WeekEvent{}}

	scope, empty, err := s.scopeFor(ctx, role, viewerID)
	if err != nil {
		return nil, err
	}
	if empty {
		return view, nil
	}

	recurring, err := s.classes.ListRecurringIntersectingRange(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recurring classes")
	}
	oneOffs, err := s.classes.ListOneOffInRange(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load one-off classes")
	}

	type occurrence struct {
		def  models.ClassDefinition
		date time.Time
	}
	var occurrences []occurrence
	var classIDs []string
	baseInstructors := make(map[string]struct{})

	for _, def := range append(recurring, oneOffs...) {
		if !scope.keepDefinition(&def) {
			continue
		}
		var date time.Time
		if def.Mode == models.ClassModeRecurring {
			date = timegrid.OccurrenceInWeek(weekStart, def.Weekday)
			if !def.ActiveOn(date) {
				continue
			}
		} else {
			date = timegrid.DateOnly(*def.Date)
		}
		occurrences = append(occurrences, occurrence{def: def, date: date})
		classIDs = append(classIDs, def.ID)
		baseInstructors[def.InstructorID] = struct{}{}
	}

	if len(occurrences) == 0 {
		return view, nil
	}

	overrides, err := s.overrides.ListForClassesInRange(ctx, classIDs, weekStart, weekEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overrides")
	}
	overrideByKey := make(map[string]models.Override, len(overrides))
	for _, ov := range overrides {
		overrideByKey[ov.ClassID+"|"+timegrid.DateOnly(ov.Date).Format("2006-01-02")] = ov
	}

	var events []models.WeekEvent
	for _, occ := range occurrences {
		ev := models.WeekEvent{
			ClassID:       occ.def.ID,
			Mode:          occ.def.Mode,
			Date:          occ.date,
			Weekday:       timegrid.WeekdayOf(occ.date),
			StartMin:      occ.def.StartMin,
			EndMin:        occ.def.EndMin,
			InstructorID:  occ.def.InstructorID,
			SubjectCode:   occ.def.SubjectCode,
			ClassTypeCode: occ.def.ClassTypeCode,
			Status:        occ.def.Status,
		}

		if ov, ok := overrideByKey[occ.def.ID+"|"+occ.date.Format("2006-01-02")]; ok {
			if ov.Action == models.OverrideActionCancel {
				continue
			}
			action := ov.Action
			ev.OverrideAction = &action
			if ov.Action == models.OverrideActionReschedule {
				if ov.AltInstructorID != nil {
					ev.InstructorID = *ov.AltInstructorID
				}
				if ov.AltStartMin != nil && ov.AltEndMin != nil {
					ev.StartMin = *ov.AltStartMin
					ev.EndMin = *ov.AltEndMin
				}
			}
			if ov.AltStatus != nil {
				ev.Status = *ov.AltStatus
			}
		}

		if !scope.keepEvent(&ev) {
			continue
		}
		events = append(events, ev)
	}

	if err := s.attachDetails(ctx, events, baseInstructors); err != nil {
		return nil, err
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		if events[i].StartMin != events[j].StartMin {
			return events[i].StartMin < events[j].StartMin
		}
		return events[i].ClassID < events[j].ClassID
	})

	view.Events = events
	return view, nil
}

func (s *WeekService) scopeFor(ctx context.Context, role models.ViewerRole, viewerID string) (viewerScope, bool, error) {
	switch role {
	case models.ViewerRoleStudent:
		ids, err := s.enrollments.ListClassIDsByStudent(ctx, viewerID)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student enrollments")
		}
		if len(ids) == 0 {
			return nil, true, nil
		}
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		return studentScope{classIDs: set}, false, nil
	case models.ViewerRoleInstructor:
		return instructorScope{instructorID: viewerID}, false, nil
	default:
		return staffScope{}, false, nil
	}
}

// attachDetails joins enrollment lists and instructor display names onto the
// events, with a secondary lookup for override-introduced instructors that
// were not part of the base definition load.
func (s *WeekService) attachDetails(ctx context.Context, events []models.WeekEvent, baseInstructors map[string]struct{}) error {
	if len(events) == 0 {
		return nil
	}

	classIDs := make([]string, 0, len(events))
	for _, ev := range events {
		classIDs = append(classIDs, ev.ClassID)
	}
	enrollments, err := s.enrollments.ListByClassIDs(ctx, classIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	studentsByClass := make(map[string][]models.EventStudent)
	for _, enr := range enrollments {
		studentsByClass[enr.ClassID] = append(studentsByClass[enr.ClassID], models.EventStudent{ID: enr.StudentID, FullName: enr.StudentName})
	}

	baseIDs := make([]string, 0, len(baseInstructors))
	for id := range baseInstructors {
		baseIDs = append(baseIDs, id)
	}
	names, err := s.instructors.NamesByIDs(ctx, baseIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor names")
	}

	var missing []string
	for _, ev := range events {
		if _, ok := names[ev.InstructorID]; !ok {
			missing = append(missing, ev.InstructorID)
		}
	}
	if len(missing) > 0 {
		extra, err := s.instructors.NamesByIDs(ctx, missing)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitute instructor names")
		}
		for id, name := range extra {
			names[id] = name
		}
	}

	for i := range events {
		events[i].InstructorName = names[events[i].InstructorID]
		students := studentsByClass[events[i].ClassID]
		if students == nil {
			students = []models.EventStudent{}
		}
		events[i].Students = students
	}
	return nil
}
