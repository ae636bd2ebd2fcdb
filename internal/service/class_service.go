package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hagwon-ops/timetable-api/internal/models"
	"github.com/hagwon-ops/timetable-api/internal/timegrid"
	appErrors "github.com/hagwon-ops/timetable-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// weekCachePrefix is shared by every mutation's invalidation sweep.
const weekCachePrefix = "timetable:week:*"

type classStore interface {
	FindByID(ctx context.Context, id string) (*models.ClassDefinition, error)
	Create(ctx context.Context, def *models.ClassDefinition) error
	UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error
	UpdatePlacement(ctx context.Context, id string, placement models.Placement, startMin, endMin models.Clock) error
	Delete(ctx context.Context, id string) error
}

type enrollmentStore interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	DeleteByClass(ctx context.Context, classID string) error
	CountByClass(ctx context.Context, classID string) (int, error)
	Exists(ctx context.Context, classID, studentID string) (bool, error)
}

type studentCounter interface {
	CountByIDs(ctx context.Context, ids []string) (int, error)
}

type classTypeReader interface {
	FindByCode(ctx context.Context, code string) (*models.ClassType, error)
}

type instructorReader interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

type overrideStore interface {
	Upsert(ctx context.Context, ov *models.Override) error
	Delete(ctx context.Context, classID string, date time.Time) error
	ListByClass(ctx context.Context, classID string) ([]models.Override, error)
}

type statusLogStore interface {
	Create(ctx context.Context, entry *models.StatusLogEntry) error
	ListByClass(ctx context.Context, classID string) ([]models.StatusLogEntry, error)
}

type conflictChecker interface {
	Check(ctx context.Context, cand CandidateClass) (*models.ConflictResult, error)
	CheckAgainstWeek(ctx context.Context, cand CandidateClass, weekStart time.Time, excludeID string) (*models.ConflictResult, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateClassRequest describes the create-with-enrollment payload. Dates are
// "YYYY-MM-DD"; times are "HH:MM".
type CreateClassRequest struct {
	Mode          models.ClassMode `json:"mode" validate:"required"`
	InstructorID  string           `json:"instructor_id" validate:"required"`
	SubjectCode   string           `json:"subject_code" validate:"required"`
	ClassTypeCode string           `json:"class_type_code" validate:"required"`
	Weekday       int              `json:"weekday,omitempty"`
	Date          string           `json:"date,omitempty"`
	StartTime     models.Clock     `json:"start_time"`
	EndTime       models.Clock     `json:"end_time"`
	ActiveFrom    string           `json:"active_from,omitempty"`
	ActiveTo      string           `json:"active_to,omitempty"`
	StudentIDs    []string         `json:"student_ids" validate:"required,min=1"`
}

// CreateClassResult reports the outcome of create-with-enrollment. Conflicts
// and capacity violations are results, never errors.
type CreateClassResult struct {
	Class            *models.ClassDefinition `json:"class,omitempty"`
	Conflict         *models.ConflictResult  `json:"conflict,omitempty"`
	CapacityExceeded bool                    `json:"capacity_exceeded,omitempty"`
	Message          string                  `json:"message,omitempty"`
}

// UpdateStatusRequest transitions a class's status.
type UpdateStatusRequest struct {
	Status models.ClassStatus `json:"status" validate:"required"`
	Reason string             `json:"reason"`
}

// MoveSlotRequest relocates a class inside the weekly grid, preserving its
// duration.
type MoveSlotRequest struct {
	Weekday   int          `json:"weekday,omitempty"`
	Date      string       `json:"date,omitempty"`
	StartTime models.Clock `json:"start_time"`
	WeekStart string       `json:"week_start" validate:"required"`
}

// MoveSlotResult reports the outcome of a move.
type MoveSlotResult struct {
	Moved    bool                    `json:"moved"`
	Conflict *models.ConflictResult  `json:"conflict,omitempty"`
	Class    *models.ClassDefinition `json:"class,omitempty"`
}

// SetOverrideRequest records a per-date exception on a recurring class.
type SetOverrideRequest struct {
	Action          models.OverrideAction `json:"action" validate:"required"`
	AltInstructorID *string               `json:"alt_instructor_id,omitempty"`
	AltStartTime    *models.Clock         `json:"alt_start_time,omitempty"`
	AltEndTime      *models.Clock         `json:"alt_end_time,omitempty"`
	AltStatus       *models.ClassStatus   `json:"alt_status,omitempty"`
}

// ClassService performs the scheduling mutations: create-with-enrollment,
// status transitions, moves, and override maintenance. Every mutation re-runs
// the conflict checker before writing and invalidates the week-view cache.
type ClassService struct {
	classes     classStore
	enrollments enrollmentStore
	students    studentCounter
	classTypes  classTypeReader
	instructors instructorReader
	overrides   overrideStore
	logs        statusLogStore
	conflicts   conflictChecker
	cache       cacheInvalidator
	minDuration models.Clock
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClassService constructs ClassService. minDuration is the floor applied to
// move operations; zero falls back to 30 minutes.
func NewClassService(classes classStore, enrollments enrollmentStore, students studentCounter, classTypes classTypeReader, instructors instructorReader, overrides overrideStore, logs statusLogStore, conflicts conflictChecker, cache cacheInvalidator, minDuration time.Duration, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	floor := models.Clock(minDuration / time.Minute)
	if floor <= 0 {
		floor = 30
	}
	return &ClassService{
		classes: classes, enrollments: enrollments, students: students,
		classTypes: classTypes, instructors: instructors, overrides: overrides,
		logs: logs, conflicts: conflicts, cache: cache, minDuration: floor,
		validator: validate, logger: logger,
	}
}

// CheckConflict exposes the raw conflict check for a candidate payload.
func (s *ClassService) CheckConflict(ctx context.Context, req CreateClassRequest) (*models.ConflictResult, error) {
	cand, err := s.candidateFromRequest(req)
	if err != nil {
		return nil, err
	}
	return s.conflicts.Check(ctx, *cand)
}

// CreateWithEnrollment validates, checks capacity and conflicts, then inserts
// the definition and its enrollment rows. There is no multi-table transaction;
// if enrollment insertion fails the definition insert is undone.
func (s *ClassService) CreateWithEnrollment(ctx context.Context, req CreateClassRequest, actorID string) (*CreateClassResult, error) {
	cand, err := s.candidateFromRequest(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.instructors.FindByID(ctx, req.InstructorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	classType, err := s.classTypes.FindByCode(ctx, req.ClassTypeCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class type")
	}

	studentIDs := dedupe(req.StudentIDs)
	known, err := s.students.CountByIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify students")
	}
	if known != len(studentIDs) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more students not found")
	}
	if len(studentIDs) > classType.MaxStudents {
		return &CreateClassResult{
			CapacityExceeded: true,
			Message:          fmt.Sprintf("%s allows at most %d students", classType.Code, classType.MaxStudents),
		}, nil
	}

	conflict, err := s.conflicts.Check(ctx, *cand)
	if err != nil {
		return nil, err
	}
	if conflict.HasConflict {
		return &CreateClassResult{Conflict: conflict}, nil
	}

	def := &models.ClassDefinition{
		Placement:     cand.Placement(),
		InstructorID:  req.InstructorID,
		SubjectCode:   req.SubjectCode,
		ClassTypeCode: req.ClassTypeCode,
		StartMin:      req.StartTime,
		EndMin:        req.EndTime,
		ActiveFrom:    cand.ActiveFrom,
		Status:        models.ClassStatusScheduled,
		CreatedBy:     actorID,
	}
	if def.Mode == models.ClassModeRecurring && req.ActiveTo != "" {
		to, perr := parseDate(req.ActiveTo)
		if perr != nil {
			return nil, perr
		}
		def.ActiveTo = &to
	}

	if err := s.classes.Create(ctx, def); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	for _, studentID := range studentIDs {
		enr := &models.Enrollment{ClassID: def.ID, StudentID: studentID}
		if err := s.enrollments.Create(ctx, enr); err != nil {
			// Saga rollback: undo the definition insert so no class exists
			// with a partial enrollment set.
			if derr := s.enrollments.DeleteByClass(ctx, def.ID); derr != nil {
				s.logger.Error("compensating enrollment delete failed", zap.String("class_id", def.ID), zap.Error(derr))
			}
			if derr := s.classes.Delete(ctx, def.ID); derr != nil {
				s.logger.Error("compensating class delete failed", zap.String("class_id", def.ID), zap.Error(derr))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll students")
		}
	}

	entry := &models.StatusLogEntry{ClassID: def.ID, Status: def.Status, ChangedBy: actorID, Reason: "class created"}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record status log")
	}

	s.invalidateWeeks(ctx)
	return &CreateClassResult{Class: def}, nil
}

// UpdateStatus transitions the class status and appends an audit entry. Both
// writes must succeed or the operation fails.
func (s *ClassService) UpdateStatus(ctx context.Context, classID string, req UpdateStatusRequest, actorID string) (*models.ClassDefinition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !models.ValidClassStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown class status %q", req.Status))
	}

	def, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	if err := s.classes.UpdateStatus(ctx, classID, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class status")
	}
	entry := &models.StatusLogEntry{ClassID: classID, Status: req.Status, ChangedBy: actorID, Reason: req.Reason}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record status log")
	}

	def.Status = req.Status
	s.invalidateWeeks(ctx)
	return def, nil
}

// MoveSlot reschedules a class to a new slot, preserving its duration with a
// configured floor. On conflict the stored definition is left untouched and no
// status log entry is written.
func (s *ClassService) MoveSlot(ctx context.Context, classID string, req MoveSlotRequest, actorID string) (*MoveSlotResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	weekStart, err := parseDate(req.WeekStart)
	if err != nil {
		return nil, err
	}

	def, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	duration := def.EndMin - def.StartMin
	if duration < s.minDuration {
		duration = s.minDuration
	}
	newStart := req.StartTime
	newEnd := newStart + duration

	var placement models.Placement
	if def.Mode == models.ClassModeRecurring {
		placement = models.RecurringPlacement(req.Weekday)
	} else {
		if req.Date == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date is required to move a one-off class")
		}
		date, perr := parseDate(req.Date)
		if perr != nil {
			return nil, perr
		}
		placement = models.OneOffPlacement(date)
	}

	cand := CandidateClass{
		ClassID:       def.ID,
		Mode:          def.Mode,
		InstructorID:  def.InstructorID,
		SubjectCode:   def.SubjectCode,
		ClassTypeCode: def.ClassTypeCode,
		Weekday:       placement.Weekday,
		Date:          placement.Date,
		StartMin:      newStart,
		EndMin:        newEnd,
	}
	conflict, err := s.conflicts.CheckAgainstWeek(ctx, cand, weekStart, def.ID)
	if err != nil {
		return nil, err
	}
	if conflict.HasConflict {
		return &MoveSlotResult{Moved: false, Conflict: conflict}, nil
	}

	if err := s.classes.UpdatePlacement(ctx, classID, placement, newStart, newEnd); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move class")
	}
	entry := &models.StatusLogEntry{
		ClassID:   classID,
		Status:    def.Status,
		ChangedBy: actorID,
		Reason:    fmt.Sprintf("moved to %s %s-%s", placementLabel(placement), newStart, newEnd),
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record status log")
	}

	def.Placement = placement
	def.StartMin = newStart
	def.EndMin = newEnd
	s.invalidateWeeks(ctx)
	return &MoveSlotResult{Moved: true, Class: def}, nil
}

// SetOverride records a per-date exception on a recurring class.
func (s *ClassService) SetOverride(ctx context.Context, classID, dateRaw string, req SetOverrideRequest, actorID string) (*models.Override, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}
	if !models.ValidOverrideAction(req.Action) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown override action %q", req.Action))
	}
	date, err := parseDate(dateRaw)
	if err != nil {
		return nil, err
	}

	def, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if def.Mode != models.ClassModeRecurring {
		return nil, appErrors.Clone(appErrors.ErrValidation, "overrides apply to recurring classes only")
	}
	if timegrid.WeekdayOf(date) != def.Weekday {
		return nil, appErrors.Clone(appErrors.ErrValidation, "override date does not fall on the class weekday")
	}

	if req.Action == models.OverrideActionReschedule {
		if req.AltInstructorID == nil && req.AltStartTime == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "reschedule requires an alternate instructor or time window")
		}
	}
	if (req.AltStartTime == nil) != (req.AltEndTime == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "alternate start and end times must be provided together")
	}
	if req.AltStartTime != nil && *req.AltEndTime <= *req.AltStartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "alternate end time must be after start time")
	}
	if req.AltStatus != nil && !models.ValidClassStatus(*req.AltStatus) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown class status %q", *req.AltStatus))
	}
	if req.AltInstructorID != nil {
		if _, err := s.instructors.FindByID(ctx, *req.AltInstructorID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "alternate instructor not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alternate instructor")
		}
	}

	ov := &models.Override{
		ClassID:         classID,
		Date:            date,
		Action:          req.Action,
		AltInstructorID: req.AltInstructorID,
		AltStartMin:     req.AltStartTime,
		AltEndMin:       req.AltEndTime,
		AltStatus:       req.AltStatus,
		CreatedBy:       actorID,
	}
	if err := s.overrides.Upsert(ctx, ov); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store override")
	}
	s.invalidateWeeks(ctx)
	return ov, nil
}

// DeleteOverride removes the exception for (class, date).
func (s *ClassService) DeleteOverride(ctx context.Context, classID, dateRaw string) error {
	date, err := parseDate(dateRaw)
	if err != nil {
		return err
	}
	if _, err := s.loadClass(ctx, classID); err != nil {
		return err
	}
	if err := s.overrides.Delete(ctx, classID, date); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete override")
	}
	s.invalidateWeeks(ctx)
	return nil
}

// StatusLogs returns a class's append-only status history.
func (s *ClassService) StatusLogs(ctx context.Context, classID string) ([]models.StatusLogEntry, error) {
	if _, err := s.loadClass(ctx, classID); err != nil {
		return nil, err
	}
	entries, err := s.logs.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list status logs")
	}
	return entries, nil
}

func (s *ClassService) loadClass(ctx context.Context, classID string) (*models.ClassDefinition, error) {
	def, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return def, nil
}

func (s *ClassService) candidateFromRequest(req CreateClassRequest) (*CandidateClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	cand := CandidateClass{
		Mode:          req.Mode,
		InstructorID:  req.InstructorID,
		SubjectCode:   req.SubjectCode,
		ClassTypeCode: req.ClassTypeCode,
		Weekday:       req.Weekday,
		StartMin:      req.StartTime,
		EndMin:        req.EndTime,
		StudentIDs:    req.StudentIDs,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			return nil, err
		}
		cand.Date = &date
	}
	if req.ActiveFrom != "" {
		from, err := parseDate(req.ActiveFrom)
		if err != nil {
			return nil, err
		}
		cand.ActiveFrom = &from
	}

	if err := cand.validateTimes(); err != nil {
		return nil, err
	}
	if err := cand.Placement().Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class placement")
	}
	return &cand, nil
}

func (s *ClassService) invalidateWeeks(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, weekCachePrefix); err != nil {
		s.logger.Warn("week cache invalidation failed", zap.Error(err))
	}
}

func parseDate(raw string) (time.Time, error) {
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}
	return date, nil
}

func placementLabel(p models.Placement) string {
	if p.Mode == models.ClassModeRecurring {
		return fmt.Sprintf("weekday %d", p.Weekday)
	}
	if p.Date != nil {
		return p.Date.Format(dateLayout)
	}
	return "unknown"
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
