package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hagwon-ops/timetable-api/internal/models"
	"github.com/hagwon-ops/timetable-api/internal/timegrid"
	appErrors "github.com/hagwon-ops/timetable-api/pkg/errors"
)

type conflictClassReader interface {
	ListRecurringByInstructorWeekday(ctx context.Context, instructorID string, weekday int, ref time.Time) ([]models.ClassDefinition, error)
	ListOneOffByInstructorDate(ctx context.Context, instructorID string, date time.Time) ([]models.ClassDefinition, error)
}

type compatibilityResolver interface {
	Resolve(ctx context.Context, candidateType, existingType string) (bool, string, error)
}

// weekMaterializer supplies the materialized events of one instructor's week,
// overrides already applied. Used by the move-variant check.
type weekMaterializer interface {
	InstructorWeek(ctx context.Context, instructorID string, weekStart time.Time) ([]models.WeekEvent, error)
}

type engineMetrics interface {
	ObserveConflictCheck(outcome string)
	ObserveMaterialization(d time.Duration)
	RecordCacheLookup(hit bool)
}

// CandidateClass is the payload a conflict check runs against.
type CandidateClass struct {
	ClassID       string             `json:"class_id,omitempty"`
	Mode          models.ClassMode   `json:"mode" validate:"required"`
	InstructorID  string             `json:"instructor_id" validate:"required"`
	SubjectCode   string             `json:"subject_code" validate:"required"`
	ClassTypeCode string             `json:"class_type_code" validate:"required"`
	Weekday       int                `json:"weekday,omitempty"`
	Date          *time.Time         `json:"date,omitempty"`
	StartMin      models.Clock       `json:"start_time"`
	EndMin        models.Clock       `json:"end_time"`
	ActiveFrom    *time.Time         `json:"active_from,omitempty"`
	StudentIDs    []string           `json:"student_ids" validate:"required,min=1"`
}

// Placement derives the tagged placement from the candidate fields.
func (c CandidateClass) Placement() models.Placement {
	if c.Mode == models.ClassModeOneOff && c.Date != nil {
		return models.OneOffPlacement(timegrid.DateOnly(*c.Date))
	}
	return models.Placement{Mode: c.Mode, Weekday: c.Weekday, Date: c.Date}
}

func (c CandidateClass) validateTimes() error {
	if c.EndMin <= c.StartMin {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	return nil
}

// ConflictService decides whether a candidate session collides with existing
// sessions of the same instructor.
type ConflictService struct {
	classes   conflictClassReader
	compat    compatibilityResolver
	weeks     weekMaterializer
	metrics   engineMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConflictService constructs ConflictService. weeks may be set later via
// SetWeekMaterializer to break the construction cycle with the week service.
func NewConflictService(classes conflictClassReader, compat compatibilityResolver, metrics engineMetrics, validate *validator.Validate, logger *zap.Logger) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{classes: classes, compat: compat, metrics: metrics, validator: validate, logger: logger}
}

// SetWeekMaterializer wires the materializer used by the move-variant check.
func (s *ConflictService) SetWeekMaterializer(weeks weekMaterializer) {
	s.weeks = weeks
}

// Check validates the candidate and classifies every overlapping session of
// the same instructor. Conflicts are a structured result, not an error; an
// invalid payload fails the whole operation producing no conflict result.
func (s *ConflictService) Check(ctx context.Context, cand CandidateClass) (*models.ConflictResult, error) {
	if err := s.validateCandidate(cand); err != nil {
		return nil, err
	}

	overlap, err := s.overlapSet(ctx, cand)
	if err != nil {
		return nil, err
	}

	result, err := s.classify(ctx, cand, overlap)
	if err != nil {
		return nil, err
	}
	s.observe(result)
	return result, nil
}

// CheckAgainstWeek runs the same classification restricted to the materialized
// events of the instructor's target week, so overrides already applied to that
// week are honored. excludeID drops the moving class's own occurrence.
func (s *ConflictService) CheckAgainstWeek(ctx context.Context, cand CandidateClass, weekStart time.Time, excludeID string) (*models.ConflictResult, error) {
	if err := cand.validateTimes(); err != nil {
		return nil, err
	}
	if err := cand.Placement().Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate placement")
	}

	events, err := s.weeks.InstructorWeek(ctx, cand.InstructorID, weekStart)
	if err != nil {
		return nil, err
	}

	targetDate := s.targetDate(cand, weekStart)

	var overlap []models.ClassDefinition
	for _, ev := range events {
		if ev.ClassID == excludeID || ev.ClassID == cand.ClassID {
			continue
		}
		if !timegrid.SameDate(ev.Date, targetDate) {
			continue
		}
		if !timegrid.Overlaps(cand.StartMin, cand.EndMin, ev.StartMin, ev.EndMin) {
			continue
		}
		date := ev.Date
		overlap = append(overlap, models.ClassDefinition{
			ID:            ev.ClassID,
			Placement:     models.Placement{Mode: ev.Mode, Weekday: ev.Weekday, Date: &date},
			InstructorID:  ev.InstructorID,
			SubjectCode:   ev.SubjectCode,
			ClassTypeCode: ev.ClassTypeCode,
			StartMin:      ev.StartMin,
			EndMin:        ev.EndMin,
		})
	}

	result, err := s.classify(ctx, cand, overlap)
	if err != nil {
		return nil, err
	}
	s.observe(result)
	return result, nil
}

func (s *ConflictService) validateCandidate(cand CandidateClass) error {
	if err := s.validator.Struct(cand); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate payload")
	}
	if err := cand.validateTimes(); err != nil {
		return err
	}
	if err := cand.Placement().Validate(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate placement")
	}
	return nil
}

// overlapSet fetches the instructor's sessions that could share the slot and
// keeps only the time-overlapping ones, excluding the candidate itself.
func (s *ConflictService) overlapSet(ctx context.Context, cand CandidateClass) ([]models.ClassDefinition, error) {
	var existing []models.ClassDefinition

	switch cand.Mode {
	case models.ClassModeRecurring:
		ref := time.Now().UTC()
		if cand.ActiveFrom != nil {
			ref = *cand.ActiveFrom
		}
		ref = timegrid.DateOnly(ref)
		defs, err := s.classes.ListRecurringByInstructorWeekday(ctx, cand.InstructorID, cand.Weekday, ref)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overlapping classes")
		}
		existing = defs
	case models.ClassModeOneOff:
		date := timegrid.DateOnly(*cand.Date)
		oneOffs, err := s.classes.ListOneOffByInstructorDate(ctx, cand.InstructorID, date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overlapping classes")
		}
		recurring, err := s.classes.ListRecurringByInstructorWeekday(ctx, cand.InstructorID, timegrid.WeekdayOf(date), date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overlapping classes")
		}
		existing = append(oneOffs, recurring...)
	}

	var overlap []models.ClassDefinition
	for _, def := range existing {
		if def.ID == cand.ClassID {
			continue
		}
		if timegrid.Overlaps(cand.StartMin, cand.EndMin, def.StartMin, def.EndMin) {
			overlap = append(overlap, def)
		}
	}
	return overlap, nil
}

// classify resolves compatibility once per distinct class type in the overlap
// set and reports every incompatible pairing.
func (s *ConflictService) classify(ctx context.Context, cand CandidateClass, overlap []models.ClassDefinition) (*models.ConflictResult, error) {
	verdicts := make(map[string]struct {
		compatible bool
		reason     string
	})
	for _, def := range overlap {
		if _, seen := verdicts[def.ClassTypeCode]; seen {
			continue
		}
		compatible, reason, err := s.compat.Resolve(ctx, cand.ClassTypeCode, def.ClassTypeCode)
		if err != nil {
			return nil, err
		}
		verdicts[def.ClassTypeCode] = struct {
			compatible bool
			reason     string
		}{compatible, reason}
	}

	result := &models.ConflictResult{}
	for _, def := range overlap {
		verdict := verdicts[def.ClassTypeCode]
		if verdict.compatible {
			continue
		}
		result.Conflicts = append(result.Conflicts, models.ConflictEntry{
			ClassID:       def.ID,
			InstructorID:  def.InstructorID,
			SubjectCode:   def.SubjectCode,
			ClassTypeCode: def.ClassTypeCode,
			Weekday:       def.Weekday,
			Date:          def.Date,
			StartMin:      def.StartMin,
			EndMin:        def.EndMin,
			Reason:        verdict.reason,
		})
	}
	result.HasConflict = len(result.Conflicts) > 0
	return result, nil
}

func (s *ConflictService) targetDate(cand CandidateClass, weekStart time.Time) time.Time {
	if cand.Mode == models.ClassModeOneOff && cand.Date != nil {
		return timegrid.DateOnly(*cand.Date)
	}
	return timegrid.OccurrenceInWeek(weekStart, cand.Weekday)
}

func (s *ConflictService) observe(result *models.ConflictResult) {
	if s.metrics == nil {
		return
	}
	if result.HasConflict {
		s.metrics.ObserveConflictCheck("conflict")
	} else {
		s.metrics.ObserveConflictCheck("clear")
	}
}
