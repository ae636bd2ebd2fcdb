package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hagwon-ops/timetable-api/internal/models"
	appErrors "github.com/hagwon-ops/timetable-api/pkg/errors"
)

// Import row outcomes.
const (
	ImportOutcomeCreated  = "created"
	ImportOutcomeExisting = "existing"
	ImportOutcomeEnrolled = "enrolled"
	ImportOutcomeConflict = "conflict"
	ImportOutcomeError    = "error"
)

type importClassStore interface {
	FindBySignature(ctx context.Context, def *models.ClassDefinition) (*models.ClassDefinition, error)
	WidenActiveFrom(ctx context.Context, id string, from time.Time) error
}

type importEnrollmentStore interface {
	Exists(ctx context.Context, classID, studentID string) (bool, error)
	CountByClass(ctx context.Context, classID string) (int, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

type classCreator interface {
	CreateWithEnrollment(ctx context.Context, req CreateClassRequest, actorID string) (*CreateClassResult, error)
}

// ImportRow is one line of a bulk import. Each row carries exactly one
// student; a class shared by several students appears as several rows with the
// same slot signature.
type ImportRow struct {
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
	StudentID     string           `json:"student_id" validate:"required"`
}

// ImportRowResult reports what happened to a single row.
type ImportRowResult struct {
	Row      int                    `json:"row"`
	Outcome  string                 `json:"outcome"`
	ClassID  string                 `json:"class_id,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Conflict *models.ConflictResult `json:"conflict,omitempty"`
}

// ImportSummary aggregates a batch run.
type ImportSummary struct {
	Total    int               `json:"total"`
	Created  int               `json:"created"`
	Existing int               `json:"existing"`
	Enrolled int               `json:"enrolled"`
	Conflict int               `json:"conflict"`
	Errors   int               `json:"errors"`
	Rows     []ImportRowResult `json:"rows"`
}

// ImportService replays external rosters into the timetable. Re-running the
// same batch is idempotent: rows whose exact slot signature already exists
// attach to the stored class instead of creating a duplicate.
type ImportService struct {
	classes     importClassStore
	enrollments importEnrollmentStore
	classTypes  classTypeReader
	creator     classCreator
	batchMax    int
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewImportService constructs ImportService. batchMax caps rows per call; zero
// falls back to 500.
func NewImportService(classes importClassStore, enrollments importEnrollmentStore, classTypes classTypeReader, creator classCreator, batchMax int, validate *validator.Validate, logger *zap.Logger) *ImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchMax <= 0 {
		batchMax = 500
	}
	return &ImportService{
		classes: classes, enrollments: enrollments, classTypes: classTypes,
		creator: creator, batchMax: batchMax, validator: validate, logger: logger,
	}
}

// ImportBatch processes rows in order. A failing row never aborts the batch;
// its outcome is recorded and processing continues.
func (s *ImportService) ImportBatch(ctx context.Context, rows []ImportRow, actorID string) (*ImportSummary, error) {
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "import batch is empty")
	}
	if len(rows) > s.batchMax {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("import batch exceeds %d rows", s.batchMax))
	}

	summary := &ImportSummary{Total: len(rows), Rows: make([]ImportRowResult, 0, len(rows))}
	for i, row := range rows {
		result := s.importRow(ctx, i+1, row, actorID)
		switch result.Outcome {
		case ImportOutcomeCreated:
			summary.Created++
		case ImportOutcomeExisting:
			summary.Existing++
		case ImportOutcomeEnrolled:
			summary.Enrolled++
		case ImportOutcomeConflict:
			summary.Conflict++
		default:
			summary.Errors++
		}
		summary.Rows = append(summary.Rows, result)
	}
	return summary, nil
}

func (s *ImportService) importRow(ctx context.Context, rowNum int, row ImportRow, actorID string) ImportRowResult {
	result := ImportRowResult{Row: rowNum}

	if err := s.validator.Struct(row); err != nil {
		result.Outcome = ImportOutcomeError
		result.Message = fmt.Sprintf("invalid row: %v", err)
		return result
	}
	probe, err := s.probeFromRow(row)
	if err != nil {
		result.Outcome = ImportOutcomeError
		result.Message = err.Error()
		return result
	}

	existing, err := s.classes.FindBySignature(ctx, probe)
	if err != nil && err != sql.ErrNoRows {
		result.Outcome = ImportOutcomeError
		result.Message = fmt.Sprintf("signature lookup failed: %v", err)
		return result
	}

	if existing == nil {
		return s.createFromRow(ctx, result, row, actorID)
	}
	return s.attachToExisting(ctx, result, row, probe, existing)
}

// attachToExisting handles an exact signature match: widen the active window
// if the row starts earlier, then enroll the student unless already enrolled
// or the class is full.
func (s *ImportService) attachToExisting(ctx context.Context, result ImportRowResult, row ImportRow, probe, existing *models.ClassDefinition) ImportRowResult {
	result.ClassID = existing.ID

	if existing.Mode == models.ClassModeRecurring && probe.ActiveFrom != nil {
		if err := s.classes.WidenActiveFrom(ctx, existing.ID, *probe.ActiveFrom); err != nil {
			result.Outcome = ImportOutcomeError
			result.Message = fmt.Sprintf("failed to widen active window: %v", err)
			return result
		}
	}

	enrolled, err := s.enrollments.Exists(ctx, existing.ID, row.StudentID)
	if err != nil {
		result.Outcome = ImportOutcomeError
		result.Message = fmt.Sprintf("enrollment lookup failed: %v", err)
		return result
	}
	if enrolled {
		result.Outcome = ImportOutcomeExisting
		return result
	}

	classType, err := s.classTypes.FindByCode(ctx, existing.ClassTypeCode)
	if err != nil {
		result.Outcome = ImportOutcomeError
		result.Message = fmt.Sprintf("class type lookup failed: %v", err)
		return result
	}
	count, err := s.enrollments.CountByClass(ctx, existing.ID)
	if err != nil {
		result.Outcome = ImportOutcomeError
		result.Message = fmt.Sprintf("enrollment count failed: %v", err)
		return result
	}
	if count >= classType.MaxStudents {
		result.Outcome = ImportOutcomeConflict
		result.Message = fmt.Sprintf("%s is full (%d/%d)", existing.ID, count, classType.MaxStudents)
		return result
	}

	enr := &models.Enrollment{ClassID: existing.ID, StudentID: row.StudentID}
	if err := s.enrollments.Create(ctx, enr); err != nil {
		result.Outcome = ImportOutcomeError
		result.Message = fmt.Sprintf("enrollment failed: %v", err)
		return result
	}
	result.Outcome = ImportOutcomeEnrolled
	return result
}

func (s *ImportService) createFromRow(ctx context.Context, result ImportRowResult, row ImportRow, actorID string) ImportRowResult {
	created, err := s.creator.CreateWithEnrollment(ctx, CreateClassRequest{
		Mode:          row.Mode,
		InstructorID:  row.InstructorID,
		SubjectCode:   row.SubjectCode,
		ClassTypeCode: row.ClassTypeCode,
		Weekday:       row.Weekday,
		Date:          row.Date,
		StartTime:     row.StartTime,
		EndTime:       row.EndTime,
		ActiveFrom:    row.ActiveFrom,
		ActiveTo:      row.ActiveTo,
		StudentIDs:    []string{row.StudentID},
	}, actorID)
	if err != nil {
		result.Outcome = ImportOutcomeError
		result.Message = err.Error()
		return result
	}
	if created.CapacityExceeded {
		result.Outcome = ImportOutcomeConflict
		result.Message = created.Message
		return result
	}
	if created.Conflict != nil && created.Conflict.HasConflict {
		result.Outcome = ImportOutcomeConflict
		result.Conflict = created.Conflict
		return result
	}
	result.Outcome = ImportOutcomeCreated
	result.ClassID = created.Class.ID
	return result
}

// probeFromRow builds the definition used for the signature lookup.
func (s *ImportService) probeFromRow(row ImportRow) (*models.ClassDefinition, error) {
	probe := &models.ClassDefinition{
		InstructorID:  row.InstructorID,
		SubjectCode:   row.SubjectCode,
		ClassTypeCode: row.ClassTypeCode,
		StartMin:      row.StartTime,
		EndMin:        row.EndTime,
	}
	if row.EndTime <= row.StartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	switch row.Mode {
	case models.ClassModeRecurring:
		probe.Placement = models.RecurringPlacement(row.Weekday)
	case models.ClassModeOneOff:
		if row.Date == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "one-off row requires a date")
		}
		date, err := parseDate(row.Date)
		if err != nil {
			return nil, err
		}
		probe.Placement = models.OneOffPlacement(date)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown class mode %q", row.Mode))
	}
	if err := probe.Placement.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid row placement")
	}
	if row.ActiveFrom != "" {
		from, err := parseDate(row.ActiveFrom)
		if err != nil {
			return nil, err
		}
		probe.ActiveFrom = &from
	}
	return probe, nil
}
