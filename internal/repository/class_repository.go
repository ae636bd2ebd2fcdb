package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hagwon-ops/timetable-api/internal/models"
)

const classColumns = "id, mode, weekday, class_date, instructor_id, subject_code, class_type_code, start_min, end_min, active_from, active_to, status, created_by, created_at, updated_at"

// ClassRepository provides persistence for class definitions.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID loads a class definition by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM class_definitions WHERE id = $1", classColumns)
	var def models.ClassDefinition
	if err := r.db.GetContext(ctx, &def, query, id); err != nil {
		return nil, err
	}
	return &def, nil
}

// ListRecurringByInstructorWeekday returns an instructor's recurring
// definitions on a weekday whose active window covers the reference date.
func (r *ClassRepository) ListRecurringByInstructorWeekday(ctx context.Context, instructorID string, weekday int, ref time.Time) ([]models.ClassDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_definitions WHERE mode = $1 AND instructor_id = $2 AND weekday = $3 AND (active_from IS NULL OR active_from <= $4) AND (active_to IS NULL OR active_to >= $4)`, classColumns)
	var defs []models.ClassDefinition
	if err := r.db.SelectContext(ctx, &defs, query, models.ClassModeRecurring, instructorID, weekday, ref); err != nil {
		return nil, fmt.Errorf("list recurring classes by instructor/weekday: %w", err)
	}
	return defs, nil
}

// ListOneOffByInstructorDate returns an instructor's one-off definitions on a date.
func (r *ClassRepository) ListOneOffByInstructorDate(ctx context.Context, instructorID string, date time.Time) ([]models.ClassDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_definitions WHERE mode = $1 AND instructor_id = $2 AND class_date = $3`, classColumns)
	var defs []models.ClassDefinition
	if err := r.db.SelectContext(ctx, &defs, query, models.ClassModeOneOff, instructorID, date); err != nil {
		return nil, fmt.Errorf("list one-off classes by instructor/date: %w", err)
	}
	return defs, nil
}

// ListRecurringIntersectingRange returns recurring definitions whose active
// window intersects [start, end].
func (r *ClassRepository) ListRecurringIntersectingRange(ctx context.Context, start, end time.Time) ([]models.ClassDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_definitions WHERE mode = $1 AND (active_from IS NULL OR active_from <= $2) AND (active_to IS NULL OR active_to >= $3)`, classColumns)
	var defs []models.ClassDefinition
	if err := r.db.SelectContext(ctx, &defs, query, models.ClassModeRecurring, end, start); err != nil {
		return nil, fmt.Errorf("list recurring classes in range: %w", err)
	}
	return defs, nil
}

// ListOneOffInRange returns one-off definitions dated inside [start, end].
func (r *ClassRepository) ListOneOffInRange(ctx context.Context, start, end time.Time) ([]models.ClassDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_definitions WHERE mode = $1 AND class_date BETWEEN $2 AND $3`, classColumns)
	var defs []models.ClassDefinition
	if err := r.db.SelectContext(ctx, &defs, query, models.ClassModeOneOff, start, end); err != nil {
		return nil, fmt.Errorf("list one-off classes in range: %w", err)
	}
	return defs, nil
}

// FindBySignature looks up a definition matching the importer's exact-match
// identity: mode, instructor, subject, class type, times, weekday-or-date.
func (r *ClassRepository) FindBySignature(ctx context.Context, def *models.ClassDefinition) (*models.ClassDefinition, error) {
	base := fmt.Sprintf(`SELECT %s FROM class_definitions WHERE mode = $1 AND instructor_id = $2 AND subject_code = $3 AND class_type_code = $4 AND start_min = $5 AND end_min = $6`, classColumns)
	var found models.ClassDefinition
	var err error
	if def.Mode == models.ClassModeRecurring {
		err = r.db.GetContext(ctx, &found, base+" AND weekday = $7", def.Mode, def.InstructorID, def.SubjectCode, def.ClassTypeCode, def.StartMin, def.EndMin, def.Weekday)
	} else {
		err = r.db.GetContext(ctx, &found, base+" AND class_date = $7", def.Mode, def.InstructorID, def.SubjectCode, def.ClassTypeCode, def.StartMin, def.EndMin, def.Date)
	}
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// Create stores a new class definition.
func (r *ClassRepository) Create(ctx context.Context, def *models.ClassDefinition) error {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}
	def.UpdatedAt = now

	const query = `INSERT INTO class_definitions (id, mode, weekday, class_date, instructor_id, subject_code, class_type_code, start_min, end_min, active_from, active_to, status, created_by, created_at, updated_at) VALUES (:id, :mode, :weekday, :class_date, :instructor_id, :subject_code, :class_type_code, :start_min, :end_min, :active_from, :active_to, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, def); err != nil {
		return fmt.Errorf("create class definition: %w", err)
	}
	return nil
}

// UpdateStatus sets the definition's status.
func (r *ClassRepository) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	const query = `UPDATE class_definitions SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update class status: %w", err)
	}
	return nil
}

// UpdatePlacement moves a definition to a new weekday-or-date and time window.
func (r *ClassRepository) UpdatePlacement(ctx context.Context, id string, placement models.Placement, startMin, endMin models.Clock) error {
	const query = `UPDATE class_definitions SET weekday = $1, class_date = $2, start_min = $3, end_min = $4, updated_at = $5 WHERE id = $6`
	if _, err := r.db.ExecContext(ctx, query, placement.Weekday, placement.Date, startMin, endMin, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update class placement: %w", err)
	}
	return nil
}

// WidenActiveFrom pulls the active window start earlier; it never narrows it.
func (r *ClassRepository) WidenActiveFrom(ctx context.Context, id string, from time.Time) error {
	const query = `UPDATE class_definitions SET active_from = $1, updated_at = $2 WHERE id = $3 AND active_from IS NOT NULL AND active_from > $1`
	if _, err := r.db.ExecContext(ctx, query, from, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("widen class active window: %w", err)
	}
	return nil
}

// Delete removes a class definition. Used only by the create saga's
// compensating path.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM class_definitions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class definition: %w", err)
	}
	return nil
}
