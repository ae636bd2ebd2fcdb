package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hagwon-ops/timetable-api/internal/models"
)

// EnrollmentRepository provides persistence for class enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListByClass returns enrollments for a class with student names attached.
func (r *EnrollmentRepository) ListByClass(ctx context.Context, classID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.class_id, e.student_id, e.created_at, s.full_name AS student_name FROM enrollments e JOIN students s ON s.id = e.student_id WHERE e.class_id = $1 ORDER BY s.full_name ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, classID); err != nil {
		return nil, fmt.Errorf("list enrollments by class: %w", err)
	}
	return enrollments, nil
}

// ListByClassIDs returns enrollments for a set of classes in one round trip.
func (r *EnrollmentRepository) ListByClassIDs(ctx context.Context, classIDs []string) ([]models.EnrollmentDetail, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT e.id, e.class_id, e.student_id, e.created_at, s.full_name AS student_name FROM enrollments e JOIN students s ON s.id = e.student_id WHERE e.class_id IN (?)`, classIDs)
	if err != nil {
		return nil, fmt.Errorf("build enrollment list query: %w", err)
	}
	query = r.db.Rebind(query)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments by classes: %w", err)
	}
	return enrollments, nil
}

// ListClassIDsByStudent returns the ids of classes a student is enrolled in.
func (r *EnrollmentRepository) ListClassIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT class_id FROM enrollments WHERE student_id = $1`, studentID); err != nil {
		return nil, fmt.Errorf("list class ids by student: %w", err)
	}
	return ids, nil
}

// CountByClass returns the number of students enrolled in a class.
func (r *EnrollmentRepository) CountByClass(ctx context.Context, classID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM enrollments WHERE class_id = $1`, classID); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// Exists reports whether the student is already enrolled in the class.
func (r *EnrollmentRepository) Exists(ctx context.Context, classID, studentID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND student_id = $2`, classID, studentID); err != nil {
		return false, fmt.Errorf("check enrollment exists: %w", err)
	}
	return count > 0, nil
}

// Create stores a new enrollment row. The (class_id, student_id) uniqueness
// constraint is the last line of defense against concurrent double-enrolls.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, class_id, student_id, created_at) VALUES (:id, :class_id, :student_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// DeleteByClass removes all enrollments for a class.
func (r *EnrollmentRepository) DeleteByClass(ctx context.Context, classID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("delete enrollments by class: %w", err)
	}
	return nil
}
