package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hagwon-ops/timetable-api/internal/models"
)

// InstructorRepository reads the instructor roster.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates a new instructor repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// FindByID loads an instructor by id.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, `SELECT id, full_name, active, created_at FROM instructors WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// NamesByIDs returns a display-name lookup for a set of instructor ids.
func (r *InstructorRepository) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, full_name, active, created_at FROM instructors WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build instructor names query: %w", err)
	}
	query = r.db.Rebind(query)
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, fmt.Errorf("list instructor names: %w", err)
	}
	names := make(map[string]string, len(instructors))
	for _, ins := range instructors {
		names[ins.ID] = ins.FullName
	}
	return names, nil
}

// StudentRepository reads the student roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID loads a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, `SELECT id, full_name, created_at FROM students WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// CountByIDs returns how many of the given student ids exist.
func (r *StudentRepository) CountByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM students WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("build student count query: %w", err)
	}
	query = r.db.Rebind(query)
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// ClassTypeRepository reads the class-type catalogue.
type ClassTypeRepository struct {
	db *sqlx.DB
}

// NewClassTypeRepository creates a new class type repository.
func NewClassTypeRepository(db *sqlx.DB) *ClassTypeRepository {
	return &ClassTypeRepository{db: db}
}

// FindByCode loads a class type by its code.
func (r *ClassTypeRepository) FindByCode(ctx context.Context, code string) (*models.ClassType, error) {
	var ct models.ClassType
	if err := r.db.GetContext(ctx, &ct, `SELECT code, name, max_students FROM class_types WHERE code = $1`, code); err != nil {
		return nil, err
	}
	return &ct, nil
}

// List returns all class types.
func (r *ClassTypeRepository) List(ctx context.Context) ([]models.ClassType, error) {
	var types []models.ClassType
	if err := r.db.SelectContext(ctx, &types, `SELECT code, name, max_students FROM class_types ORDER BY code ASC`); err != nil {
		return nil, fmt.Errorf("list class types: %w", err)
	}
	return types, nil
}
