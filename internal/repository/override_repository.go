package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hagwon-ops/timetable-api/internal/models"
)

const overrideColumns = "id, class_id, override_date, action, alt_instructor_id, alt_start_min, alt_end_min, alt_status, created_by, created_at"

// OverrideRepository provides persistence for per-date schedule exceptions.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository creates a new override repository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// FindByClassAndDate loads the override keyed by (class, date), if any.
func (r *OverrideRepository) FindByClassAndDate(ctx context.Context, classID string, date time.Time) (*models.Override, error) {
	query := fmt.Sprintf("SELECT %s FROM overrides WHERE class_id = $1 AND override_date = $2", overrideColumns)
	var ov models.Override
	if err := r.db.GetContext(ctx, &ov, query, classID, date); err != nil {
		return nil, err
	}
	return &ov, nil
}

// ListForClassesInRange returns overrides for a class set dated inside [start, end].
func (r *OverrideRepository) ListForClassesInRange(ctx context.Context, classIDs []string, start, end time.Time) ([]models.Override, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM overrides WHERE class_id IN (?) AND override_date BETWEEN ? AND ?", overrideColumns), classIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("build override range query: %w", err)
	}
	query = r.db.Rebind(query)
	var overrides []models.Override
	if err := r.db.SelectContext(ctx, &overrides, query, args...); err != nil {
		return nil, fmt.Errorf("list overrides in range: %w", err)
	}
	return overrides, nil
}

// ListByClass returns all overrides recorded for a class.
func (r *OverrideRepository) ListByClass(ctx context.Context, classID string) ([]models.Override, error) {
	query := fmt.Sprintf("SELECT %s FROM overrides WHERE class_id = $1 ORDER BY override_date ASC", overrideColumns)
	var overrides []models.Override
	if err := r.db.SelectContext(ctx, &overrides, query, classID); err != nil {
		return nil, fmt.Errorf("list overrides by class: %w", err)
	}
	return overrides, nil
}

// Upsert stores an override, replacing an existing one for the same (class, date).
func (r *OverrideRepository) Upsert(ctx context.Context, ov *models.Override) error {
	if ov.ID == "" {
		ov.ID = uuid.NewString()
	}
	if ov.CreatedAt.IsZero() {
		ov.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO overrides (id, class_id, override_date, action, alt_instructor_id, alt_start_min, alt_end_min, alt_status, created_by, created_at)
VALUES (:id, :class_id, :override_date, :action, :alt_instructor_id, :alt_start_min, :alt_end_min, :alt_status, :created_by, :created_at)
ON CONFLICT (class_id, override_date) DO UPDATE SET action = EXCLUDED.action, alt_instructor_id = EXCLUDED.alt_instructor_id, alt_start_min = EXCLUDED.alt_start_min, alt_end_min = EXCLUDED.alt_end_min, alt_status = EXCLUDED.alt_status, created_by = EXCLUDED.created_by`
	if _, err := r.db.NamedExecContext(ctx, query, ov); err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// Delete removes the override for (class, date).
func (r *OverrideRepository) Delete(ctx context.Context, classID string, date time.Time) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM overrides WHERE class_id = $1 AND override_date = $2`, classID, date); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}
