package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hagwon-ops/timetable-api/internal/models"
)

// CompatibilityRepository provides persistence for the class-type rule table.
type CompatibilityRepository struct {
	db *sqlx.DB
}

// NewCompatibilityRepository creates a new compatibility repository.
func NewCompatibilityRepository(db *sqlx.DB) *CompatibilityRepository {
	return &CompatibilityRepository{db: db}
}

// FindPair loads the rule for the ordered pair (typeA, typeB). Returns
// sql.ErrNoRows when no rule is recorded in that direction.
func (r *CompatibilityRepository) FindPair(ctx context.Context, typeA, typeB string) (*models.CompatibilityRule, error) {
	const query = `SELECT type_a, type_b, compatible, reason, updated_at FROM compatibility_rules WHERE type_a = $1 AND type_b = $2`
	var rule models.CompatibilityRule
	if err := r.db.GetContext(ctx, &rule, query, typeA, typeB); err != nil {
		return nil, err
	}
	return &rule, nil
}

// List returns the whole rule table.
func (r *CompatibilityRepository) List(ctx context.Context) ([]models.CompatibilityRule, error) {
	const query = `SELECT type_a, type_b, compatible, reason, updated_at FROM compatibility_rules ORDER BY type_a ASC, type_b ASC`
	var rules []models.CompatibilityRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list compatibility rules: %w", err)
	}
	return rules, nil
}

// Upsert stores a rule for an ordered pair.
func (r *CompatibilityRepository) Upsert(ctx context.Context, rule *models.CompatibilityRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO compatibility_rules (type_a, type_b, compatible, reason, updated_at) VALUES (:type_a, :type_b, :compatible, :reason, :updated_at)
ON CONFLICT (type_a, type_b) DO UPDATE SET compatible = EXCLUDED.compatible, reason = EXCLUDED.reason, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("upsert compatibility rule: %w", err)
	}
	return nil
}
