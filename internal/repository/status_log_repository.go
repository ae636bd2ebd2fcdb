package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hagwon-ops/timetable-api/internal/models"
)

// StatusLogRepository provides append-only persistence for status transitions.
type StatusLogRepository struct {
	db *sqlx.DB
}

// NewStatusLogRepository creates a new status log repository.
func NewStatusLogRepository(db *sqlx.DB) *StatusLogRepository {
	return &StatusLogRepository{db: db}
}

// Create appends a status log entry.
func (r *StatusLogRepository) Create(ctx context.Context, entry *models.StatusLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	const query = `INSERT INTO status_logs (id, class_id, status, changed_by, changed_at, reason) VALUES (:id, :class_id, :status, :changed_by, :changed_at, :reason)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create status log entry: %w", err)
	}
	return nil
}

// ListByClass returns a class's status history, newest first.
func (r *StatusLogRepository) ListByClass(ctx context.Context, classID string) ([]models.StatusLogEntry, error) {
	const query = `SELECT id, class_id, status, changed_by, changed_at, reason FROM status_logs WHERE class_id = $1 ORDER BY changed_at DESC`
	var entries []models.StatusLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, classID); err != nil {
		return nil, fmt.Errorf("list status log by class: %w", err)
	}
	return entries, nil
}
