package models

import "time"

// StatusLogEntry is an append-only audit record for class status transitions.
// Written on creation and on every status/move mutation; never updated.
type StatusLogEntry struct {
	ID        string      `db:"id" json:"id"`
	ClassID   string      `db:"class_id" json:"class_id"`
	Status    ClassStatus `db:"status" json:"status"`
	ChangedBy string      `db:"changed_by" json:"changed_by"`
	ChangedAt time.Time   `db:"changed_at" json:"changed_at"`
	Reason    string      `db:"reason" json:"reason"`
}
