package models

import "time"

// OverrideAction selects how a per-date exception alters one occurrence.
type OverrideAction string

const (
	OverrideActionCancel     OverrideAction = "CANCEL"
	OverrideActionReschedule OverrideAction = "RESCHEDULE"
	OverrideActionStatusOnly OverrideAction = "STATUS_ONLY"
)

// ValidOverrideAction reports whether the raw value is a known action.
func ValidOverrideAction(raw OverrideAction) bool {
	switch raw {
	case OverrideActionCancel, OverrideActionReschedule, OverrideActionStatusOnly:
		return true
	}
	return false
}

// Override is a date-scoped exception to a recurring class definition. It never
// creates a new persistent definition; it only changes how one occurrence of
// the recurring definition materializes for that date. Unique per (class, date).
type Override struct {
	ID              string         `db:"id" json:"id"`
	ClassID         string         `db:"class_id" json:"class_id"`
	Date            time.Time      `db:"override_date" json:"date"`
	Action          OverrideAction `db:"action" json:"action"`
	AltInstructorID *string        `db:"alt_instructor_id" json:"alt_instructor_id,omitempty"`
	AltStartMin     *Clock         `db:"alt_start_min" json:"alt_start_time,omitempty"`
	AltEndMin       *Clock         `db:"alt_end_min" json:"alt_end_time,omitempty"`
	AltStatus       *ClassStatus   `db:"alt_status" json:"alt_status,omitempty"`
	CreatedBy       string         `db:"created_by" json:"created_by"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}
