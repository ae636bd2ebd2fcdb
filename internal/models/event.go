package models

import "time"

// EventStudent is the enrollment projection attached to a week event.
type EventStudent struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// WeekEvent is the derived, non-persisted projection of a class definition for
// one concrete calendar date, with any applicable override folded in.
type WeekEvent struct {
	ClassID        string          `json:"class_id"`
	Mode           ClassMode       `json:"mode"`
	Date           time.Time       `json:"date"`
	Weekday        int             `json:"weekday"`
	StartMin       Clock           `json:"start_time"`
	EndMin         Clock           `json:"end_time"`
	InstructorID   string          `json:"instructor_id"`
	InstructorName string          `json:"instructor_name"`
	SubjectCode    string          `json:"subject_code"`
	ClassTypeCode  string          `json:"class_type_code"`
	Status         ClassStatus     `json:"status"`
	Students       []EventStudent  `json:"students"`
	OverrideAction *OverrideAction `json:"override_action,omitempty"`
}

// WeekView is the materialized result for one requested week and viewer.
type WeekView struct {
	WeekStart time.Time   `json:"week_start"`
	WeekEnd   time.Time   `json:"week_end"`
	Events    []WeekEvent `json:"events"`
}

// ViewerRole scopes materialization output.
type ViewerRole string

const (
	ViewerRoleStaff      ViewerRole = "STAFF"
	ViewerRoleInstructor ViewerRole = "INSTRUCTOR"
	ViewerRoleStudent    ViewerRole = "STUDENT"
)
