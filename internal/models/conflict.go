package models

import "time"

// ConflictEntry describes one existing session that collides with a candidate.
type ConflictEntry struct {
	ClassID       string     `json:"class_id"`
	InstructorID  string     `json:"instructor_id"`
	SubjectCode   string     `json:"subject_code"`
	ClassTypeCode string     `json:"class_type_code"`
	Weekday       int        `json:"weekday,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	StartMin      Clock      `json:"start_time"`
	EndMin        Clock      `json:"end_time"`
	Reason        string     `json:"reason"`
}

// ConflictResult is the structured, non-exceptional outcome of a conflict
// check. Callers decide HTTP-level treatment.
type ConflictResult struct {
	HasConflict bool            `json:"has_conflict"`
	Conflicts   []ConflictEntry `json:"conflicts,omitempty"`
}
