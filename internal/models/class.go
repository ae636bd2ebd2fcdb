package models

import (
	"fmt"
	"strings"
	"time"
)

// ClassMode selects how a class definition is placed on the calendar.
type ClassMode string

const (
	ClassModeRecurring ClassMode = "RECURRING"
	ClassModeOneOff    ClassMode = "ONE_OFF"
)

// ClassStatus tracks the lifecycle of a class occurrence.
type ClassStatus string

const (
	ClassStatusScheduled ClassStatus = "SCHEDULED"
	ClassStatusCompleted ClassStatus = "COMPLETED"
	ClassStatusCanceled  ClassStatus = "CANCELED"
	ClassStatusNoShow    ClassStatus = "NO_SHOW"
)

// ValidClassStatus reports whether the raw value is a known status.
func ValidClassStatus(raw ClassStatus) bool {
	switch raw {
	case ClassStatusScheduled, ClassStatusCompleted, ClassStatusCanceled, ClassStatusNoShow:
		return true
	}
	return false
}

// Placement is the tagged weekly-or-dated position of a class. Exactly one of
// Weekday or Date is meaningful, selected by Mode; the constructors below are
// the only way service code builds one.
type Placement struct {
	Mode    ClassMode  `db:"mode" json:"mode"`
	Weekday int        `db:"weekday" json:"weekday,omitempty"`
	Date    *time.Time `db:"class_date" json:"date,omitempty"`
}

// RecurringPlacement builds a weekday-anchored placement (1=Mon .. 7=Sun).
func RecurringPlacement(weekday int) Placement {
	return Placement{Mode: ClassModeRecurring, Weekday: weekday}
}

// OneOffPlacement builds a single-date placement.
func OneOffPlacement(date time.Time) Placement {
	d := date
	return Placement{Mode: ClassModeOneOff, Date: &d}
}

// Validate enforces the mode/field pairing.
func (p Placement) Validate() error {
	switch p.Mode {
	case ClassModeRecurring:
		if p.Weekday < 1 || p.Weekday > 7 {
			return fmt.Errorf("recurring placement requires weekday 1..7, got %d", p.Weekday)
		}
		if p.Date != nil {
			return fmt.Errorf("recurring placement must not carry a date")
		}
	case ClassModeOneOff:
		if p.Date == nil {
			return fmt.Errorf("one-off placement requires a date")
		}
		if p.Weekday != 0 {
			return fmt.Errorf("one-off placement must not carry a weekday")
		}
	default:
		return fmt.Errorf("unknown class mode %q", p.Mode)
	}
	return nil
}

// ClassDefinition is one scheduled commitment: a weekly recurring class inside
// an active window, or a one-off class bound to a single date.
type ClassDefinition struct {
	ID            string      `db:"id" json:"id"`
	Placement     `json:"placement"`
	InstructorID  string      `db:"instructor_id" json:"instructor_id"`
	SubjectCode   string      `db:"subject_code" json:"subject_code"`
	ClassTypeCode string      `db:"class_type_code" json:"class_type_code"`
	StartMin      Clock       `db:"start_min" json:"start_time"`
	EndMin        Clock       `db:"end_min" json:"end_time"`
	ActiveFrom    *time.Time  `db:"active_from" json:"active_from,omitempty"`
	ActiveTo      *time.Time  `db:"active_to" json:"active_to,omitempty"`
	Status        ClassStatus `db:"status" json:"status"`
	CreatedBy     string      `db:"created_by" json:"created_by"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// ActiveOn reports whether a recurring definition produces occurrences on the
// given date. One-off definitions are active only on their own date.
func (c *ClassDefinition) ActiveOn(date time.Time) bool {
	if c.Mode == ClassModeOneOff {
		return c.Date != nil && sameDate(*c.Date, date)
	}
	if c.ActiveFrom != nil && date.Before(*c.ActiveFrom) {
		return false
	}
	if c.ActiveTo != nil && date.After(*c.ActiveTo) {
		return false
	}
	return true
}

// Signature is the exact-match identity used by the idempotent importer.
func (c *ClassDefinition) Signature() string {
	anchor := ""
	if c.Mode == ClassModeRecurring {
		anchor = fmt.Sprintf("wd%d", c.Weekday)
	} else if c.Date != nil {
		anchor = c.Date.Format("2006-01-02")
	}
	return strings.Join([]string{
		string(c.Mode), c.InstructorID, c.SubjectCode, c.ClassTypeCode,
		c.StartMin.String(), c.EndMin.String(), anchor,
	}, "|")
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
