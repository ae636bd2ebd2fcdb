package models

import "time"

// Instructor is a roster entry for a teaching staff member.
type Instructor struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Student is a roster entry for an enrolled learner.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassType describes a class format and its enrollment capacity.
type ClassType struct {
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	MaxStudents int    `db:"max_students" json:"max_students"`
}
