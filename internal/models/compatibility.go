package models

import "time"

// CompatibilityRule decides whether two class types may overlap for one
// instructor. The pair is ordered and the table is not auto-symmetrized.
type CompatibilityRule struct {
	TypeA      string    `db:"type_a" json:"type_a"`
	TypeB      string    `db:"type_b" json:"type_b"`
	Compatible bool      `db:"compatible" json:"compatible"`
	Reason     string    `db:"reason" json:"reason"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
