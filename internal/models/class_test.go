package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacementValidate(t *testing.T) {
	assert.NoError(t, RecurringPlacement(1).Validate())
	assert.NoError(t, RecurringPlacement(7).Validate())
	assert.Error(t, RecurringPlacement(0).Validate())
	assert.Error(t, RecurringPlacement(8).Validate())

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, OneOffPlacement(date).Validate())
	assert.Error(t, Placement{Mode: ClassModeOneOff}.Validate())
	assert.Error(t, Placement{Mode: ClassModeOneOff, Weekday: 2, Date: &date}.Validate())
	assert.Error(t, Placement{Mode: "WEEKLY", Weekday: 2}.Validate())
}

func TestActiveOnRecurringWindow(t *testing.T) {
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	def := ClassDefinition{Placement: RecurringPlacement(2), ActiveFrom: &from, ActiveTo: &to}

	assert.True(t, def.ActiveOn(from))
	assert.True(t, def.ActiveOn(to))
	assert.True(t, def.ActiveOn(time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)))
	assert.False(t, def.ActiveOn(from.AddDate(0, 0, -1)))
	assert.False(t, def.ActiveOn(to.AddDate(0, 0, 1)))
}

func TestActiveOnOpenEndedWindow(t *testing.T) {
	def := ClassDefinition{Placement: RecurringPlacement(2)}
	assert.True(t, def.ActiveOn(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, def.ActiveOn(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestActiveOnOneOff(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	def := ClassDefinition{Placement: OneOffPlacement(date)}
	assert.True(t, def.ActiveOn(date))
	assert.False(t, def.ActiveOn(date.AddDate(0, 0, 1)))
}

func TestSignatureDistinguishesAnchor(t *testing.T) {
	recurring := ClassDefinition{
		Placement:     RecurringPlacement(2),
		InstructorID:  "inst-1",
		SubjectCode:   "MATH",
		ClassTypeCode: "GROUP",
		StartMin:      600,
		EndMin:        660,
	}
	require.Equal(t, "RECURRING|inst-1|MATH|GROUP|10:00|11:00|wd2", recurring.Signature())

	other := recurring
	other.Placement = RecurringPlacement(3)
	assert.NotEqual(t, recurring.Signature(), other.Signature())

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	oneOff := recurring
	oneOff.Placement = OneOffPlacement(date)
	require.Equal(t, "ONE_OFF|inst-1|MATH|GROUP|10:00|11:00|2026-03-10", oneOff.Signature())
}

func TestValidClassStatus(t *testing.T) {
	assert.True(t, ValidClassStatus(ClassStatusScheduled))
	assert.True(t, ValidClassStatus(ClassStatusNoShow))
	assert.False(t, ValidClassStatus("PAUSED"))
}
