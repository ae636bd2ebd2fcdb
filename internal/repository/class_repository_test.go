package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/hagwon-ops/timetable-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func classRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "mode", "weekday", "class_date", "instructor_id", "subject_code", "class_type_code", "start_min", "end_min", "active_from", "active_to", "status", "created_by", "created_at", "updated_at"})
}

func TestClassRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassRepository(db)
	rows := classRows().
		AddRow("class-1", "RECURRING", 2, nil, "inst-1", "MATH", "GROUP", 600, 660, nil, nil, "SCHEDULED", "staff-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, mode, weekday, class_date")).
		WithArgs("class-1").
		WillReturnRows(rows)

	def, err := repo.FindByID(context.Background(), "class-1")
	require.NoError(t, err)
	require.Equal(t, "class-1", def.ID)
	require.Equal(t, models.ClassModeRecurring, def.Mode)
	require.Equal(t, 2, def.Weekday)
	require.Equal(t, models.Clock(600), def.StartMin)
	require.Nil(t, def.Date)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, mode, weekday, class_date")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListRecurringByInstructorWeekday(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassRepository(db)
	ref := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := classRows().
		AddRow("class-1", "RECURRING", 2, nil, "inst-1", "MATH", "GROUP", 600, 660, nil, nil, "SCHEDULED", "staff-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("AND weekday = $3 AND (active_from IS NULL OR active_from <= $4)")).
		WithArgs(models.ClassModeRecurring, "inst-1", 2, ref).
		WillReturnRows(rows)

	defs, err := repo.ListRecurringByInstructorWeekday(context.Background(), "inst-1", 2, ref)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindBySignatureRecurring(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassRepository(db)
	rows := classRows().
		AddRow("class-1", "RECURRING", 2, nil, "inst-1", "MATH", "GROUP", 600, 660, nil, nil, "SCHEDULED", "staff-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("AND start_min = $5 AND end_min = $6 AND weekday = $7")).
		WithArgs(models.ClassModeRecurring, "inst-1", "MATH", "GROUP", models.Clock(600), models.Clock(660), 2).
		WillReturnRows(rows)

	probe := &models.ClassDefinition{
		Placement:     models.RecurringPlacement(2),
		InstructorID:  "inst-1",
		SubjectCode:   "MATH",
		ClassTypeCode: "GROUP",
		StartMin:      600,
		EndMin:        660,
	}
	found, err := repo.FindBySignature(context.Background(), probe)
	require.NoError(t, err)
	require.Equal(t, "class-1", found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_definitions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	def := &models.ClassDefinition{
		Placement:     models.RecurringPlacement(2),
		InstructorID:  "inst-1",
		SubjectCode:   "MATH",
		ClassTypeCode: "GROUP",
		StartMin:      600,
		EndMin:        660,
		Status:        models.ClassStatusScheduled,
		CreatedBy:     "staff-1",
	}
	require.NoError(t, repo.Create(context.Background(), def))
	require.NotEmpty(t, def.ID)
	require.False(t, def.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryUpdatePlacement(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_definitions SET weekday = $1, class_date = $2")).
		WithArgs(4, nil, models.Clock(840), models.Clock(930), sqlmock.AnyArg(), "class-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePlacement(context.Background(), "class-1", models.RecurringPlacement(4), 840, 930)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryWidenActiveFromOnlyWidens(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassRepository(db)
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("active_from IS NOT NULL AND active_from > $1")).
		WithArgs(from, sqlmock.AnyArg(), "class-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.WidenActiveFrom(context.Background(), "class-1", from))
	require.NoError(t, mock.ExpectationsWereMet())
}
