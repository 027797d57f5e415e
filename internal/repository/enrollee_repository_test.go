package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zewdu444/takethestage/internal/models"
)

func newEnrolleeMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func enrolleeRows() *sqlmock.Rows {
	day1 := string(models.Monday)
	return sqlmock.NewRows([]string{
		"id", "email", "full_name", "role", "chosen_institution_id", "activity_kind", "requested_shift",
		"day1", "day2", "assigned_slot_primary", "assigned_slot_secondary", "payment_state", "created_at", "updated_at",
	}).AddRow(
		"enr-1", "a@b.c", "Abebe", string(models.RoleStudent), "inst-1", string(models.KindCompetition), string(models.ShiftMorning),
		day1, nil, nil, nil, string(models.PaymentSettled), time.Now(), time.Now(),
	)
}

func TestEnrolleeRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newEnrolleeMock(t)
	defer cleanup()
	repo := NewEnrolleeRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM enrollees WHERE id = \$1`).
		WithArgs("enr-1").
		WillReturnRows(enrolleeRows())

	enrollee, err := repo.FindByID(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, "enr-1", enrollee.ID)
	assert.Equal(t, models.PaymentSettled, enrollee.PaymentState)
	assert.False(t, enrollee.Assigned())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrolleeRepositoryAssign(t *testing.T) {
	db, mock, cleanup := newEnrolleeMock(t)
	defer cleanup()
	repo := NewEnrolleeRepository(db)

	secondary := "slot-2"
	mock.ExpectExec(`UPDATE enrollees`).
		WithArgs("enr-1", "slot-1", &secondary, models.PaymentSettled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Assign(context.Background(), nil, "enr-1", "slot-1", &secondary)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrolleeRepositoryAssignAlreadyAssigned(t *testing.T) {
	db, mock, cleanup := newEnrolleeMock(t)
	defer cleanup()
	repo := NewEnrolleeRepository(db)

	// The guard on assigned_slot_primary stops a second write.
	mock.ExpectExec(`UPDATE enrollees`).
		WithArgs("enr-1", "slot-1", nil, models.PaymentSettled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Assign(context.Background(), nil, "enr-1", "slot-1", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
