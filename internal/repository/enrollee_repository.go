package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zewdu444/takethestage/internal/models"
)

// EnrolleeRepository handles persistence of enrollees.
type EnrolleeRepository struct {
	db *sqlx.DB
}

// NewEnrolleeRepository constructs the repository.
func NewEnrolleeRepository(db *sqlx.DB) *EnrolleeRepository {
	return &EnrolleeRepository{db: db}
}

func (r *EnrolleeRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const enrolleeColumns = `id, email, full_name, role, chosen_institution_id, activity_kind, requested_shift,
        day1, day2, assigned_slot_primary, assigned_slot_secondary, payment_state, created_at, updated_at`

// FindByID returns an enrollee by ID.
func (r *EnrolleeRepository) FindByID(ctx context.Context, id string) (*models.Enrollee, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollees WHERE id = $1`, enrolleeColumns)
	var enrollee models.Enrollee
	if err := r.db.GetContext(ctx, &enrollee, query, id); err != nil {
		return nil, err
	}
	return &enrollee, nil
}

// Assign writes the slot references chosen by the allocation engine. The
// guard on assigned_slot_primary makes a duplicate allocation attempt a
// no-op at the row level; callers must check the returned flag.
func (r *EnrolleeRepository) Assign(ctx context.Context, exec sqlx.ExtContext, id, primarySlotID string, secondarySlotID *string) (bool, error) {
	const query = `UPDATE enrollees
        SET assigned_slot_primary = $2, assigned_slot_secondary = $3, payment_state = $4, updated_at = $5
        WHERE id = $1 AND assigned_slot_primary IS NULL`
	res, err := r.exec(exec).ExecContext(ctx, query, id, primarySlotID, secondarySlotID, models.PaymentSettled, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("assign enrollee: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign enrollee: %w", err)
	}
	return affected == 1, nil
}

// SetPaymentState updates the enrollee's payment state.
func (r *EnrolleeRepository) SetPaymentState(ctx context.Context, exec sqlx.ExtContext, id string, state models.PaymentState) error {
	const query = `UPDATE enrollees SET payment_state = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, state, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollee payment state: %w", err)
	}
	return nil
}
