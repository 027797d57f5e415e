package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/zewdu444/takethestage/internal/models"
)

// shiftColumns maps a shift to its seat counter column. Queries are built
// with fmt.Sprintf from this map only, never from request input.
var shiftColumns = map[models.Shift]string{
	models.ShiftMorning:   "free_morning",
	models.ShiftAfternoon: "free_afternoon",
	models.ShiftNight:     "free_night",
}

func shiftColumn(shift models.Shift) (string, error) {
	col, ok := shiftColumns[shift]
	if !ok {
		return "", fmt.Errorf("unknown shift %q", shift)
	}
	return col, nil
}

// SlotRepository manages persistence for the slot catalog.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository constructs the repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BulkCreate inserts the slots seeded at institution registration.
func (r *SlotRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, slots []models.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO slots (id, institution_id, name, day, activity_kind, free_morning, free_afternoon, free_night, teacher_id, created_at)
        VALUES (:id, :institution_id, :name, :day, :activity_kind, :free_morning, :free_afternoon, :free_night, :teacher_id, :created_at)`

	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("create slot: %w", err)
		}
	}
	return nil
}

// CandidateNames returns the names of slots with a free seat in the shift on
// the given day, restricted to slots whose kind matches or is unset. The
// name ordering is stable so tie-breaking stays deterministic.
func (r *SlotRepository) CandidateNames(ctx context.Context, institutionID string, day models.Weekday, shift models.Shift, kind models.ActivityKind) ([]string, error) {
	col, err := shiftColumn(shift)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT name FROM slots
        WHERE institution_id = $1 AND day = $2
        AND (activity_kind = $3 OR activity_kind IS NULL)
        AND %s > 0
        ORDER BY name ASC`, col)

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, institutionID, day, kind); err != nil {
		return nil, fmt.Errorf("list candidate slots: %w", err)
	}
	return names, nil
}

// CountByDay reports how many slots exist for the institution on a day,
// regardless of capacity. Zero means the catalog was never seeded for that
// day, which is a configuration error rather than a capacity outcome.
func (r *SlotRepository) CountByDay(ctx context.Context, institutionID string, day models.Weekday) (int, error) {
	const query = `SELECT COUNT(*) FROM slots WHERE institution_id = $1 AND day = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, institutionID, day); err != nil {
		return 0, fmt.Errorf("count slots: %w", err)
	}
	return count, nil
}

// LockByNameAndDay fetches the slot row for (institution, name, day) under a
// row lock. Must be called inside a transaction.
func (r *SlotRepository) LockByNameAndDay(ctx context.Context, exec sqlx.ExtContext, institutionID, name string, day models.Weekday) (*models.Slot, error) {
	const query = `SELECT id, institution_id, name, day, activity_kind, free_morning, free_afternoon, free_night, teacher_id, created_at
        FROM slots WHERE institution_id = $1 AND name = $2 AND day = $3 FOR UPDATE`
	var slot models.Slot
	if err := sqlx.GetContext(ctx, r.exec(exec), &slot, query, institutionID, name, day); err != nil {
		return nil, err
	}
	return &slot, nil
}

// DecrementShift takes one seat from the slot's shift counter and locks the
// activity kind if it was unset. The WHERE guard keeps the counter
// non-negative and rejects kind conflicts; callers must treat a false return
// as a lost race, not an error.
func (r *SlotRepository) DecrementShift(ctx context.Context, exec sqlx.ExtContext, slotID string, shift models.Shift, kind models.ActivityKind) (bool, error) {
	col, err := shiftColumn(shift)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`UPDATE slots
        SET %[1]s = %[1]s - 1, activity_kind = COALESCE(activity_kind, $2)
        WHERE id = $1 AND %[1]s > 0 AND (activity_kind = $2 OR activity_kind IS NULL)`, col)

	res, err := r.exec(exec).ExecContext(ctx, query, slotID, kind)
	if err != nil {
		return false, fmt.Errorf("decrement slot seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement slot seat: %w", err)
	}
	return affected == 1, nil
}

// FindByID returns a slot by its ID.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.Slot, error) {
	const query = `SELECT id, institution_id, name, day, activity_kind, free_morning, free_afternoon, free_night, teacher_id, created_at
        FROM slots WHERE id = $1`
	var slot models.Slot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListUnassigned returns slots on a day with no teacher attached, filtered
// to the matching or unset activity kind. Feeds the manual teacher
// allocation screen.
func (r *SlotRepository) ListUnassigned(ctx context.Context, institutionID string, day models.Weekday, kind models.ActivityKind) ([]models.Slot, error) {
	const query = `SELECT id, institution_id, name, day, activity_kind, free_morning, free_afternoon, free_night, teacher_id, created_at
        FROM slots
        WHERE institution_id = $1 AND day = $2 AND teacher_id IS NULL
        AND (activity_kind = $3 OR activity_kind IS NULL)
        ORDER BY name ASC`
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query, institutionID, day, kind); err != nil {
		return nil, fmt.Errorf("list unassigned slots: %w", err)
	}
	return slots, nil
}

// SetTeacher attaches a teacher to a slot.
func (r *SlotRepository) SetTeacher(ctx context.Context, exec sqlx.ExtContext, slotID, teacherID string) error {
	const query = `UPDATE slots SET teacher_id = $2 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, slotID, teacherID); err != nil {
		return fmt.Errorf("set slot teacher: %w", err)
	}
	return nil
}

// ClearTeacher detaches whatever teacher is on the slot.
func (r *SlotRepository) ClearTeacher(ctx context.Context, exec sqlx.ExtContext, slotID string) error {
	const query = `UPDATE slots SET teacher_id = NULL WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, slotID); err != nil {
		return fmt.Errorf("clear slot teacher: %w", err)
	}
	return nil
}
