package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/zewdu444/takethestage/internal/models"
)

// TeacherShiftRepository handles persistence of teacher shift records.
type TeacherShiftRepository struct {
	db *sqlx.DB
}

// NewTeacherShiftRepository constructs the repository.
func NewTeacherShiftRepository(db *sqlx.DB) *TeacherShiftRepository {
	return &TeacherShiftRepository{db: db}
}

func (r *TeacherShiftRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const teacherShiftColumns = `id, teacher_id, day, shift, slot_id, created_at`

// FindByID returns a shift record by ID.
func (r *TeacherShiftRepository) FindByID(ctx context.Context, id string) (*models.TeacherShift, error) {
	query := fmt.Sprintf(`SELECT %s FROM teacher_shifts WHERE id = $1`, teacherShiftColumns)
	var shift models.TeacherShift
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// ListByTeacher returns all shift records a teacher has registered.
func (r *TeacherShiftRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherShift, error) {
	query := fmt.Sprintf(`SELECT %s FROM teacher_shifts WHERE teacher_id = $1 ORDER BY day ASC, shift ASC`, teacherShiftColumns)
	var shifts []models.TeacherShift
	if err := r.db.SelectContext(ctx, &shifts, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher shifts: %w", err)
	}
	return shifts, nil
}

// SetSlot points the shift record at a slot (or clears it with nil).
func (r *TeacherShiftRepository) SetSlot(ctx context.Context, exec sqlx.ExtContext, id string, slotID *string) error {
	const query = `UPDATE teacher_shifts SET slot_id = $2 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, slotID); err != nil {
		return fmt.Errorf("set teacher shift slot: %w", err)
	}
	return nil
}
