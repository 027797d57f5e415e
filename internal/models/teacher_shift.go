package models

import "time"

// TeacherShift is a teacher's registered availability for one (day, shift).
// At most one slot may be attached to a shift record at a time; reassignment
// clears the previous slot's teacher pointer first.
type TeacherShift struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Day       Weekday   `db:"day" json:"day"`
	Shift     Shift     `db:"shift" json:"shift"`
	SlotID    *string   `db:"slot_id" json:"slot_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
