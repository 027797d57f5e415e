package models

import (
	"fmt"
	"time"
)

// EnrolleeRole distinguishes the two populations sharing the slot catalog.
type EnrolleeRole string

// Roles.
const (
	RoleStudent EnrolleeRole = "student"
	RoleTeacher EnrolleeRole = "teacher"
)

// PaymentState tracks whether an enrollee's fee has cleared. Allocation only
// ever runs for settled enrollees.
type PaymentState string

// Payment states.
const (
	PaymentPending PaymentState = "pending"
	PaymentSettled PaymentState = "settled"
	PaymentFailed  PaymentState = "failed"
)

// Enrollee is a student or teacher seeking a seat. The assignment fields are
// written exactly once, by a successful allocation run.
type Enrollee struct {
	ID                    string       `db:"id" json:"id"`
	Email                 string       `db:"email" json:"email"`
	FullName              string       `db:"full_name" json:"full_name"`
	Role                  EnrolleeRole `db:"role" json:"role"`
	ChosenInstitutionID   string       `db:"chosen_institution_id" json:"chosen_institution_id"`
	ActivityKind          ActivityKind `db:"activity_kind" json:"activity_kind"`
	RequestedShift        Shift        `db:"requested_shift" json:"requested_shift"`
	Day1                  Weekday      `db:"day1" json:"day1"`
	Day2                  *Weekday     `db:"day2" json:"day2,omitempty"`
	AssignedSlotPrimary   *string      `db:"assigned_slot_primary" json:"assigned_slot_primary,omitempty"`
	AssignedSlotSecondary *string      `db:"assigned_slot_secondary" json:"assigned_slot_secondary,omitempty"`
	PaymentState          PaymentState `db:"payment_state" json:"payment_state"`
	CreatedAt             time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time    `db:"updated_at" json:"updated_at"`
}

// Assigned reports whether the enrollee already holds a seat.
func (e *Enrollee) Assigned() bool {
	return e.AssignedSlotPrimary != nil
}

// SeatRequest normalizes the enrollee's registration into the engine's
// request shape. Competition enrollees attend a single day; training
// enrollees attend a fixed day pair under the same class name.
func (e *Enrollee) SeatRequest() (SeatRequest, error) {
	var req SeatRequest
	switch e.ActivityKind {
	case KindCompetition:
		req = SingleDay(e.Day1, e.RequestedShift)
	case KindTraining:
		if e.Day2 == nil {
			return SeatRequest{}, fmt.Errorf("training enrollee %s has no second day", e.ID)
		}
		req = DayPair(e.Day1, *e.Day2, e.RequestedShift)
	default:
		return SeatRequest{}, fmt.Errorf("enrollee %s has invalid activity kind %q", e.ID, e.ActivityKind)
	}
	if err := req.Validate(); err != nil {
		return SeatRequest{}, fmt.Errorf("enrollee %s: %w", e.ID, err)
	}
	return req, nil
}
