package models

import (
	"fmt"
	"time"
)

// Weekday is one of the six teaching days a slot can be scheduled on.
type Weekday string

// Teaching days. Sunday has no slots.
const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

// Weekdays lists all teaching days in calendar order. Slot seeding iterates
// this slice, so its order is the creation order of per-day slot rows.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Valid reports whether the weekday is a known teaching day.
func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday:
		return true
	}
	return false
}

// Ordinal returns the weekday's position in calendar order, or -1 for an
// unknown day. Row locks are taken in this order so two transactions over
// the same day pair never wait on each other.
func (d Weekday) Ordinal() int {
	for i, day := range Weekdays {
		if day == d {
			return i
		}
	}
	return -1
}

// Shift selects one of the three independent seat counters on a slot.
type Shift string

// Shifts.
const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftNight     Shift = "night"
)

// Valid reports whether the shift is known.
func (s Shift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftNight:
		return true
	}
	return false
}

// ActivityKind partitions slots between the training and competition tracks.
// A slot with no kind accepts either; the first assignment locks it.
type ActivityKind string

// Activity kinds.
const (
	KindTraining    ActivityKind = "training"
	KindCompetition ActivityKind = "competition"
)

// Valid reports whether the kind is known.
func (k ActivityKind) Valid() bool {
	return k == KindTraining || k == KindCompetition
}

// Slot is one (institution, class name, weekday) unit of seating. The same
// class name appears once per weekday, each row carrying its own three shift
// counters. Counters are mutated only by the allocation engine.
type Slot struct {
	ID            string        `db:"id" json:"id"`
	InstitutionID string        `db:"institution_id" json:"institution_id"`
	Name          string        `db:"name" json:"name"`
	Day           Weekday       `db:"day" json:"day"`
	ActivityKind  *ActivityKind `db:"activity_kind" json:"activity_kind,omitempty"`
	FreeMorning   int           `db:"free_morning" json:"free_morning"`
	FreeAfternoon int           `db:"free_afternoon" json:"free_afternoon"`
	FreeNight     int           `db:"free_night" json:"free_night"`
	TeacherID     *string       `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// FreeSeats returns the counter for the given shift.
func (s *Slot) FreeSeats(shift Shift) int {
	switch shift {
	case ShiftMorning:
		return s.FreeMorning
	case ShiftAfternoon:
		return s.FreeAfternoon
	case ShiftNight:
		return s.FreeNight
	}
	return 0
}

// AcceptsKind reports whether the slot can take an enrollee of the given
// kind: either the kinds match or the slot's kind is still unset.
func (s *Slot) AcceptsKind(kind ActivityKind) bool {
	return s.ActivityKind == nil || *s.ActivityKind == kind
}

// SeatRequest is the normalized seat demand derived from an enrollee's
// registration: one weekday for the competition track, a fixed weekday pair
// for training. Every requested day shares the same shift, and the engine
// must place all days under one class name.
type SeatRequest struct {
	Shift Shift
	Days  []Weekday
}

// SingleDay builds a one-day request.
func SingleDay(day Weekday, shift Shift) SeatRequest {
	return SeatRequest{Shift: shift, Days: []Weekday{day}}
}

// DayPair builds a two-day request.
func DayPair(first, second Weekday, shift Shift) SeatRequest {
	return SeatRequest{Shift: shift, Days: []Weekday{first, second}}
}

// Validate checks the request shape.
func (r SeatRequest) Validate() error {
	if !r.Shift.Valid() {
		return fmt.Errorf("invalid shift %q", r.Shift)
	}
	if len(r.Days) == 0 || len(r.Days) > 2 {
		return fmt.Errorf("request must cover one or two days, got %d", len(r.Days))
	}
	seen := make(map[Weekday]struct{}, len(r.Days))
	for _, day := range r.Days {
		if !day.Valid() {
			return fmt.Errorf("invalid weekday %q", day)
		}
		if _, dup := seen[day]; dup {
			return fmt.Errorf("duplicate weekday %q", day)
		}
		seen[day] = struct{}{}
	}
	return nil
}
