package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotAcceptsKind(t *testing.T) {
	unlocked := &Slot{}
	assert.True(t, unlocked.AcceptsKind(KindTraining))
	assert.True(t, unlocked.AcceptsKind(KindCompetition))

	kind := KindTraining
	locked := &Slot{ActivityKind: &kind}
	assert.True(t, locked.AcceptsKind(KindTraining))
	assert.False(t, locked.AcceptsKind(KindCompetition))
}

func TestSlotFreeSeats(t *testing.T) {
	slot := &Slot{FreeMorning: 3, FreeAfternoon: 0, FreeNight: 7}
	assert.Equal(t, 3, slot.FreeSeats(ShiftMorning))
	assert.Equal(t, 0, slot.FreeSeats(ShiftAfternoon))
	assert.Equal(t, 7, slot.FreeSeats(ShiftNight))
	assert.Equal(t, 0, slot.FreeSeats(Shift("midnight")))
}

func TestSeatRequestValidate(t *testing.T) {
	require.NoError(t, SingleDay(Monday, ShiftMorning).Validate())
	require.NoError(t, DayPair(Monday, Thursday, ShiftNight).Validate())

	assert.Error(t, SingleDay(Weekday("Sunday"), ShiftMorning).Validate())
	assert.Error(t, SingleDay(Monday, Shift("brunch")).Validate())
	assert.Error(t, DayPair(Monday, Monday, ShiftMorning).Validate(), "a day pair needs two distinct days")
}

func TestEnrolleeSeatRequest(t *testing.T) {
	day2 := Thursday
	training := &Enrollee{ID: "e1", ActivityKind: KindTraining, RequestedShift: ShiftMorning, Day1: Monday, Day2: &day2}
	req, err := training.SeatRequest()
	require.NoError(t, err)
	assert.Equal(t, []Weekday{Monday, Thursday}, req.Days)

	competition := &Enrollee{ID: "e2", ActivityKind: KindCompetition, RequestedShift: ShiftNight, Day1: Friday, Day2: &day2}
	req, err = competition.SeatRequest()
	require.NoError(t, err)
	assert.Equal(t, []Weekday{Friday}, req.Days, "competition attends a single day")

	noSecond := &Enrollee{ID: "e3", ActivityKind: KindTraining, RequestedShift: ShiftMorning, Day1: Monday}
	_, err = noSecond.SeatRequest()
	assert.Error(t, err)

	unknown := &Enrollee{ID: "e4", ActivityKind: ActivityKind("recital"), Day1: Monday}
	_, err = unknown.SeatRequest()
	assert.Error(t, err)
}
