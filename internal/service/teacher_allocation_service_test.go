package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zewdu444/takethestage/internal/models"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
)

type fakeTeacherShiftStore struct {
	shifts map[string]*models.TeacherShift
}

func (f *fakeTeacherShiftStore) FindByID(_ context.Context, id string) (*models.TeacherShift, error) {
	s, ok := f.shifts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (f *fakeTeacherShiftStore) ListByTeacher(_ context.Context, teacherID string) ([]models.TeacherShift, error) {
	var out []models.TeacherShift
	for _, s := range f.shifts {
		if s.TeacherID == teacherID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeTeacherShiftStore) SetSlot(_ context.Context, _ sqlx.ExtContext, id string, slotID *string) error {
	f.shifts[id].SlotID = slotID
	return nil
}

type fakeSlotAssignmentStore struct {
	slots   map[string]*models.Slot
	cleared []string
}

func (f *fakeSlotAssignmentStore) FindByID(_ context.Context, id string) (*models.Slot, error) {
	s, ok := f.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSlotAssignmentStore) SetTeacher(_ context.Context, _ sqlx.ExtContext, slotID, teacherID string) error {
	f.slots[slotID].TeacherID = &teacherID
	return nil
}

func (f *fakeSlotAssignmentStore) ClearTeacher(_ context.Context, _ sqlx.ExtContext, slotID string) error {
	f.slots[slotID].TeacherID = nil
	f.cleared = append(f.cleared, slotID)
	return nil
}

type fakeEnrolleeReader struct {
	enrollees map[string]*models.Enrollee
}

func (f *fakeEnrolleeReader) FindByID(_ context.Context, id string) (*models.Enrollee, error) {
	e, ok := f.enrollees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

func newTeacherFixture() (*fakeTeacherShiftStore, *fakeSlotAssignmentStore, *fakeEnrolleeReader) {
	shifts := &fakeTeacherShiftStore{shifts: map[string]*models.TeacherShift{
		"shift-1": {ID: "shift-1", TeacherID: "t-1", Day: models.Monday, Shift: models.ShiftMorning},
	}}
	slots := &fakeSlotAssignmentStore{slots: map[string]*models.Slot{
		"slot-1": {ID: "slot-1", InstitutionID: "inst-1", Name: "Class 1", Day: models.Monday},
		"slot-2": {ID: "slot-2", InstitutionID: "inst-1", Name: "Class 2", Day: models.Monday},
	}}
	enrollees := &fakeEnrolleeReader{enrollees: map[string]*models.Enrollee{
		"t-1": {ID: "t-1", Role: models.RoleTeacher},
		"s-1": {ID: "s-1", Role: models.RoleStudent},
	}}
	return shifts, slots, enrollees
}

func TestTeacherAssign(t *testing.T) {
	shifts, slots, enrollees := newTeacherFixture()
	svc := NewTeacherAllocationService(shifts, slots, enrollees, passthroughTx{}, nil, nil, nil)

	shift, err := svc.Assign(context.Background(), AssignTeacherRequest{
		TeacherID:      "t-1",
		SlotID:         "slot-1",
		TeacherShiftID: "shift-1",
	})
	require.NoError(t, err)
	require.NotNil(t, shift.SlotID)
	assert.Equal(t, "slot-1", *shift.SlotID)
	require.NotNil(t, slots.slots["slot-1"].TeacherID)
	assert.Equal(t, "t-1", *slots.slots["slot-1"].TeacherID)
}

func TestTeacherReassignReleasesOldSlot(t *testing.T) {
	shifts, slots, enrollees := newTeacherFixture()
	svc := NewTeacherAllocationService(shifts, slots, enrollees, passthroughTx{}, nil, nil, nil)

	_, err := svc.Assign(context.Background(), AssignTeacherRequest{
		TeacherID: "t-1", SlotID: "slot-1", TeacherShiftID: "shift-1",
	})
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), AssignTeacherRequest{
		TeacherID: "t-1", SlotID: "slot-2", TeacherShiftID: "shift-1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"slot-1"}, slots.cleared)
	assert.Nil(t, slots.slots["slot-1"].TeacherID)
	require.NotNil(t, slots.slots["slot-2"].TeacherID)
	assert.Equal(t, "t-1", *slots.slots["slot-2"].TeacherID)
}

func TestTeacherAssignRejectsNonTeacher(t *testing.T) {
	shifts, slots, enrollees := newTeacherFixture()
	svc := NewTeacherAllocationService(shifts, slots, enrollees, passthroughTx{}, nil, nil, nil)

	_, err := svc.Assign(context.Background(), AssignTeacherRequest{
		TeacherID: "s-1", SlotID: "slot-1", TeacherShiftID: "shift-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestTeacherAssignRejectsForeignShift(t *testing.T) {
	shifts, slots, enrollees := newTeacherFixture()
	enrollees.enrollees["t-2"] = &models.Enrollee{ID: "t-2", Role: models.RoleTeacher}
	svc := NewTeacherAllocationService(shifts, slots, enrollees, passthroughTx{}, nil, nil, nil)

	_, err := svc.Assign(context.Background(), AssignTeacherRequest{
		TeacherID: "t-2", SlotID: "slot-1", TeacherShiftID: "shift-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestTeacherAssignRejectsDayMismatch(t *testing.T) {
	shifts, slots, enrollees := newTeacherFixture()
	slots.slots["slot-3"] = &models.Slot{ID: "slot-3", InstitutionID: "inst-1", Name: "Class 3", Day: models.Friday}
	svc := NewTeacherAllocationService(shifts, slots, enrollees, passthroughTx{}, nil, nil, nil)

	_, err := svc.Assign(context.Background(), AssignTeacherRequest{
		TeacherID: "t-1", SlotID: "slot-3", TeacherShiftID: "shift-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestTeacherListShifts(t *testing.T) {
	shifts, slots, enrollees := newTeacherFixture()
	svc := NewTeacherAllocationService(shifts, slots, enrollees, passthroughTx{}, nil, nil, nil)

	listed, err := svc.ListShifts(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = svc.ListShifts(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
