package service

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zewdu444/takethestage/internal/models"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
)

type fakeInstitutionStore struct {
	created *models.Institution
}

func (f *fakeInstitutionStore) Create(_ context.Context, _ sqlx.ExtContext, institution *models.Institution) error {
	institution.ID = "inst-1"
	f.created = institution
	return nil
}

func (f *fakeInstitutionStore) FindByID(context.Context, string) (*models.Institution, error) {
	return f.created, nil
}

type fakeSlotSeeder struct {
	slots []models.Slot
}

func (f *fakeSlotSeeder) BulkCreate(_ context.Context, _ sqlx.ExtContext, slots []models.Slot) error {
	f.slots = slots
	return nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(_ context.Context, fn func(exec sqlx.ExtContext) error) error {
	return fn(nil)
}

func TestInstitutionCreateSeedsSlotCatalog(t *testing.T) {
	store := &fakeInstitutionStore{}
	seeder := &fakeSlotSeeder{}
	svc := NewInstitutionService(store, seeder, passthroughTx{}, 30, nil, nil)

	institution, err := svc.Create(context.Background(), CreateInstitutionRequest{
		Name:                 "Addis Academy",
		Region:               "Addis Ababa",
		City:                 "Addis Ababa",
		Woreda:               "04",
		FreeClassesMorning:   2,
		FreeClassesAfternoon: 1,
		FreeClassesNight:     0,
	})
	require.NoError(t, err)
	assert.Equal(t, "inst-1", institution.ID)

	// Two class names across six weekdays.
	require.Len(t, seeder.slots, 12)

	byKey := make(map[string]models.Slot, len(seeder.slots))
	for _, s := range seeder.slots {
		byKey[s.Name+"/"+string(s.Day)] = s
		assert.Equal(t, "inst-1", s.InstitutionID)
		assert.Nil(t, s.ActivityKind)
	}

	first := byKey["Class 1/"+string(models.Monday)]
	assert.Equal(t, 30, first.FreeMorning)
	assert.Equal(t, 30, first.FreeAfternoon)
	assert.Equal(t, 0, first.FreeNight)

	// The second class only has morning capacity.
	second := byKey["Class 2/"+string(models.Saturday)]
	assert.Equal(t, 30, second.FreeMorning)
	assert.Equal(t, 0, second.FreeAfternoon)
	assert.Equal(t, 0, second.FreeNight)
}

func TestInstitutionCreateUsesExplicitClassSize(t *testing.T) {
	seeder := &fakeSlotSeeder{}
	svc := NewInstitutionService(&fakeInstitutionStore{}, seeder, passthroughTx{}, 30, nil, nil)

	_, err := svc.Create(context.Background(), CreateInstitutionRequest{
		Name:               "Bahir Dar Prep",
		Region:             "Amhara",
		City:               "Bahir Dar",
		Woreda:             "02",
		FreeClassesMorning: 1,
		ClassSize:          45,
	})
	require.NoError(t, err)
	require.NotEmpty(t, seeder.slots)
	assert.Equal(t, 45, seeder.slots[0].FreeMorning)
}

func TestInstitutionCreateRejectsMissingFields(t *testing.T) {
	svc := NewInstitutionService(&fakeInstitutionStore{}, &fakeSlotSeeder{}, passthroughTx{}, 30, nil, nil)

	_, err := svc.Create(context.Background(), CreateInstitutionRequest{Name: "No Location"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestInstitutionCreateRejectsZeroShifts(t *testing.T) {
	svc := NewInstitutionService(&fakeInstitutionStore{}, &fakeSlotSeeder{}, passthroughTx{}, 30, nil, nil)

	_, err := svc.Create(context.Background(), CreateInstitutionRequest{
		Name:   "Empty",
		Region: "Oromia",
		City:   "Adama",
		Woreda: "01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
