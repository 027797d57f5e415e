package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zewdu444/takethestage/internal/models"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
)

type fakeSlotLister struct {
	slots []models.Slot
	calls int
}

func (f *fakeSlotLister) ListUnassigned(context.Context, string, models.Weekday, models.ActivityKind) ([]models.Slot, error) {
	f.calls++
	return f.slots, nil
}

type memCacheRepo struct {
	entries map[string][]byte
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{entries: make(map[string][]byte)}
}

func (m *memCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	m.entries = make(map[string][]byte)
	return nil
}

func TestAvailabilityCachesListings(t *testing.T) {
	lister := &fakeSlotLister{slots: []models.Slot{{ID: "s1", Name: "Class 1", Day: models.Monday}}}
	cacheSvc := NewCacheService(newMemCacheRepo(), nil, time.Minute, nil, true)
	svc := NewAvailabilityService(lister, cacheSvc, nil)

	first, err := svc.UnassignedSlots(context.Background(), "inst-1", models.Monday, models.KindTraining)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.UnassignedSlots(context.Background(), "inst-1", models.Monday, models.KindTraining)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, lister.calls, "second read comes from the cache")

	svc.InvalidateInstitution(context.Background(), "inst-1")
	_, err = svc.UnassignedSlots(context.Background(), "inst-1", models.Monday, models.KindTraining)
	require.NoError(t, err)
	assert.Equal(t, 2, lister.calls, "invalidation forces a reload")
}

func TestAvailabilityWorksWithoutCache(t *testing.T) {
	lister := &fakeSlotLister{slots: []models.Slot{{ID: "s1"}}}
	svc := NewAvailabilityService(lister, nil, nil)

	slots, err := svc.UnassignedSlots(context.Background(), "inst-1", models.Friday, models.KindCompetition)
	require.NoError(t, err)
	assert.Len(t, slots, 1)

	_, err = svc.UnassignedSlots(context.Background(), "inst-1", models.Friday, models.KindCompetition)
	require.NoError(t, err)
	assert.Equal(t, 2, lister.calls)
}

func TestAvailabilityValidatesInput(t *testing.T) {
	svc := NewAvailabilityService(&fakeSlotLister{}, nil, nil)

	cases := []struct {
		name string
		inst string
		day  models.Weekday
		kind models.ActivityKind
	}{
		{"missing institution", "", models.Monday, models.KindTraining},
		{"bad day", "inst-1", models.Weekday("Sunday"), models.KindTraining},
		{"bad kind", "inst-1", models.Monday, models.ActivityKind("recital")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UnassignedSlots(context.Background(), tc.inst, tc.day, tc.kind)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}
