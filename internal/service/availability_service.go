package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zewdu444/takethestage/internal/models"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
)

type slotLister interface {
	ListUnassigned(ctx context.Context, institutionID string, day models.Weekday, kind models.ActivityKind) ([]models.Slot, error)
}

// AvailabilityService serves slot availability listings for the manual
// teacher allocation screen, with an optional Redis-backed cache. Cache
// entries are invalidated whenever the allocation engine or a teacher
// assignment touches the institution's slots.
type AvailabilityService struct {
	slots  slotLister
	cache  *CacheService
	logger *zap.Logger
}

// NewAvailabilityService constructs AvailabilityService. cache may be nil.
func NewAvailabilityService(slots slotLister, cache *CacheService, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{slots: slots, cache: cache, logger: logger}
}

// UnassignedSlots lists the institution's teacherless slots on a day,
// restricted to the matching or unset activity kind.
func (s *AvailabilityService) UnassignedSlots(ctx context.Context, institutionID string, day models.Weekday, kind models.ActivityKind) ([]models.Slot, error) {
	if institutionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "institution id is required")
	}
	if !day.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid day")
	}
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid activity kind")
	}

	key := availabilityKey(institutionID, day, kind)
	var cached []models.Slot
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	slots, err := s.slots.ListUnassigned(ctx, institutionID, day, kind)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unassigned slots")
	}

	if err := s.cache.Set(ctx, key, slots, 0); err != nil {
		s.logger.Warn("availability cache write failed", zap.String("key", key), zap.Error(err))
	}
	return slots, nil
}

// InvalidateInstitution drops every cached listing for the institution.
func (s *AvailabilityService) InvalidateInstitution(ctx context.Context, institutionID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("availability:%s:*", institutionID)); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.String("institution_id", institutionID), zap.Error(err))
	}
}

func availabilityKey(institutionID string, day models.Weekday, kind models.ActivityKind) string {
	return fmt.Sprintf("availability:%s:%s:%s", institutionID, day, kind)
}
