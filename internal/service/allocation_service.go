package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/zewdu444/takethestage/internal/models"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
)

// Allocation outcomes as recorded in results and metrics.
const (
	OutcomeAssigned        = "ASSIGNED"
	OutcomeAlreadyAssigned = "ALREADY_ASSIGNED"
)

// The unassigned outcomes share their codes with the error catalog so the
// reason in the result envelope matches what clients see elsewhere.
var (
	OutcomeNoCapacity   = appErrors.ErrNoCapacity.Code
	OutcomeCapacityRace = appErrors.ErrCapacityRace.Code
)

// errSeatLost signals that a concurrent allocation consumed the candidate
// seat between selection and the row lock. Retryable within the engine.
var errSeatLost = errors.New("seat lost to concurrent allocation")

// errConcurrentAssign signals that another run assigned this enrollee while
// we held slot locks. The transaction rolls back and the engine reports the
// idempotent success path.
var errConcurrentAssign = errors.New("enrollee assigned concurrently")

type slotCatalog interface {
	CandidateNames(ctx context.Context, institutionID string, day models.Weekday, shift models.Shift, kind models.ActivityKind) ([]string, error)
	CountByDay(ctx context.Context, institutionID string, day models.Weekday) (int, error)
	LockByNameAndDay(ctx context.Context, exec sqlx.ExtContext, institutionID, name string, day models.Weekday) (*models.Slot, error)
	DecrementShift(ctx context.Context, exec sqlx.ExtContext, slotID string, shift models.Shift, kind models.ActivityKind) (bool, error)
	FindByID(ctx context.Context, id string) (*models.Slot, error)
}

type enrolleeStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollee, error)
	Assign(ctx context.Context, exec sqlx.ExtContext, id, primarySlotID string, secondarySlotID *string) (bool, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

type allocationRecorder interface {
	RecordAllocation(outcome string, duration time.Duration)
}

type availabilityInvalidator interface {
	InvalidateInstitution(ctx context.Context, institutionID string)
}

// AllocationResult is the structured outcome of an allocation run.
type AllocationResult struct {
	Assigned        bool    `json:"assigned"`
	SlotName        string  `json:"slot_name,omitempty"`
	PrimarySlotID   string  `json:"primary_slot_id,omitempty"`
	SecondarySlotID *string `json:"secondary_slot_id,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}

// AllocationService assigns settled enrollees to slots. It is the only
// component allowed to decrement seat counters or write enrollee assignment
// fields.
type AllocationService struct {
	slots        slotCatalog
	enrollees    enrolleeStore
	tx           txRunner
	metrics      allocationRecorder
	availability availabilityInvalidator
	maxAttempts  int
	logger       *zap.Logger
}

// NewAllocationService constructs the engine. metrics and availability may
// be nil.
func NewAllocationService(slots slotCatalog, enrollees enrolleeStore, tx txRunner, metrics allocationRecorder, availability availabilityInvalidator, maxAttempts int, logger *zap.Logger) *AllocationService {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		slots:        slots,
		enrollees:    enrollees,
		tx:           tx,
		metrics:      metrics,
		availability: availability,
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

// Allocate runs the engine for one enrollee. Safe to call more than once:
// an enrollee who already holds a seat gets the same answer back without a
// second decrement. NoCapacity and CapacityRace come back as unassigned
// results, never as lost payments.
func (s *AllocationService) Allocate(ctx context.Context, enrolleeID string) (*AllocationResult, error) {
	start := time.Now()

	enrollee, err := s.enrollees.FindByID(ctx, enrolleeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollee")
	}

	if enrollee.Assigned() {
		return s.alreadyAssigned(ctx, enrollee, start)
	}

	if enrollee.PaymentState != models.PaymentSettled {
		return nil, appErrors.Clone(appErrors.ErrPaymentUnpaid, "enrollee payment has not settled")
	}

	req, err := enrollee.SeatRequest()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "enrollee registration is malformed")
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		names, err := s.candidateIntersection(ctx, enrollee, req)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			s.record(OutcomeNoCapacity, start)
			s.logger.Info("no capacity for enrollee",
				zap.String("enrollee_id", enrollee.ID),
				zap.String("institution_id", enrollee.ChosenInstitutionID),
				zap.String("shift", string(req.Shift)),
			)
			return &AllocationResult{Assigned: false, Reason: OutcomeNoCapacity}, nil
		}

		chosen := names[0]
		result, err := s.reserve(ctx, enrollee, req, chosen)
		switch {
		case err == nil:
			s.record(OutcomeAssigned, start)
			s.invalidate(ctx, enrollee.ChosenInstitutionID)
			s.logger.Info("enrollee assigned",
				zap.String("enrollee_id", enrollee.ID),
				zap.String("slot_name", chosen),
				zap.Int("attempt", attempt),
			)
			return result, nil
		case errors.Is(err, errSeatLost):
			s.logger.Warn("seat taken by concurrent allocation, retrying",
				zap.String("enrollee_id", enrollee.ID),
				zap.String("slot_name", chosen),
				zap.Int("attempt", attempt),
			)
			continue
		case errors.Is(err, errConcurrentAssign):
			refreshed, ferr := s.enrollees.FindByID(ctx, enrollee.ID)
			if ferr != nil {
				return nil, appErrors.Wrap(ferr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload enrollee")
			}
			return s.alreadyAssigned(ctx, refreshed, start)
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "allocation failed")
		}
	}

	s.record(OutcomeCapacityRace, start)
	return &AllocationResult{Assigned: false, Reason: OutcomeCapacityRace}, nil
}

// Status reports the current assignment for an enrollee without touching
// any counter.
func (s *AllocationService) Status(ctx context.Context, enrolleeID string) (*AllocationResult, error) {
	enrollee, err := s.enrollees.FindByID(ctx, enrolleeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollee")
	}
	if !enrollee.Assigned() {
		return &AllocationResult{Assigned: false}, nil
	}

	result := &AllocationResult{
		Assigned:        true,
		PrimarySlotID:   *enrollee.AssignedSlotPrimary,
		SecondarySlotID: enrollee.AssignedSlotSecondary,
		Reason:          OutcomeAlreadyAssigned,
	}
	if slot, err := s.slots.FindByID(ctx, *enrollee.AssignedSlotPrimary); err == nil {
		result.SlotName = slot.Name
	}
	return result, nil
}

// candidateIntersection computes, per requested day, the slot names with a
// free seat, then keeps only names free on every day. The result is sorted
// so the engine always packs the lexicographically smallest class first.
func (s *AllocationService) candidateIntersection(ctx context.Context, enrollee *models.Enrollee, req models.SeatRequest) ([]string, error) {
	var common map[string]struct{}
	for _, day := range req.Days {
		total, err := s.slots.CountByDay(ctx, enrollee.ChosenInstitutionID, day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect slot catalog")
		}
		if total == 0 {
			s.logger.Error("slot catalog missing for requested day",
				zap.String("institution_id", enrollee.ChosenInstitutionID),
				zap.String("day", string(day)),
			)
			return nil, appErrors.Clone(appErrors.ErrDataIntegrity, "institution has no slots on "+string(day))
		}

		names, err := s.slots.CandidateNames(ctx, enrollee.ChosenInstitutionID, day, req.Shift, enrollee.ActivityKind)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list candidate slots")
		}

		daySet := make(map[string]struct{}, len(names))
		for _, name := range names {
			daySet[name] = struct{}{}
		}
		if common == nil {
			common = daySet
			continue
		}
		for name := range common {
			if _, ok := daySet[name]; !ok {
				delete(common, name)
			}
		}
	}

	result := make([]string, 0, len(common))
	for name := range common {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

// reserve performs the atomic unit: lock every per-day row for the chosen
// name, re-validate, decrement, and write the enrollee assignment. Any
// failure rolls the whole unit back.
func (s *AllocationService) reserve(ctx context.Context, enrollee *models.Enrollee, req models.SeatRequest, name string) (*AllocationResult, error) {
	// Lock rows in calendar order regardless of how the pair was requested,
	// otherwise two transactions over opposite-order pairs can deadlock.
	lockDays := append([]models.Weekday(nil), req.Days...)
	sort.Slice(lockDays, func(i, j int) bool { return lockDays[i].Ordinal() < lockDays[j].Ordinal() })

	slotByDay := make(map[models.Weekday]string, len(req.Days))

	err := s.tx.RunInTx(ctx, func(exec sqlx.ExtContext) error {
		clear(slotByDay)
		for _, day := range lockDays {
			slot, err := s.slots.LockByNameAndDay(ctx, exec, enrollee.ChosenInstitutionID, name, day)
			if err != nil {
				if err == sql.ErrNoRows {
					return errSeatLost
				}
				return err
			}
			if slot.FreeSeats(req.Shift) <= 0 || !slot.AcceptsKind(enrollee.ActivityKind) {
				return errSeatLost
			}
			ok, err := s.slots.DecrementShift(ctx, exec, slot.ID, req.Shift, enrollee.ActivityKind)
			if err != nil {
				return err
			}
			if !ok {
				return errSeatLost
			}
			slotByDay[day] = slot.ID
		}

		var secondary *string
		if len(req.Days) > 1 {
			id := slotByDay[req.Days[1]]
			secondary = &id
		}
		ok, err := s.enrollees.Assign(ctx, exec, enrollee.ID, slotByDay[req.Days[0]], secondary)
		if err != nil {
			return err
		}
		if !ok {
			return errConcurrentAssign
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &AllocationResult{
		Assigned:      true,
		SlotName:      name,
		PrimarySlotID: slotByDay[req.Days[0]],
		Reason:        OutcomeAssigned,
	}
	if len(req.Days) > 1 {
		id := slotByDay[req.Days[1]]
		result.SecondarySlotID = &id
	}
	return result, nil
}

func (s *AllocationService) alreadyAssigned(ctx context.Context, enrollee *models.Enrollee, start time.Time) (*AllocationResult, error) {
	result := &AllocationResult{
		Assigned:        true,
		PrimarySlotID:   *enrollee.AssignedSlotPrimary,
		SecondarySlotID: enrollee.AssignedSlotSecondary,
		Reason:          OutcomeAlreadyAssigned,
	}
	if slot, err := s.slots.FindByID(ctx, *enrollee.AssignedSlotPrimary); err == nil {
		result.SlotName = slot.Name
	}
	s.record(OutcomeAlreadyAssigned, start)
	return result, nil
}

func (s *AllocationService) record(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordAllocation(outcome, time.Since(start))
	}
}

func (s *AllocationService) invalidate(ctx context.Context, institutionID string) {
	if s.availability != nil {
		s.availability.InvalidateInstitution(ctx, institutionID)
	}
}
