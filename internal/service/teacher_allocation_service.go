package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/zewdu444/takethestage/internal/models"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
)

type teacherShiftStore interface {
	FindByID(ctx context.Context, id string) (*models.TeacherShift, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherShift, error)
	SetSlot(ctx context.Context, exec sqlx.ExtContext, id string, slotID *string) error
}

type slotAssignmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Slot, error)
	SetTeacher(ctx context.Context, exec sqlx.ExtContext, slotID, teacherID string) error
	ClearTeacher(ctx context.Context, exec sqlx.ExtContext, slotID string) error
}

type enrolleeReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollee, error)
}

// AssignTeacherRequest describes a manual teacher-to-slot assignment.
type AssignTeacherRequest struct {
	TeacherID      string `json:"teacher_id" validate:"required"`
	SlotID         string `json:"slot_id" validate:"required"`
	TeacherShiftID string `json:"teacher_shift_id" validate:"required"`
}

// TeacherAllocationService attaches teachers to slots. A shift record holds
// at most one slot; assigning over an existing attachment releases the old
// slot's teacher pointer in the same transaction. Seat counters are never
// touched here.
type TeacherAllocationService struct {
	shifts       teacherShiftStore
	slots        slotAssignmentStore
	enrollees    enrolleeReader
	tx           txRunner
	availability availabilityInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewTeacherAllocationService constructs the service. availability may be nil.
func NewTeacherAllocationService(shifts teacherShiftStore, slots slotAssignmentStore, enrollees enrolleeReader, tx txRunner, availability availabilityInvalidator, validate *validator.Validate, logger *zap.Logger) *TeacherAllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAllocationService{
		shifts:       shifts,
		slots:        slots,
		enrollees:    enrollees,
		tx:           tx,
		availability: availability,
		validator:    validate,
		logger:       logger,
	}
}

// Assign points the teacher's shift record at the slot.
func (s *TeacherAllocationService) Assign(ctx context.Context, req AssignTeacherRequest) (*models.TeacherShift, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	teacher, err := s.enrollees.FindByID(ctx, req.TeacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollee is not a teacher")
	}

	slot, err := s.slots.FindByID(ctx, req.SlotID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}

	shift, err := s.shifts.FindByID(ctx, req.TeacherShiftID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher shift")
	}
	if shift.TeacherID != teacher.ID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "shift record belongs to another teacher")
	}
	if shift.Day != slot.Day {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "slot day does not match shift availability")
	}

	err = s.tx.RunInTx(ctx, func(exec sqlx.ExtContext) error {
		if shift.SlotID != nil && *shift.SlotID != slot.ID {
			if err := s.slots.ClearTeacher(ctx, exec, *shift.SlotID); err != nil {
				return err
			}
		}
		if err := s.shifts.SetSlot(ctx, exec, shift.ID, &slot.ID); err != nil {
			return err
		}
		return s.slots.SetTeacher(ctx, exec, slot.ID, teacher.ID)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
	}

	if s.availability != nil {
		s.availability.InvalidateInstitution(ctx, slot.InstitutionID)
	}

	shift.SlotID = &slot.ID
	s.logger.Info("teacher assigned to slot",
		zap.String("teacher_id", teacher.ID),
		zap.String("slot_id", slot.ID),
		zap.String("teacher_shift_id", shift.ID),
	)
	return shift, nil
}

// ListShifts returns the teacher's registered shift records.
func (s *TeacherAllocationService) ListShifts(ctx context.Context, teacherID string) ([]models.TeacherShift, error) {
	if _, err := s.enrollees.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	shifts, err := s.shifts.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher shifts")
	}
	return shifts, nil
}
