package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/zewdu444/takethestage/internal/models"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
)

type paymentStore interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListByEnrolleeAndStatus(ctx context.Context, enrolleeID string, status models.PaymentStatus) ([]models.Payment, error)
	ListPending(ctx context.Context, limit int) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.PaymentStatus) error
}

type enrolleePaymentStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollee, error)
	SetPaymentState(ctx context.Context, exec sqlx.ExtContext, id string, state models.PaymentState) error
}

type gatewayVerifier interface {
	VerifyTransaction(ctx context.Context, txRef string) (bool, error)
}

type allocator interface {
	Allocate(ctx context.Context, enrolleeID string) (*AllocationResult, error)
}

// PaymentOutcome is the result of a settlement check: the payment after
// verification plus the allocation result when the payment cleared.
type PaymentOutcome struct {
	Paid       bool              `json:"paid"`
	Payment    *models.Payment   `json:"payment,omitempty"`
	Allocation *AllocationResult `json:"allocation,omitempty"`
}

// PaymentService funnels gateway settlement signals into the allocation
// engine. Both delivery paths (the post-redirect verify call and the
// background poller) land here, and both tolerate duplicate delivery: the
// engine's idempotence guard absorbs repeats.
type PaymentService struct {
	payments  paymentStore
	enrollees enrolleePaymentStore
	gateway   gatewayVerifier
	allocator allocator
	tx        txRunner
	logger    *zap.Logger
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(payments paymentStore, enrollees enrolleePaymentStore, gateway gatewayVerifier, alloc allocator, tx txRunner, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		payments:  payments,
		enrollees: enrollees,
		gateway:   gateway,
		allocator: alloc,
		tx:        tx,
		logger:    logger,
	}
}

// VerifyAndAllocate checks one payment against the gateway and, once it
// settles, runs allocation for the owning enrollee.
func (s *PaymentService) VerifyAndAllocate(ctx context.Context, paymentID, enrolleeID string) (*PaymentOutcome, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if enrolleeID != "" && payment.EnrolleeID != enrolleeID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
	}

	if payment.Status != models.PaymentStatusPaid {
		settled, err := s.gateway.VerifyTransaction(ctx, payment.TxRef)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "payment gateway unreachable")
		}
		if !settled {
			return &PaymentOutcome{Paid: false, Payment: payment}, appErrors.Clone(appErrors.ErrPaymentUnpaid, "payment verification failed")
		}
		if err := s.settle(ctx, payment); err != nil {
			return nil, err
		}
	}

	allocation, err := s.allocator.Allocate(ctx, payment.EnrolleeID)
	if err != nil {
		// The payment stays settled; allocation failures are retryable
		// and must never look like payment failures.
		return nil, err
	}
	return &PaymentOutcome{Paid: true, Payment: payment, Allocation: allocation}, nil
}

// PollStatus re-verifies every pending payment for one enrollee. When all
// of them have cleared the enrollee is settled and allocated.
func (s *PaymentService) PollStatus(ctx context.Context, enrolleeID string) (*PaymentOutcome, error) {
	pending, err := s.payments.ListByEnrolleeAndStatus(ctx, enrolleeID, models.PaymentStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	if len(pending) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "pending payments not found")
	}

	for i := range pending {
		settled, err := s.gateway.VerifyTransaction(ctx, pending[i].TxRef)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "payment gateway unreachable")
		}
		if !settled {
			return &PaymentOutcome{Paid: false, Payment: &pending[i]}, nil
		}
		if err := s.settle(ctx, &pending[i]); err != nil {
			return nil, err
		}
	}

	allocation, err := s.allocator.Allocate(ctx, enrolleeID)
	if err != nil {
		return nil, err
	}
	return &PaymentOutcome{Paid: true, Allocation: allocation}, nil
}

// ProcessPending walks the oldest pending payments and settles whichever
// the gateway confirms. Used by the background poller; per-payment failures
// are logged and skipped so one bad record cannot wedge the sweep.
func (s *PaymentService) ProcessPending(ctx context.Context, limit int) error {
	pending, err := s.payments.ListPending(ctx, limit)
	if err != nil {
		return err
	}

	for i := range pending {
		payment := &pending[i]
		settled, err := s.gateway.VerifyTransaction(ctx, payment.TxRef)
		if err != nil {
			s.logger.Warn("pending payment verification failed",
				zap.String("payment_id", payment.ID),
				zap.Error(err),
			)
			continue
		}
		if !settled {
			continue
		}
		if err := s.settle(ctx, payment); err != nil {
			s.logger.Error("failed to settle verified payment",
				zap.String("payment_id", payment.ID),
				zap.Error(err),
			)
			continue
		}
		if _, err := s.allocator.Allocate(ctx, payment.EnrolleeID); err != nil {
			s.logger.Error("allocation failed for settled payment",
				zap.String("payment_id", payment.ID),
				zap.String("enrollee_id", payment.EnrolleeID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// settle marks the payment paid and moves the enrollee to settled. Both
// writes share one transaction so a failure leaves the payment pending and
// the poller can retry it.
func (s *PaymentService) settle(ctx context.Context, payment *models.Payment) error {
	err := s.tx.RunInTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.payments.UpdateStatus(ctx, exec, payment.ID, models.PaymentStatusPaid); err != nil {
			return err
		}
		return s.enrollees.SetPaymentState(ctx, exec, payment.EnrolleeID, models.PaymentSettled)
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle payment")
	}
	payment.Status = models.PaymentStatusPaid
	s.logger.Info("payment settled",
		zap.String("payment_id", payment.ID),
		zap.String("enrollee_id", payment.EnrolleeID),
	)
	return nil
}
