package payherewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/archfoundry/archcomp-backend/internal/payments"
	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
	"github.com/archfoundry/archcomp-backend/pkg/payhere"
)

type notifyVerifier interface {
	VerifyNotify(n payhere.Notification) error
}

type paymentLifecycle interface {
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	ApplyGatewayResult(ctx context.Context, input payments.ApplyInput) error
}

// ServiceParams wires the webhook consumer dependencies.
type ServiceParams struct {
	Verifier notifyVerifier
	Payments paymentLifecycle
	Guard    *IdempotencyGuard
	Logger   *logger.Logger
}

// Service consumes PayHere server-to-server notify callbacks. Verification
// happens before any state change: an unverifiable callback is dropped as if
// it never arrived.
type Service struct {
	verifier notifyVerifier
	payments paymentLifecycle
	guard    *IdempotencyGuard
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notify verifier required")
	}
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		verifier: params.Verifier,
		payments: params.Payments,
		guard:    params.Guard,
		logg:     params.Logger,
	}, nil
}

// HandleNotify verifies and applies one callback. A JSON snapshot of the
// parsed callback is stored on the payment for later inspection; the column
// is jsonb, so the raw form-encoded body must never reach it.
func (s *Service) HandleNotify(ctx context.Context, n payhere.Notification) error {
	ctx = s.logg.WithOrderID(ctx, n.OrderID)

	if err := s.verifier.VerifyNotify(n); err != nil {
		s.logg.Warn(ctx, "dropping payhere callback with bad signature")
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "signature verification failed")
	}

	status := mapStatusCode(n.StatusCode)

	payment, err := s.payments.GetByOrderID(ctx, n.OrderID)
	if err != nil {
		return err
	}
	if !n.AmountMatches(payment.AmountCents) {
		s.logg.Warn(ctx, "dropping payhere callback with mismatched amount")
		return pkgerrors.New(pkgerrors.CodeValidation, "callback amount does not match the payment")
	}

	snapshot, err := json.Marshal(n)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode callback snapshot")
	}

	eventID := fmt.Sprintf("%s:%s", n.OrderID, n.StatusCode)
	seen, err := s.guard.CheckAndMark(ctx, eventID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	if seen {
		s.logg.Info(ctx, "duplicate payhere callback ignored")
		return nil
	}

	err = s.payments.ApplyGatewayResult(ctx, payments.ApplyInput{
		OrderID:          n.OrderID,
		Status:           status,
		GatewayPaymentID: n.PaymentID,
		RawPayload:       snapshot,
		StatusReason:     n.StatusMessage,
	})
	if err != nil {
		// unmark so the provider's retry gets another attempt
		if delErr := s.guard.Delete(ctx, eventID); delErr != nil {
			s.logg.Warn(ctx, "failed to release idempotency key after handler error")
		}
		return err
	}
	return nil
}

// mapStatusCode translates PayHere's notify status codes into payment states.
// An empty code means the gateway never concluded; the payment stays PENDING
// for the reconciliation job. Any other unrecognized code is a verified
// non-success outcome and lands as FAILED.
func mapStatusCode(code string) enums.PaymentStatus {
	switch code {
	case payhere.StatusSuccess:
		return enums.PaymentStatusCompleted
	case payhere.StatusPending, "":
		return enums.PaymentStatusPending
	case payhere.StatusCancelled:
		return enums.PaymentStatusCancelled
	case payhere.StatusChargeback:
		return enums.PaymentStatusRefunded
	default:
		return enums.PaymentStatusFailed
	}
}
