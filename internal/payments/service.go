package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
	"github.com/archfoundry/archcomp-backend/pkg/payhere"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentRepository is the persistence surface the service depends on.
type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository
	Create(ctx context.Context, payment *models.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	UpdateStatusIfIn(ctx context.Context, orderID string, from []enums.PaymentStatus, to enums.PaymentStatus, updates map[string]any) (int64, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error)
}

type materializer interface {
	Materialize(ctx context.Context, orderID string) error
}

type registrationUpdater interface {
	UpdateStatusByPayment(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, status enums.RegistrationStatus) (int64, error)
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry models.AuditLog) error
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, payload map[string]any)
}

type gatewaySearcher interface {
	SearchPayment(ctx context.Context, orderID string) ([]payhere.PaymentDetail, error)
}

// ApplyInput is the outcome of a verified gateway callback or a status-check
// lookup, reduced to the fields the lifecycle needs. RawPayload is a JSON
// document snapshotting the gateway message.
type ApplyInput struct {
	OrderID          string
	Status           enums.PaymentStatus
	GatewayPaymentID string
	RawPayload       []byte
	StatusReason     string
}

// Service owns the payment lifecycle: gateway results, manual admin
// overrides and the stuck-payment reconciliation pass.
type Service interface {
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	ApplyGatewayResult(ctx context.Context, input ApplyInput) error
	ApproveBankTransfer(ctx context.Context, adminID uuid.UUID, orderID, reason string) error
	RejectBankTransfer(ctx context.Context, adminID uuid.UUID, orderID, reason string) error
	RevertToPending(ctx context.Context, adminID uuid.UUID, orderID, reason string) error
	Reconcile(ctx context.Context) (ReconcileReport, error)
}

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Checked   int
	Completed int
	Failed    int
	Unknown   int
}

// ServiceParams wires the payments service dependencies.
type ServiceParams struct {
	Repo          PaymentRepository
	Tx            txRunner
	Materializer  materializer
	Registrations registrationUpdater
	Audit         auditRecorder
	Notifier      notifier
	Gateway       gatewaySearcher
	Logger        *logger.Logger
	PendingGrace  time.Duration
	Now           func() time.Time
}

type service struct {
	repo          PaymentRepository
	tx            txRunner
	materializer  materializer
	registrations registrationUpdater
	audit         auditRecorder
	notifier      notifier
	gateway       gatewaySearcher
	logg          *logger.Logger
	pendingGrace  time.Duration
	now           func() time.Time
}

// NewService builds the payments service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Materializer == nil {
		return nil, fmt.Errorf("materializer required")
	}
	if params.Registrations == nil {
		return nil, fmt.Errorf("registration updater required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	grace := params.PendingGrace
	if grace <= 0 {
		grace = 30 * time.Minute
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:          params.Repo,
		tx:            params.Tx,
		materializer:  params.Materializer,
		registrations: params.Registrations,
		audit:         params.Audit,
		notifier:      params.Notifier,
		gateway:       params.Gateway,
		logg:          params.Logger,
		pendingGrace:  grace,
		now:           now,
	}, nil
}

// GetByOrderID loads one payment.
func (s *service) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	payment, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

var pendingLike = []enums.PaymentStatus{
	enums.PaymentStatusPending,
	enums.PaymentStatusProcessing,
}

// ApplyGatewayResult moves a payment according to a verified gateway outcome.
// A completed result triggers materialization; a replay against a payment
// that already reached a terminal state is a no-op.
func (s *service) ApplyGatewayResult(ctx context.Context, input ApplyInput) error {
	if input.OrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	payment, err := s.GetByOrderID(ctx, input.OrderID)
	if err != nil {
		return err
	}

	ctx = s.logg.WithOrderID(ctx, input.OrderID)

	switch input.Status {
	case enums.PaymentStatusCompleted:
		if err := s.materializer.Materialize(ctx, input.OrderID); err != nil {
			return err
		}
		s.recordGatewayEcho(ctx, input)
		s.notify(ctx, payment.UserID, enums.NotificationPaymentCompleted, map[string]any{"order_id": input.OrderID})
		return nil

	case enums.PaymentStatusProcessing:
		_, err := s.repo.UpdateStatusIfIn(ctx, input.OrderID,
			[]enums.PaymentStatus{enums.PaymentStatusPending},
			enums.PaymentStatusProcessing, s.gatewayUpdates(input))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment processing")
		}
		return nil

	case enums.PaymentStatusFailed, enums.PaymentStatusCancelled:
		affected, err := s.repo.UpdateStatusIfIn(ctx, input.OrderID, pendingLike, input.Status, s.gatewayUpdates(input))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
		}
		if affected > 0 {
			s.notify(ctx, payment.UserID, enums.NotificationPaymentFailed, map[string]any{
				"order_id": input.OrderID,
				"status":   string(input.Status),
			})
		}
		return nil

	case enums.PaymentStatusRefunded:
		// chargebacks arrive after completion
		from := append([]enums.PaymentStatus{enums.PaymentStatusCompleted}, pendingLike...)
		affected, err := s.repo.UpdateStatusIfIn(ctx, input.OrderID, from, enums.PaymentStatusRefunded, s.gatewayUpdates(input))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment refunded")
		}
		if affected > 0 {
			if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
				_, err := s.registrations.UpdateStatusByPayment(ctx, tx, payment.ID, enums.RegistrationStatusRefunded)
				return err
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund registrations")
			}
		}
		return nil

	case enums.PaymentStatusPending:
		// empty status code: no movement, reconcile picks it up
		return nil

	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported gateway status %q", input.Status))
	}
}

func (s *service) gatewayUpdates(input ApplyInput) map[string]any {
	updates := map[string]any{}
	if input.GatewayPaymentID != "" {
		updates["gateway_payment_id"] = input.GatewayPaymentID
	}
	// gateway_payload is a jsonb column; a payload that does not parse as
	// JSON would fail the whole status update, so it is left unset instead.
	if len(input.RawPayload) > 0 && json.Valid(input.RawPayload) {
		updates["gateway_payload"] = datatypes.JSON(input.RawPayload)
	}
	if input.StatusReason != "" {
		updates["status_reason"] = input.StatusReason
	}
	return updates
}

// recordGatewayEcho stores the raw gateway payload on an already-completed
// payment without touching its status.
func (s *service) recordGatewayEcho(ctx context.Context, input ApplyInput) {
	updates := s.gatewayUpdates(input)
	if len(updates) == 0 {
		return
	}
	if _, err := s.repo.UpdateStatusIfIn(ctx, input.OrderID,
		[]enums.PaymentStatus{enums.PaymentStatusCompleted},
		enums.PaymentStatusCompleted, updates); err != nil {
		s.logg.Warn(ctx, "failed to record gateway payload")
	}
}

// ApproveBankTransfer completes a manually settled bank-transfer payment and
// materializes its registrations. Requires a reason for the audit trail.
func (s *service) ApproveBankTransfer(ctx context.Context, adminID uuid.UUID, orderID, reason string) error {
	payment, err := s.requireManualTarget(ctx, adminID, orderID, reason)
	if err != nil {
		return err
	}
	if payment.Method != enums.PaymentMethodBankTransfer {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only bank transfer payments can be approved manually")
	}
	if payment.Status != enums.PaymentStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending payments can be approved")
	}

	if err := s.materializer.Materialize(ctx, orderID); err != nil {
		return err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.audit.Record(ctx, tx, models.AuditLog{
			ActorID:    adminID,
			Action:     enums.AuditBankTransferApproved,
			EntityType: "payment",
			EntityID:   orderID,
			Reason:     &reason,
		})
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
	}

	s.notify(ctx, payment.UserID, enums.NotificationPaymentCompleted, map[string]any{"order_id": orderID})
	return nil
}

// RejectBankTransfer fails a pending bank-transfer payment with an audit row.
func (s *service) RejectBankTransfer(ctx context.Context, adminID uuid.UUID, orderID, reason string) error {
	payment, err := s.requireManualTarget(ctx, adminID, orderID, reason)
	if err != nil {
		return err
	}
	if payment.Method != enums.PaymentMethodBankTransfer {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only bank transfer payments can be rejected manually")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.UpdateStatusIfIn(ctx, orderID,
			[]enums.PaymentStatus{enums.PaymentStatusPending},
			enums.PaymentStatusFailed,
			map[string]any{"status_reason": reason})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail payment")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending payments can be rejected")
		}
		return s.audit.Record(ctx, tx, models.AuditLog{
			ActorID:    adminID,
			Action:     enums.AuditBankTransferRejected,
			EntityType: "payment",
			EntityID:   orderID,
			Reason:     &reason,
		})
	})
}

// RevertToPending undoes a completed payment: the payment returns to PENDING,
// its registrations fall back to PENDING and an audit row records why.
// Deliberately sends no notification.
func (s *service) RevertToPending(ctx context.Context, adminID uuid.UUID, orderID, reason string) error {
	payment, err := s.requireManualTarget(ctx, adminID, orderID, reason)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.UpdateStatusIfIn(ctx, orderID,
			[]enums.PaymentStatus{enums.PaymentStatusCompleted},
			enums.PaymentStatusPending,
			map[string]any{"status_reason": reason, "completed_at": nil})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revert payment")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only completed payments can be reverted to pending")
		}
		if _, err := s.registrations.UpdateStatusByPayment(ctx, tx, payment.ID, enums.RegistrationStatusPending); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset registrations")
		}
		return s.audit.Record(ctx, tx, models.AuditLog{
			ActorID:    adminID,
			Action:     enums.AuditPaymentRevertedToPending,
			EntityType: "payment",
			EntityID:   orderID,
			Reason:     &reason,
		})
	})
}

func (s *service) requireManualTarget(ctx context.Context, adminID uuid.UUID, orderID, reason string) (*models.Payment, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id is required")
	}
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a reason is required")
	}
	return s.GetByOrderID(ctx, orderID)
}

// Reconcile resolves payments stuck in PENDING or PROCESSING past the grace
// period by asking the gateway's retrieval API what actually happened.
// Unknown outcomes are left alone for the next pass.
func (s *service) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	if s.gateway == nil {
		return report, pkgerrors.New(pkgerrors.CodeInternal, "gateway searcher not configured")
	}

	cutoff := s.now().UTC().Add(-s.pendingGrace)
	stuck, err := s.repo.ListPendingBefore(ctx, cutoff, 100)
	if err != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stuck payments")
	}

	var errs []error
	for _, payment := range stuck {
		report.Checked++
		if err := s.reconcileOne(ctx, payment, &report); err != nil {
			errs = append(errs, fmt.Errorf("reconcile %s: %w", payment.OrderID, err))
		}
	}
	return report, multierr.Combine(errs...)
}

func (s *service) reconcileOne(ctx context.Context, payment models.Payment, report *ReconcileReport) error {
	details, err := s.gateway.SearchPayment(ctx, payment.OrderID)
	if err != nil {
		report.Unknown++
		return err
	}
	if len(details) == 0 {
		report.Unknown++
		return nil
	}

	for _, detail := range details {
		if detail.Received() {
			report.Completed++
			return s.ApplyGatewayResult(ctx, ApplyInput{
				OrderID:          payment.OrderID,
				Status:           enums.PaymentStatusCompleted,
				GatewayPaymentID: fmt.Sprintf("%d", detail.PaymentID),
				StatusReason:     "reconciled via gateway status check",
			})
		}
	}

	// the gateway knows the order and none of its attempts succeeded
	report.Failed++
	return s.ApplyGatewayResult(ctx, ApplyInput{
		OrderID:      payment.OrderID,
		Status:       enums.PaymentStatusFailed,
		StatusReason: "gateway reported no successful attempt",
	})
}

func (s *service) notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, payload map[string]any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, kind, payload)
}
