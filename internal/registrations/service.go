package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archfoundry/archcomp-backend/pkg/db"
	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

const mintRetries = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegistrationRepository is the persistence surface the service depends on.
type RegistrationRepository interface {
	WithTx(tx *gorm.DB) RegistrationRepository
	Create(ctx context.Context, registration *models.Registration) error
	CreateSubmissionShell(ctx context.Context, submission *models.Submission) error
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.Registration, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error)
	FindByNumber(ctx context.Context, registrationNumber string) (*models.Registration, error)
	UpdateStatusByPayment(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, status enums.RegistrationStatus) (int64, error)
	SetDisplayCodeIfEmpty(ctx context.Context, registrationNumber, displayCode string) (int64, error)
	CompleteCart(ctx context.Context, cartID uuid.UUID) error
	LoadSnapshotItems(ctx context.Context, itemIDs []uuid.UUID) ([]models.CartItem, error)
	FindRegistrationType(ctx context.Context, id uuid.UUID) (*models.RegistrationType, error)
	FindPaymentForUpdate(ctx context.Context, orderID string) (*models.Payment, error)
	MarkPaymentCompleted(ctx context.Context, orderID string, updates map[string]any) (int64, error)
}

// Service materializes paid registrations and serves them to the API.
type Service interface {
	Materialize(ctx context.Context, orderID string) error
	EnsureDisplayCode(ctx context.Context, registrationNumber string) (string, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error)
	GetByNumber(ctx context.Context, registrationNumber string) (*models.Registration, error)
	UpdateStatusByPayment(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, status enums.RegistrationStatus) (int64, error)
}

// ServiceParams wires the registrations service dependencies.
type ServiceParams struct {
	Repo              RegistrationRepository
	Tx                txRunner
	Logger            *logger.Logger
	DisplayCodePrefix string
	TxTimeout         time.Duration
	Now               func() time.Time
}

type service struct {
	repo       RegistrationRepository
	tx         txRunner
	logg       *logger.Logger
	codePrefix string
	txTimeout  time.Duration
	now        func() time.Time
}

// NewService builds the registrations service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("registration repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	prefix := params.DisplayCodePrefix
	if prefix == "" {
		prefix = "ARCH"
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		logg:       params.Logger,
		codePrefix: prefix,
		txTimeout:  params.TxTimeout,
		now:        now,
	}, nil
}

// Materialize converts one completed payment into confirmed registrations in
// a single all-or-nothing transaction. It reads the payment's cart snapshot,
// never the live cart, and is idempotent: replays see the existing
// registrations and return without touching anything.
func (s *service) Materialize(ctx context.Context, orderID string) error {
	if orderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	ctx = s.logg.WithOrderID(ctx, orderID)
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payment, err := repo.FindPaymentForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}

		existing, err := repo.ListByPayment(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing registrations")
		}
		if len(existing) > 0 {
			s.logg.Info(ctx, "registrations already materialized; replay is a no-op")
			return nil
		}

		if payment.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payment is %s and cannot be materialized", payment.Status))
		}

		if payment.CartSnapshot.CartID == uuid.Nil || len(payment.CartSnapshot.ItemIDs) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment carries no cart snapshot")
		}

		items, err := repo.LoadSnapshotItems(ctx, payment.CartSnapshot.ItemIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load snapshot items")
		}
		if len(items) != len(payment.CartSnapshot.ItemIDs) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart snapshot items are missing")
		}

		now := s.now().UTC()
		for _, item := range items {
			regType, err := repo.FindRegistrationType(ctx, item.RegistrationTypeID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load registration type")
			}
			if len(item.Roster) == 0 || len(item.Roster) > regType.MaxTeamSize {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "snapshot roster violates the team size bound")
			}

			registration, err := s.createWithFreshNumber(ctx, repo, payment, item)
			if err != nil {
				return err
			}
			if err := repo.CreateSubmissionShell(ctx, &models.Submission{
				RegistrationID:     registration.ID,
				RegistrationNumber: registration.RegistrationNumber,
				Status:             enums.SubmissionStatusDraft,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create submission shell")
			}
		}

		if err := repo.CompleteCart(ctx, payment.CartSnapshot.CartID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete cart")
		}

		affected, err := repo.MarkPaymentCompleted(ctx, orderID, map[string]any{"completed_at": now})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment moved out of pending during materialization")
		}

		s.logg.Info(ctx, "payment materialized into registrations")
		return nil
	})
}

func (s *service) createWithFreshNumber(ctx context.Context, repo RegistrationRepository, payment *models.Payment, item models.CartItem) (*models.Registration, error) {
	for attempt := 0; attempt < mintRetries; attempt++ {
		number, err := NewRegistrationNumber()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint registration number")
		}
		registration := &models.Registration{
			RegistrationNumber: number,
			PaymentID:          payment.ID,
			UserID:             payment.UserID,
			CompetitionID:      item.CompetitionID,
			RegistrationTypeID: item.RegistrationTypeID,
			Status:             enums.RegistrationStatusConfirmed,
			AmountPaidCents:    item.SubtotalCents,
			Roster:             item.Roster,
		}
		err = repo.Create(ctx, registration)
		if err == nil {
			return registration, nil
		}
		if !db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create registration")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not mint a unique registration number")
}

// EnsureDisplayCode returns the registration's public code, minting one on
// first call. Only confirmed (post-payment) registrations get a code.
func (s *service) EnsureDisplayCode(ctx context.Context, registrationNumber string) (string, error) {
	registration, err := s.GetByNumber(ctx, registrationNumber)
	if err != nil {
		return "", err
	}
	if registration.DisplayCode != nil && *registration.DisplayCode != "" {
		return *registration.DisplayCode, nil
	}
	if registration.Status == enums.RegistrationStatusPending {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "display codes are minted after payment confirmation")
	}

	year := s.now().UTC().Year()
	for attempt := 0; attempt < mintRetries; attempt++ {
		code, err := NewDisplayCode(s.codePrefix, year)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint display code")
		}
		affected, err := s.repo.SetDisplayCodeIfEmpty(ctx, registrationNumber, code)
		if err != nil {
			if db.IsUniqueViolation(err) {
				continue
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store display code")
		}
		if affected == 0 {
			// lost the race to a concurrent mint; return what won
			current, err := s.GetByNumber(ctx, registrationNumber)
			if err != nil {
				return "", err
			}
			if current.DisplayCode != nil {
				return *current.DisplayCode, nil
			}
			continue
		}
		return code, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not mint a unique display code")
}

// ListByUser returns the user's registrations.
func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list registrations")
	}
	return rows, nil
}

// GetByNumber loads one registration.
func (s *service) GetByNumber(ctx context.Context, registrationNumber string) (*models.Registration, error) {
	if registrationNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration number is required")
	}
	registration, err := s.repo.FindByNumber(ctx, registrationNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "registration not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load registration")
	}
	return registration, nil
}

// UpdateStatusByPayment exposes the bulk status flip for the payments service.
func (s *service) UpdateStatusByPayment(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, status enums.RegistrationStatus) (int64, error) {
	return s.repo.UpdateStatusByPayment(ctx, tx, paymentID, status)
}
