package registrations

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
	"github.com/archfoundry/archcomp-backend/pkg/types"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	payment        *models.Payment
	items          []models.CartItem
	regTypes       map[uuid.UUID]*models.RegistrationType
	registrations  []*models.Registration
	submissions    []*models.Submission
	completedCarts []uuid.UUID
	paymentDone    int
	displayCodes   map[string]string
}

func newMaterializeRepo() *stubRepo {
	return &stubRepo{
		regTypes:     map[uuid.UUID]*models.RegistrationType{},
		displayCodes: map[string]string{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) RegistrationRepository { return s }

func (s *stubRepo) Create(ctx context.Context, registration *models.Registration) error {
	registration.ID = uuid.New()
	s.registrations = append(s.registrations, registration)
	return nil
}

func (s *stubRepo) CreateSubmissionShell(ctx context.Context, submission *models.Submission) error {
	submission.ID = uuid.New()
	s.submissions = append(s.submissions, submission)
	return nil
}

func (s *stubRepo) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.Registration, error) {
	var rows []models.Registration
	for _, reg := range s.registrations {
		if reg.PaymentID == paymentID {
			rows = append(rows, *reg)
		}
	}
	return rows, nil
}

func (s *stubRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	var rows []models.Registration
	for _, reg := range s.registrations {
		if reg.UserID == userID {
			rows = append(rows, *reg)
		}
	}
	return rows, nil
}

func (s *stubRepo) FindByNumber(ctx context.Context, registrationNumber string) (*models.Registration, error) {
	for _, reg := range s.registrations {
		if reg.RegistrationNumber == registrationNumber {
			return reg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) UpdateStatusByPayment(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, status enums.RegistrationStatus) (int64, error) {
	var affected int64
	for _, reg := range s.registrations {
		if reg.PaymentID == paymentID {
			reg.Status = status
			affected++
		}
	}
	return affected, nil
}

func (s *stubRepo) SetDisplayCodeIfEmpty(ctx context.Context, registrationNumber, displayCode string) (int64, error) {
	if _, exists := s.displayCodes[registrationNumber]; exists {
		return 0, nil
	}
	s.displayCodes[registrationNumber] = displayCode
	for _, reg := range s.registrations {
		if reg.RegistrationNumber == registrationNumber {
			code := displayCode
			reg.DisplayCode = &code
		}
	}
	return 1, nil
}

func (s *stubRepo) CompleteCart(ctx context.Context, cartID uuid.UUID) error {
	s.completedCarts = append(s.completedCarts, cartID)
	return nil
}

func (s *stubRepo) LoadSnapshotItems(ctx context.Context, itemIDs []uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	for _, item := range s.items {
		for _, id := range itemIDs {
			if item.ID == id {
				rows = append(rows, item)
			}
		}
	}
	return rows, nil
}

func (s *stubRepo) FindRegistrationType(ctx context.Context, id uuid.UUID) (*models.RegistrationType, error) {
	regType, ok := s.regTypes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return regType, nil
}

func (s *stubRepo) FindPaymentForUpdate(ctx context.Context, orderID string) (*models.Payment, error) {
	if s.payment == nil || s.payment.OrderID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.payment, nil
}

func (s *stubRepo) MarkPaymentCompleted(ctx context.Context, orderID string, updates map[string]any) (int64, error) {
	if s.payment == nil || s.payment.OrderID != orderID {
		return 0, nil
	}
	if s.payment.Status != enums.PaymentStatusPending && s.payment.Status != enums.PaymentStatusProcessing {
		return 0, nil
	}
	s.payment.Status = enums.PaymentStatusCompleted
	s.paymentDone++
	return 1, nil
}

func newTestService(t *testing.T, repo RegistrationRepository) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Repo:              repo,
		Tx:                stubTx{},
		Logger:            logg,
		DisplayCodePrefix: "ARCH",
		Now:               func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedPayment(repo *stubRepo) *models.Payment {
	cartID := uuid.New()
	regTypeID := uuid.New()
	repo.regTypes[regTypeID] = &models.RegistrationType{ID: regTypeID, MaxTeamSize: 3, FeeCents: 1250000}

	item := models.CartItem{
		ID:                 uuid.New(),
		CartID:             cartID,
		CompetitionID:      uuid.New(),
		RegistrationTypeID: regTypeID,
		SubtotalCents:      1250000,
		Roster:             types.Roster{{Name: "Nadia", Email: "nadia@example.com", Role: "lead"}},
	}
	repo.items = []models.CartItem{item}

	repo.payment = &models.Payment{
		ID:      uuid.New(),
		OrderID: "ORDER-2025-00030",
		UserID:  uuid.New(),
		Status:  enums.PaymentStatusPending,
		CartSnapshot: types.CartSnapshot{
			CartID:  cartID,
			ItemIDs: []uuid.UUID{item.ID},
		},
	}
	return repo.payment
}

func TestMaterializeCreatesRegistrationAndSubmissionShell(t *testing.T) {
	repo := newMaterializeRepo()
	payment := seedPayment(repo)
	svc := newTestService(t, repo)

	if err := svc.Materialize(context.Background(), "ORDER-2025-00030"); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if len(repo.registrations) != 1 {
		t.Fatalf("expected one registration, got %d", len(repo.registrations))
	}
	reg := repo.registrations[0]
	if reg.Status != enums.RegistrationStatusConfirmed {
		t.Fatalf("expected confirmed registration, got %s", reg.Status)
	}
	if len(reg.RegistrationNumber) != 6 {
		t.Fatalf("unexpected registration number %q", reg.RegistrationNumber)
	}
	if reg.AmountPaidCents != 1250000 {
		t.Fatalf("unexpected amount paid %d", reg.AmountPaidCents)
	}
	if len(repo.submissions) != 1 || repo.submissions[0].Status != enums.SubmissionStatusDraft {
		t.Fatalf("expected a draft submission shell, got %+v", repo.submissions)
	}
	if len(repo.completedCarts) != 1 || repo.completedCarts[0] != payment.CartSnapshot.CartID {
		t.Fatalf("expected snapshot cart completed, got %v", repo.completedCarts)
	}
	if payment.Status != enums.PaymentStatusCompleted {
		t.Fatalf("expected payment completed, got %s", payment.Status)
	}
}

func TestMaterializeReplayIsNoOp(t *testing.T) {
	repo := newMaterializeRepo()
	seedPayment(repo)
	svc := newTestService(t, repo)

	if err := svc.Materialize(context.Background(), "ORDER-2025-00030"); err != nil {
		t.Fatalf("first materialize: %v", err)
	}
	if err := svc.Materialize(context.Background(), "ORDER-2025-00030"); err != nil {
		t.Fatalf("replay should be a no-op: %v", err)
	}
	if len(repo.registrations) != 1 || repo.paymentDone != 1 {
		t.Fatalf("replay must not duplicate: regs=%d completions=%d", len(repo.registrations), repo.paymentDone)
	}
}

func TestMaterializeRejectsTerminalPayment(t *testing.T) {
	repo := newMaterializeRepo()
	payment := seedPayment(repo)
	payment.Status = enums.PaymentStatusFailed
	svc := newTestService(t, repo)

	err := svc.Materialize(context.Background(), "ORDER-2025-00030")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestMaterializeRejectsMissingSnapshotItems(t *testing.T) {
	repo := newMaterializeRepo()
	seedPayment(repo)
	repo.items = nil
	svc := newTestService(t, repo)

	err := svc.Materialize(context.Background(), "ORDER-2025-00030")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestEnsureDisplayCodeIsIdempotent(t *testing.T) {
	repo := newMaterializeRepo()
	seedPayment(repo)
	svc := newTestService(t, repo)

	if err := svc.Materialize(context.Background(), "ORDER-2025-00030"); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	number := repo.registrations[0].RegistrationNumber

	first, err := svc.EnsureDisplayCode(context.Background(), number)
	if err != nil {
		t.Fatalf("mint display code: %v", err)
	}
	if !strings.HasPrefix(first, "ARCH-2025-") {
		t.Fatalf("unexpected display code %q", first)
	}

	second, err := svc.EnsureDisplayCode(context.Background(), number)
	if err != nil {
		t.Fatalf("repeat mint: %v", err)
	}
	if second != first {
		t.Fatalf("expected stable code, got %q then %q", first, second)
	}
}

func TestEnsureDisplayCodeRejectsPendingRegistration(t *testing.T) {
	repo := newMaterializeRepo()
	repo.registrations = append(repo.registrations, &models.Registration{
		ID:                 uuid.New(),
		RegistrationNumber: "ABCDEF",
		Status:             enums.RegistrationStatusPending,
	})
	svc := newTestService(t, repo)

	_, err := svc.EnsureDisplayCode(context.Background(), "ABCDEF")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
