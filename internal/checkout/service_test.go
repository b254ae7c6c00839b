package checkout

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archfoundry/archcomp-backend/internal/cart"
	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/payhere"
)

type stubCartService struct {
	cart *models.Cart
	err  error
}

func (s stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.AddItemInput) (*models.Cart, error) {
	return nil, nil
}

func (s stubCartService) GetActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cart, nil
}

func (s stubCartService) RemoveItem(ctx context.Context, userID, cartID, itemID uuid.UUID) (*models.Cart, error) {
	return nil, nil
}

func (s stubCartService) Clear(ctx context.Context, userID, cartID uuid.UUID) error { return nil }

func (s stubCartService) ReconcileDuplicates(ctx context.Context) (int64, error) { return 0, nil }

type stubPaymentRepo struct {
	created []*models.Payment
}

func (s *stubPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	payment.ID = uuid.New()
	s.created = append(s.created, payment)
	return nil
}

type stubGateway struct{}

func (stubGateway) MerchantID() string { return "1211149" }

func (stubGateway) BuildCheckout(req payhere.CheckoutRequest) (*payhere.CheckoutPayload, error) {
	return &payhere.CheckoutPayload{
		URL:    "https://sandbox.payhere.lk/pay/checkout",
		Method: "POST",
		Fields: map[string]string{
			"order_id": req.OrderID,
			"amount":   payhere.FormatAmount(req.AmountCents),
			"currency": req.Currency,
		},
	}, nil
}

type stubSequencer struct {
	next int64
}

func (s *stubSequencer) Next(ctx context.Context, year int) (string, error) {
	s.next++
	return "ORDER-2025-00030", nil
}

func readyCart(userID uuid.UUID) *models.Cart {
	cartID := uuid.New()
	return &models.Cart{
		ID:       cartID,
		UserID:   userID,
		Status:   enums.CartStatusActive,
		Currency: enums.CurrencyLKR,
		Items: []models.CartItem{
			{ID: uuid.New(), CartID: cartID, SubtotalCents: 1250000},
			{ID: uuid.New(), CartID: cartID, SubtotalCents: 500000},
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestInitiateCreatesPendingPaymentWithSnapshot(t *testing.T) {
	userID := uuid.New()
	activeCart := readyCart(userID)
	repo := &stubPaymentRepo{}

	svc, err := NewService(ServiceParams{
		Carts:    stubCartService{cart: activeCart},
		Payments: repo,
		Gateway:  stubGateway{},
		OrderIDs: &stubSequencer{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Initiate(context.Background(), userID, CustomerInput{
		FirstName: "Nadia",
		Email:     "nadia@example.com",
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one payment, got %d", len(repo.created))
	}
	payment := repo.created[0]
	if payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", payment.Status)
	}
	if payment.AmountCents != 1750000 {
		t.Fatalf("expected total 1750000, got %d", payment.AmountCents)
	}
	if !strings.HasPrefix(payment.OrderID, "ORDER-2025-") {
		t.Fatalf("unexpected order id %s", payment.OrderID)
	}
	if payment.CartSnapshot.CartID != activeCart.ID || len(payment.CartSnapshot.ItemIDs) != 2 {
		t.Fatalf("unexpected snapshot %+v", payment.CartSnapshot)
	}
	if result.Gateway.Fields["amount"] != "17500.00" {
		t.Fatalf("unexpected gateway amount %s", result.Gateway.Fields["amount"])
	}
}

func TestInitiateRejectsEmptyCart(t *testing.T) {
	userID := uuid.New()
	empty := readyCart(userID)
	empty.Items = nil

	svc, err := NewService(ServiceParams{
		Carts:    stubCartService{cart: empty},
		Payments: &stubPaymentRepo{},
		Gateway:  stubGateway{},
		OrderIDs: &stubSequencer{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Initiate(context.Background(), userID, CustomerInput{Email: "a@b.c"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestInitiatePropagatesMissingCart(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Carts:    stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")},
		Payments: &stubPaymentRepo{},
		Gateway:  stubGateway{},
		OrderIDs: &stubSequencer{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Initiate(context.Background(), uuid.New(), CustomerInput{Email: "a@b.c"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
