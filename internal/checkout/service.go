package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/archfoundry/archcomp-backend/internal/cart"
	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/payhere"
	"github.com/archfoundry/archcomp-backend/pkg/types"
)

type gatewayClient interface {
	MerchantID() string
	BuildCheckout(req payhere.CheckoutRequest) (*payhere.CheckoutPayload, error)
}

type orderIDMinter interface {
	Next(ctx context.Context, year int) (string, error)
}

// CustomerInput carries the payer details forwarded to the gateway.
type CustomerInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	Country   string
}

// InitiateResult is the pending payment plus the signed gateway payload the
// frontend posts to the hosted checkout page.
type InitiateResult struct {
	Payment *models.Payment
	Gateway *payhere.CheckoutPayload
}

// Service turns an active cart into a PENDING payment and a signed checkout
// payload.
type Service interface {
	Initiate(ctx context.Context, userID uuid.UUID, customer CustomerInput) (*InitiateResult, error)
}

// ServiceParams wire the checkout dependencies.
type ServiceParams struct {
	Carts    cart.Service
	Payments paymentCreator
	Gateway  gatewayClient
	OrderIDs orderIDMinter
	Now      func() time.Time
}

type paymentCreator interface {
	Create(ctx context.Context, payment *models.Payment) error
}

type service struct {
	carts    cart.Service
	payments paymentCreator
	gateway  gatewayClient
	orderIDs orderIDMinter
	now      func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if params.OrderIDs == nil {
		return nil, fmt.Errorf("order id minter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		carts:    params.Carts,
		payments: params.Payments,
		gateway:  params.Gateway,
		orderIDs: params.OrderIDs,
		now:      now,
	}, nil
}

// Initiate snapshots the active cart into a PENDING payment and returns the
// signed form fields. The live cart is left ACTIVE; only a confirmed payment
// completes it.
func (s *service) Initiate(ctx context.Context, userID uuid.UUID, customer CustomerInput) (*InitiateResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if customer.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}

	activeCart, err := s.carts.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(activeCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	total := activeCart.SubtotalCents()
	if total <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total must be positive")
	}

	now := s.now().UTC()
	orderID, err := s.orderIDs.Next(ctx, now.Year())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mint order id")
	}

	snapshot := types.CartSnapshot{CartID: activeCart.ID}
	for _, item := range activeCart.Items {
		snapshot.ItemIDs = append(snapshot.ItemIDs, item.ID)
	}

	payment := &models.Payment{
		OrderID:      orderID,
		UserID:       userID,
		MerchantID:   s.gateway.MerchantID(),
		Method:       enums.PaymentMethodPayHere,
		Status:       enums.PaymentStatusPending,
		AmountCents:  total,
		Currency:     activeCart.Currency,
		CartSnapshot: snapshot,
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}

	payload, err := s.gateway.BuildCheckout(payhere.CheckoutRequest{
		OrderID:     orderID,
		Items:       fmt.Sprintf("Competition registration (%d items)", len(activeCart.Items)),
		Currency:    string(activeCart.Currency),
		AmountCents: total,
		Customer: payhere.Customer{
			FirstName: customer.FirstName,
			LastName:  customer.LastName,
			Email:     customer.Email,
			Phone:     customer.Phone,
			Address:   customer.Address,
			City:      customer.City,
			Country:   customer.Country,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build gateway payload")
	}

	return &InitiateResult{Payment: payment, Gateway: payload}, nil
}
