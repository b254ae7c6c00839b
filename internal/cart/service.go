package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archfoundry/archcomp-backend/pkg/db"
	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CartRepository is the persistence surface the service depends on.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, record *models.Cart) (*models.Cart, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, item *models.CartItem) error
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error)
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.CartStatus) (int64, error)
	ListUsersWithMultipleActive(ctx context.Context) ([]uuid.UUID, error)
	AbandonOlderActive(ctx context.Context, userID, keepID uuid.UUID) (int64, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type registrationTypeLoader interface {
	FindRegistrationType(ctx context.Context, id uuid.UUID) (*models.RegistrationType, *models.Competition, error)
}

// Service exposes cart operations.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error)
	GetActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, cartID, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, userID, cartID uuid.UUID) error
	ReconcileDuplicates(ctx context.Context) (int64, error)
}

// ServiceParams wires the cart service dependencies.
type ServiceParams struct {
	Repo         CartRepository
	Tx           txRunner
	Competitions registrationTypeLoader
	CartTTL      time.Duration
	Now          func() time.Time
}

type service struct {
	repo         CartRepository
	tx           txRunner
	competitions registrationTypeLoader
	cartTTL      time.Duration
	now          func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Competitions == nil {
		return nil, fmt.Errorf("competitions loader required")
	}
	ttl := params.CartTTL
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		competitions: params.Competitions,
		cartTTL:      ttl,
		now:          now,
	}, nil
}

// AddItemInput captures one registration selection.
type AddItemInput struct {
	CompetitionID      uuid.UUID
	RegistrationTypeID uuid.UUID
	Roster             types.Roster
}

// AddItem validates the selection and appends it to the user's ACTIVE cart,
// creating one if necessary. The create and the append run in one
// transaction with an in-tx recheck of the one-active-cart invariant.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.RegistrationTypeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration type id is required")
	}
	if len(input.Roster) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "roster must contain at least one member")
	}
	for _, member := range input.Roster {
		if strings.TrimSpace(member.Name) == "" || strings.TrimSpace(member.Email) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "roster members need a name and an email")
		}
	}

	regType, competition, err := s.competitions.FindRegistrationType(ctx, input.RegistrationTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "registration type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load registration type")
	}
	if input.CompetitionID != uuid.Nil && input.CompetitionID != competition.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration type does not belong to the competition")
	}
	if !competition.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "competition is not open")
	}
	now := s.now().UTC()
	if now.Before(competition.RegistrationOpens) || now.After(competition.RegistrationEnds) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration window is closed")
	}
	if len(input.Roster) > regType.MaxTeamSize {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("roster exceeds the maximum team size of %d", regType.MaxTeamSize))
	}

	var result *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindActiveByUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
			}
			cart, err = repo.Create(ctx, &models.Cart{
				UserID:    userID,
				Status:    enums.CartStatusActive,
				Currency:  regType.Currency,
				ExpiresAt: now.Add(s.cartTTL),
			})
			if err != nil {
				if db.IsUniqueViolation(err) {
					return pkgerrors.New(pkgerrors.CodeConflict, "an active cart already exists")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		} else if cart.ExpiresAt.Before(now) {
			if _, err := repo.UpdateStatusIf(ctx, cart.ID, enums.CartStatusActive, enums.CartStatusExpired); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire stale cart")
			}
			cart, err = repo.Create(ctx, &models.Cart{
				UserID:    userID,
				Status:    enums.CartStatusActive,
				Currency:  regType.Currency,
				ExpiresAt: now.Add(s.cartTTL),
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace expired cart")
			}
		}

		if cart.Currency != regType.Currency {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart and registration type currencies differ")
		}

		item := &models.CartItem{
			CartID:             cart.ID,
			CompetitionID:      competition.ID,
			RegistrationTypeID: regType.ID,
			Roster:             input.Roster,
			SubtotalCents:      regType.FeeCents,
		}
		if err := repo.AddItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}
		cart.Items = append(cart.Items, *item)

		// invariant recheck: the partial index makes this impossible to
		// violate, but a racing create surfaces here first
		count, err := repo.CountActiveByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recheck active carts")
		}
		if count > 1 {
			return pkgerrors.New(pkgerrors.CodeConflict, "an active cart already exists")
		}

		result = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetActive returns the user's ACTIVE cart, lazily expiring one whose TTL has
// passed.
func (s *service) GetActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	if cart.ExpiresAt.Before(s.now().UTC()) {
		if _, err := s.repo.UpdateStatusIf(ctx, cart.ID, enums.CartStatusActive, enums.CartStatusExpired); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire stale cart")
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}
	return cart, nil
}

// RemoveItem deletes one item from the user's cart and returns the updated cart.
func (s *service) RemoveItem(ctx context.Context, userID, cartID, itemID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil || cartID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user, cart and item ids are required")
	}
	cart, err := s.repo.FindByIDAndUser(ctx, cartID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only active carts can be edited")
	}
	affected, err := s.repo.RemoveItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.repo.FindByIDAndUser(ctx, cartID, userID)
}

// Clear removes every item from the user's cart.
func (s *service) Clear(ctx context.Context, userID, cartID uuid.UUID) error {
	if userID == uuid.Nil || cartID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user and cart ids are required")
	}
	cart, err := s.repo.FindByIDAndUser(ctx, cartID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart.Status != enums.CartStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only active carts can be edited")
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
	}
	return nil
}

// ReconcileDuplicates resolves users holding more than one ACTIVE cart:
// the newest cart wins and older ones become ABANDONED.
func (s *service) ReconcileDuplicates(ctx context.Context) (int64, error) {
	userIDs, err := s.repo.ListUsersWithMultipleActive(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list duplicate active carts")
	}

	var total int64
	for _, userID := range userIDs {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			newest, err := repo.FindActiveByUser(ctx, userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return err
			}
			affected, err := repo.AbandonOlderActive(ctx, userID, newest.ID)
			if err != nil {
				return err
			}
			total += affected
			return nil
		})
		if err != nil {
			return total, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile duplicate carts")
		}
	}
	return total, nil
}
