package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/archfoundry/archcomp-backend/api/responses"
	"github.com/archfoundry/archcomp-backend/api/validators"
	cartsvc "github.com/archfoundry/archcomp-backend/internal/cart"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
	"github.com/archfoundry/archcomp-backend/pkg/types"
)

// CartGet returns the caller's active cart.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.GetActive(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

type addCartItemRequest struct {
	CompetitionID      uuid.UUID            `json:"competition_id" validate:"required"`
	RegistrationTypeID uuid.UUID            `json:"registration_type_id" validate:"required"`
	Roster             []rosterMemberPayload `json:"roster" validate:"required,dive"`
}

type rosterMemberPayload struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"`
}

func (req addCartItemRequest) toInput() cartsvc.AddItemInput {
	roster := make(types.Roster, len(req.Roster))
	for i, member := range req.Roster {
		roster[i] = types.RosterMember{
			Name:  validators.SanitizeString(member.Name, 120),
			Email: validators.SanitizeString(member.Email, 254),
			Role:  validators.SanitizeString(member.Role, 60),
		}
	}
	return cartsvc.AddItemInput{
		CompetitionID:      req.CompetitionID,
		RegistrationTypeID: req.RegistrationTypeID,
		Roster:             roster,
	}
}

// CartAddItem appends a registration selection to the caller's active cart,
// creating the cart when absent.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.AddItem(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// CartRemoveItem drops one item from the caller's cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cartID, err := uuid.Parse(chi.URLParam(r, "cartID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart id"))
			return
		}
		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}
		record, err := svc.RemoveItem(r.Context(), userID, cartID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// CartClear removes every item from the caller's cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cartID, err := uuid.Parse(chi.URLParam(r, "cartID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart id"))
			return
		}
		if err := svc.Clear(r.Context(), userID, cartID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
