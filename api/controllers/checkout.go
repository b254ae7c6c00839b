package controllers

import (
	"net/http"

	"github.com/archfoundry/archcomp-backend/api/responses"
	"github.com/archfoundry/archcomp-backend/api/validators"
	checkoutsvc "github.com/archfoundry/archcomp-backend/internal/checkout"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

type checkoutRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

func (req checkoutRequest) toInput() checkoutsvc.CustomerInput {
	return checkoutsvc.CustomerInput{
		FirstName: validators.SanitizeString(req.FirstName, 120),
		LastName:  validators.SanitizeString(req.LastName, 120),
		Email:     validators.SanitizeString(req.Email, 254),
		Phone:     validators.SanitizeString(req.Phone, 32),
		Address:   validators.SanitizeString(req.Address, 255),
		City:      validators.SanitizeString(req.City, 120),
		Country:   validators.SanitizeString(req.Country, 120),
	}
}

type checkoutResponse struct {
	OrderID string `json:"order_id"`
	Gateway any    `json:"gateway"`
}

// CheckoutInitiate snapshots the caller's active cart into a PENDING payment
// and returns the signed gateway form payload.
func CheckoutInitiate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Initiate(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID: result.Payment.OrderID,
			Gateway: result.Gateway,
		})
	}
}
