package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/archfoundry/archcomp-backend/api/responses"
	"github.com/archfoundry/archcomp-backend/api/validators"
	cartsvc "github.com/archfoundry/archcomp-backend/internal/cart"
	paymentsvc "github.com/archfoundry/archcomp-backend/internal/payments"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

type manualPaymentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// AdminPaymentApprove completes a manually settled bank-transfer payment.
func AdminPaymentApprove(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload manualPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID := chi.URLParam(r, "orderID")
		if err := svc.ApproveBankTransfer(r.Context(), adminID, orderID, payload.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_id": orderID, "status": "completed"})
	}
}

// AdminPaymentReject fails a pending bank-transfer payment.
func AdminPaymentReject(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload manualPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID := chi.URLParam(r, "orderID")
		if err := svc.RejectBankTransfer(r.Context(), adminID, orderID, payload.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_id": orderID, "status": "failed"})
	}
}

// AdminPaymentRevert undoes a completed payment back to PENDING.
func AdminPaymentRevert(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload manualPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID := chi.URLParam(r, "orderID")
		if err := svc.RevertToPending(r.Context(), adminID, orderID, payload.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_id": orderID, "status": "pending"})
	}
}

// AdminPaymentReconcile runs the stuck-payment resolution pass on demand.
func AdminPaymentReconcile(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actorID(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Reconcile(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// AdminCartReconcile runs the duplicate-active-cart corrective pass.
func AdminCartReconcile(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actorID(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		abandoned, err := svc.ReconcileDuplicates(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"carts_abandoned": abandoned})
	}
}
