package controllers

import (
	"io"
	"net/http"
	"net/url"

	"github.com/archfoundry/archcomp-backend/api/responses"
	payherewebhook "github.com/archfoundry/archcomp-backend/internal/webhooks/payhere"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
	"github.com/archfoundry/archcomp-backend/pkg/payhere"
)

const maxNotifyBody = 64 << 10

// PayHereWebhook consumes the gateway's form-encoded notify callback. The
// provider retries on non-2xx, so only errors worth a retry (dependency
// failures) surface as such; verification failures are final.
func PayHereWebhook(svc *payherewebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxNotifyBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read notify body"))
			return
		}
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse notify body"))
			return
		}

		notification := payhere.Notification{
			MerchantID:      form.Get("merchant_id"),
			OrderID:         form.Get("order_id"),
			PaymentID:       form.Get("payment_id"),
			PayHereAmount:   form.Get("payhere_amount"),
			PayHereCurrency: form.Get("payhere_currency"),
			StatusCode:      form.Get("status_code"),
			MD5Sig:          form.Get("md5sig"),
			Method:          form.Get("method"),
			StatusMessage:   form.Get("status_message"),
		}

		if err := svc.HandleNotify(r.Context(), notification); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "accepted"})
	}
}
