package payhere

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Customer carries the payer fields the hosted checkout page requires.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	Country   string
}

// CheckoutRequest is the input for BuildCheckout.
type CheckoutRequest struct {
	OrderID     string
	Items       string
	Currency    string
	AmountCents int64
	Customer    Customer
}

func (r CheckoutRequest) validate() error {
	if strings.TrimSpace(r.OrderID) == "" {
		return errors.New("order id is required")
	}
	if strings.TrimSpace(r.Currency) == "" {
		return errors.New("currency is required")
	}
	if r.AmountCents <= 0 {
		return errors.New("amount must be positive")
	}
	if strings.TrimSpace(r.Customer.Email) == "" {
		return errors.New("customer email is required")
	}
	return nil
}

// CheckoutPayload is what the frontend renders as a self-submitting form.
type CheckoutPayload struct {
	URL    string            `json:"url"`
	Method string            `json:"method"`
	Fields map[string]string `json:"fields"`
}

// Notification is the form-encoded notify callback PayHere posts to the
// server-side notify_url. The json tags reuse the gateway's parameter names
// so a marshalled notification reads like the original callback.
type Notification struct {
	MerchantID      string `json:"merchant_id"`
	OrderID         string `json:"order_id"`
	PaymentID       string `json:"payment_id"`
	PayHereAmount   string `json:"payhere_amount"`
	PayHereCurrency string `json:"payhere_currency"`
	StatusCode      string `json:"status_code"`
	MD5Sig          string `json:"md5sig"`
	Method          string `json:"method"`
	StatusMessage   string `json:"status_message"`
}

// AmountMatches reports whether the callback amount equals the expected cents
// value. Compared as decimals so "1250.00" and "1250.0" agree.
func (n Notification) AmountMatches(expectedCents int64) bool {
	reported, err := decimal.NewFromString(strings.TrimSpace(n.PayHereAmount))
	if err != nil {
		return false
	}
	expected := decimal.New(expectedCents, -2)
	return reported.Equal(expected)
}

// PaymentDetail is one row from the merchant retrieval API's payment search.
type PaymentDetail struct {
	PaymentID      int64  `json:"payment_id"`
	OrderID        string `json:"order_id"`
	Status         string `json:"status"`
	Currency       string `json:"currency"`
	Amount         string `json:"amount"`
	Method         string `json:"method"`
	Date           string `json:"date"`
	CustomerEmail  string `json:"customer_email,omitempty"`
	StatusMessage  string `json:"status_message,omitempty"`
	CapturedAmount string `json:"captured_amount,omitempty"`
}

// Received reports whether the retrieval API row represents captured money.
func (d PaymentDetail) Received() bool {
	return strings.EqualFold(strings.TrimSpace(d.Status), "RECEIVED")
}

type searchResponse struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   []PaymentDetail `json:"data"`
}
