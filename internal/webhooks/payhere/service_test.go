package payherewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/archfoundry/archcomp-backend/internal/payments"
	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
	"github.com/archfoundry/archcomp-backend/pkg/payhere"
)

type stubVerifier struct {
	err error
}

func (s stubVerifier) VerifyNotify(n payhere.Notification) error { return s.err }

type stubPayments struct {
	payment  *models.Payment
	applied  []payments.ApplyInput
	applyErr error
}

func (s *stubPayments) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	if s.payment == nil || s.payment.OrderID != orderID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return s.payment, nil
}

func (s *stubPayments) ApplyGatewayResult(ctx context.Context, input payments.ApplyInput) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applied = append(s.applied, input)
	return nil
}

type stubStore struct {
	keys map[string]bool
}

func newStubStore() *stubStore {
	return &stubStore{keys: map[string]bool{}}
}

func (s *stubStore) Get(ctx context.Context, key string) (string, error) { return "", nil }

func (s *stubStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (s *stubStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func newTestService(t *testing.T, verifier stubVerifier, pay *stubPayments) (*Service, *stubStore) {
	t.Helper()
	store := newStubStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "payhere")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Verifier: verifier,
		Payments: pay,
		Guard:    guard,
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func seededPayments() *stubPayments {
	return &stubPayments{payment: &models.Payment{
		ID:          uuid.New(),
		OrderID:     "ORDER-2025-00030",
		UserID:      uuid.New(),
		Status:      enums.PaymentStatusPending,
		AmountCents: 1250000,
	}}
}

func notification(statusCode string) payhere.Notification {
	return payhere.Notification{
		MerchantID:      "1211149",
		OrderID:         "ORDER-2025-00030",
		PaymentID:       "320025300",
		PayHereAmount:   "12500.00",
		PayHereCurrency: "LKR",
		StatusCode:      statusCode,
		MD5Sig:          "IRRELEVANT-STUB-VERIFIER",
	}
}

func TestHandleNotifyAppliesVerifiedSuccess(t *testing.T) {
	pay := seededPayments()
	svc, _ := newTestService(t, stubVerifier{}, pay)

	if err := svc.HandleNotify(context.Background(), notification("2")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(pay.applied) != 1 {
		t.Fatalf("expected one apply, got %d", len(pay.applied))
	}
	applied := pay.applied[0]
	if applied.Status != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed, got %s", applied.Status)
	}
	if applied.GatewayPaymentID != "320025300" {
		t.Fatalf("unexpected apply input %+v", applied)
	}
}

// The payload column is jsonb; what the handler passes down must decode as a
// JSON object carrying the gateway's own field names, on failure codes too.
func TestHandleNotifyStoresCallbackAsJSON(t *testing.T) {
	for _, code := range []string{"2", "-1", "-2", "-3"} {
		pay := seededPayments()
		svc, _ := newTestService(t, stubVerifier{}, pay)

		if err := svc.HandleNotify(context.Background(), notification(code)); err != nil {
			t.Fatalf("handle code %s: %v", code, err)
		}
		if len(pay.applied) != 1 {
			t.Fatalf("code %s: expected one apply, got %d", code, len(pay.applied))
		}
		var snapshot map[string]string
		if err := json.Unmarshal(pay.applied[0].RawPayload, &snapshot); err != nil {
			t.Fatalf("code %s: payload is not a JSON object: %v", code, err)
		}
		if snapshot["order_id"] != "ORDER-2025-00030" || snapshot["status_code"] != code {
			t.Fatalf("code %s: snapshot does not round-trip the callback: %v", code, snapshot)
		}
	}
}

func TestHandleNotifyDropsBadSignature(t *testing.T) {
	pay := seededPayments()
	svc, _ := newTestService(t, stubVerifier{err: errors.New("md5sig mismatch")}, pay)

	err := svc.HandleNotify(context.Background(), notification("2"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(pay.applied) != 0 {
		t.Fatal("an unverified callback must cause no state change")
	}
}

func TestHandleNotifyDropsAmountMismatch(t *testing.T) {
	pay := seededPayments()
	svc, _ := newTestService(t, stubVerifier{}, pay)

	n := notification("2")
	n.PayHereAmount = "1.00"
	err := svc.HandleNotify(context.Background(), n)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(pay.applied) != 0 {
		t.Fatal("a mismatched callback must cause no state change")
	}
}

func TestHandleNotifyDeduplicatesRetries(t *testing.T) {
	pay := seededPayments()
	svc, _ := newTestService(t, stubVerifier{}, pay)

	if err := svc.HandleNotify(context.Background(), notification("2")); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.HandleNotify(context.Background(), notification("2")); err != nil {
		t.Fatalf("retry delivery: %v", err)
	}
	if len(pay.applied) != 1 {
		t.Fatalf("expected one apply across retries, got %d", len(pay.applied))
	}
}

func TestHandleNotifyReleasesKeyOnHandlerError(t *testing.T) {
	pay := seededPayments()
	pay.applyErr = errors.New("db down")
	svc, store := newTestService(t, stubVerifier{}, pay)

	if err := svc.HandleNotify(context.Background(), notification("2")); err == nil {
		t.Fatal("expected the handler error to propagate")
	}
	if len(store.keys) != 0 {
		t.Fatalf("expected the idempotency key released, still have %v", store.keys)
	}

	// the provider retry now succeeds
	pay.applyErr = nil
	if err := svc.HandleNotify(context.Background(), notification("2")); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(pay.applied) != 1 {
		t.Fatalf("expected the retry to apply, got %d", len(pay.applied))
	}
}

func TestMapStatusCode(t *testing.T) {
	cases := map[string]enums.PaymentStatus{
		"2":  enums.PaymentStatusCompleted,
		"0":  enums.PaymentStatusPending,
		"":   enums.PaymentStatusPending,
		"-1": enums.PaymentStatusCancelled,
		"-2": enums.PaymentStatusFailed,
		"-3": enums.PaymentStatusRefunded,
		"7":  enums.PaymentStatusFailed,
	}
	for code, want := range cases {
		if got := mapStatusCode(code); got != want {
			t.Fatalf("map %q: expected %s, got %s", code, want, got)
		}
	}
}
