package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archfoundry/archcomp-backend/internal/cart"
	"github.com/archfoundry/archcomp-backend/internal/checkout"
	"github.com/archfoundry/archcomp-backend/internal/jury"
	"github.com/archfoundry/archcomp-backend/internal/payments"
	"github.com/archfoundry/archcomp-backend/internal/submissions"
	pkgAuth "github.com/archfoundry/archcomp-backend/pkg/auth"
	"github.com/archfoundry/archcomp-backend/pkg/config"
	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct{}

// AddItem implements [cart.Service].
func (stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.AddItemInput) (*models.Cart, error) {
	panic("unimplemented")
}

// GetActive implements [cart.Service].
func (stubCartService) GetActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{UserID: userID, Status: enums.CartStatusActive}, nil
}

// RemoveItem implements [cart.Service].
func (stubCartService) RemoveItem(ctx context.Context, userID, cartID, itemID uuid.UUID) (*models.Cart, error) {
	panic("unimplemented")
}

// Clear implements [cart.Service].
func (stubCartService) Clear(ctx context.Context, userID, cartID uuid.UUID) error {
	panic("unimplemented")
}

// ReconcileDuplicates implements [cart.Service].
func (stubCartService) ReconcileDuplicates(ctx context.Context) (int64, error) {
	return 0, nil
}

type stubCheckoutService struct{}

// Initiate implements [checkout.Service].
func (stubCheckoutService) Initiate(ctx context.Context, userID uuid.UUID, customer checkout.CustomerInput) (*checkout.InitiateResult, error) {
	panic("unimplemented")
}

type stubPaymentsService struct{}

// GetByOrderID implements [payments.Service].
func (stubPaymentsService) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	panic("unimplemented")
}

// ApplyGatewayResult implements [payments.Service].
func (stubPaymentsService) ApplyGatewayResult(ctx context.Context, input payments.ApplyInput) error {
	panic("unimplemented")
}

// ApproveBankTransfer implements [payments.Service].
func (stubPaymentsService) ApproveBankTransfer(ctx context.Context, adminID uuid.UUID, orderID, reason string) error {
	panic("unimplemented")
}

// RejectBankTransfer implements [payments.Service].
func (stubPaymentsService) RejectBankTransfer(ctx context.Context, adminID uuid.UUID, orderID, reason string) error {
	panic("unimplemented")
}

// RevertToPending implements [payments.Service].
func (stubPaymentsService) RevertToPending(ctx context.Context, adminID uuid.UUID, orderID, reason string) error {
	panic("unimplemented")
}

// Reconcile implements [payments.Service].
func (stubPaymentsService) Reconcile(ctx context.Context) (payments.ReconcileReport, error) {
	return payments.ReconcileReport{}, nil
}

type stubRegistrationsService struct{}

func (stubRegistrationsService) Materialize(ctx context.Context, orderID string) error {
	panic("unimplemented")
}

func (stubRegistrationsService) EnsureDisplayCode(ctx context.Context, registrationNumber string) (string, error) {
	panic("unimplemented")
}

func (stubRegistrationsService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	return []models.Registration{}, nil
}

func (stubRegistrationsService) GetByNumber(ctx context.Context, registrationNumber string) (*models.Registration, error) {
	panic("unimplemented")
}

func (stubRegistrationsService) UpdateStatusByPayment(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, status enums.RegistrationStatus) (int64, error) {
	panic("unimplemented")
}

type stubSubmissionsService struct{}

func (stubSubmissionsService) GetForViewer(ctx context.Context, registrationNumber string, viewerID uuid.UUID, role enums.MemberRole) (*models.Submission, error) {
	panic("unimplemented")
}

func (stubSubmissionsService) ListPublished(ctx context.Context, limit int) ([]models.Submission, error) {
	return []models.Submission{}, nil
}

func (stubSubmissionsService) SaveDraft(ctx context.Context, userID uuid.UUID, registrationNumber string, input submissions.DraftInput) (*models.Submission, error) {
	panic("unimplemented")
}

func (stubSubmissionsService) Submit(ctx context.Context, userID uuid.UUID, registrationNumber string, input submissions.DraftInput) error {
	panic("unimplemented")
}

func (stubSubmissionsService) Validate(ctx context.Context, adminID uuid.UUID, registrationNumber, notes string) error {
	panic("unimplemented")
}

func (stubSubmissionsService) Reject(ctx context.Context, adminID uuid.UUID, registrationNumber, reason string) error {
	panic("unimplemented")
}

func (stubSubmissionsService) Publish(ctx context.Context, adminID uuid.UUID, registrationNumber string) error {
	panic("unimplemented")
}

func (stubSubmissionsService) Unpublish(ctx context.Context, adminID uuid.UUID, registrationNumber string) error {
	panic("unimplemented")
}

type stubJuryService struct{}

func (stubJuryService) SubmitScore(ctx context.Context, juryMemberID uuid.UUID, registrationNumber string, input jury.ScoreInput) (*models.JuryScore, error) {
	panic("unimplemented")
}

func (stubJuryService) Assign(ctx context.Context, juryMemberID uuid.UUID, registrationNumber string) error {
	panic("unimplemented")
}

func (stubJuryService) ListAssignments(ctx context.Context, juryMemberID uuid.UUID) ([]models.JuryAssignment, error) {
	return []models.JuryAssignment{}, nil
}

func (stubJuryService) Progress(ctx context.Context, juryMemberID uuid.UUID) (jury.Progress, error) {
	return jury.Progress{JuryMemberID: juryMemberID}, nil
}

func (stubJuryService) Overview(ctx context.Context) ([]jury.Progress, error) {
	return []jury.Progress{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, payload map[string]any) {
}

func (stubNotificationsService) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	return []models.Notification{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:        cfg,
		Logger:        logg,
		DB:            stubPinger{},
		Redis:         stubPinger{},
		Carts:         stubCartService{},
		Checkout:      stubCheckoutService{},
		Payments:      stubPaymentsService{},
		Registrations: stubRegistrationsService{},
		Submissions:   stubSubmissionsService{},
		Jury:          stubJuryService{},
		Notifications: stubNotificationsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPublicPingNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public ping got %d", resp.Code)
	}
}

func TestPublishedGalleryNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/public/submissions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for published gallery got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleRegistrant))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestJuryGroupRequiresJuryRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	registrant := httptest.NewRequest(http.MethodGet, "/api/v1/jury/assignments", nil)
	registrant.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleRegistrant))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, registrant)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for registrant got %d", resp.Code)
	}

	juror := httptest.NewRequest(http.MethodGet, "/api/v1/jury/assignments", nil)
	juror.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleJury))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, juror)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for jury member got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	juror := httptest.NewRequest(http.MethodPost, "/api/v1/admin/payments/reconcile", nil)
	juror.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleJury))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, juror)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for jury member got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, "/api/v1/admin/payments/reconcile", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminCanReadJuryOverview(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/jury/overview", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for jury overview got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}
