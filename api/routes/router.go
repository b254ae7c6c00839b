package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/archfoundry/archcomp-backend/api/controllers"
	"github.com/archfoundry/archcomp-backend/api/middleware"
	"github.com/archfoundry/archcomp-backend/internal/cart"
	checkoutsvc "github.com/archfoundry/archcomp-backend/internal/checkout"
	"github.com/archfoundry/archcomp-backend/internal/competitions"
	"github.com/archfoundry/archcomp-backend/internal/jury"
	"github.com/archfoundry/archcomp-backend/internal/notifications"
	"github.com/archfoundry/archcomp-backend/internal/payments"
	"github.com/archfoundry/archcomp-backend/internal/registrations"
	"github.com/archfoundry/archcomp-backend/internal/submissions"
	payherewebhook "github.com/archfoundry/archcomp-backend/internal/webhooks/payhere"
	"github.com/archfoundry/archcomp-backend/pkg/config"
	"github.com/archfoundry/archcomp-backend/pkg/db"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
	"github.com/archfoundry/archcomp-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          redis.Pinger
	Competitions   *competitions.Repository
	Carts          cart.Service
	Checkout       checkoutsvc.Service
	Payments       payments.Service
	Registrations  registrations.Service
	Submissions    submissions.Service
	Jury           jury.Service
	Notifications  notifications.Service
	PayHereWebhook *payherewebhook.Service
}

// NewRouter assembles the full route tree.
func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/competitions", controllers.CompetitionsList(p.Competitions, logg))
		r.Get("/submissions", controllers.SubmissionsListPublished(p.Submissions, logg))
		r.Get("/submissions/{registrationNumber}", controllers.SubmissionGet(p.Submissions, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payhere", controllers.PayHereWebhook(p.PayHereWebhook, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(p.Carts, logg))
			r.Post("/items", controllers.CartAddItem(p.Carts, logg))
			r.Delete("/{cartID}/items/{itemID}", controllers.CartRemoveItem(p.Carts, logg))
			r.Delete("/{cartID}/items", controllers.CartClear(p.Carts, logg))
		})

		r.Post("/checkout", controllers.CheckoutInitiate(p.Checkout, logg))

		r.Route("/registrations", func(r chi.Router) {
			r.Get("/", controllers.RegistrationsList(p.Registrations, logg))
			r.Get("/{registrationNumber}", controllers.RegistrationGet(p.Registrations, logg))
			r.Post("/{registrationNumber}/display-code", controllers.RegistrationDisplayCode(p.Registrations, logg))
		})

		r.Route("/submissions/{registrationNumber}", func(r chi.Router) {
			r.Get("/", controllers.SubmissionGet(p.Submissions, logg))
			r.Put("/", controllers.SubmissionSaveDraft(p.Submissions, logg))
			r.Post("/submit", controllers.SubmissionSubmit(p.Submissions, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationsList(p.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.NotificationMarkRead(p.Notifications, logg))
			r.Post("/read-all", controllers.NotificationsMarkAllRead(p.Notifications, logg))
		})

		r.Route("/jury", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.MemberRoleJury.String(), enums.MemberRoleAdmin.String()))
			r.Get("/assignments", controllers.JuryAssignments(p.Jury, logg))
			r.Get("/progress", controllers.JuryProgress(p.Jury, logg))
			r.Post("/scores/{registrationNumber}", controllers.JuryScoreSubmit(p.Jury, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.MemberRoleAdmin.String()))

			r.Route("/submissions/{registrationNumber}", func(r chi.Router) {
				r.Post("/validate", controllers.AdminSubmissionValidate(p.Submissions, logg))
				r.Post("/reject", controllers.AdminSubmissionReject(p.Submissions, logg))
				r.Post("/publish", controllers.AdminSubmissionPublish(p.Submissions, logg))
				r.Post("/unpublish", controllers.AdminSubmissionUnpublish(p.Submissions, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/{orderID}/approve", controllers.AdminPaymentApprove(p.Payments, logg))
				r.Post("/{orderID}/reject", controllers.AdminPaymentReject(p.Payments, logg))
				r.Post("/{orderID}/revert", controllers.AdminPaymentRevert(p.Payments, logg))
				r.Post("/reconcile", controllers.AdminPaymentReconcile(p.Payments, logg))
			})

			r.Post("/carts/reconcile", controllers.AdminCartReconcile(p.Carts, logg))

			r.Route("/jury", func(r chi.Router) {
				r.Get("/overview", controllers.AdminJuryOverview(p.Jury, logg))
				r.Post("/assignments/{registrationNumber}", controllers.AdminJuryAssign(p.Jury, logg))
			})
		})
	})

	return r
}
