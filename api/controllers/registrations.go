package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/archfoundry/archcomp-backend/api/middleware"
	"github.com/archfoundry/archcomp-backend/api/responses"
	registrationsvc "github.com/archfoundry/archcomp-backend/internal/registrations"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

// RegistrationsList returns the caller's registrations.
func RegistrationsList(svc registrationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// RegistrationGet loads one registration for its owner or an admin.
func RegistrationGet(svc registrationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		registration, err := svc.GetByNumber(r.Context(), chi.URLParam(r, "registrationNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if registration.UserID != userID && middleware.RoleFromContext(r.Context()) != enums.MemberRoleAdmin.String() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "not your registration"))
			return
		}
		responses.WriteSuccess(w, registration)
	}
}

// RegistrationDisplayCode mints (or returns) the registration's public code.
func RegistrationDisplayCode(svc registrationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		number := chi.URLParam(r, "registrationNumber")
		registration, err := svc.GetByNumber(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if registration.UserID != userID && middleware.RoleFromContext(r.Context()) != enums.MemberRoleAdmin.String() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "not your registration"))
			return
		}
		code, err := svc.EnsureDisplayCode(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"registration_number": number,
			"display_code":        code,
		})
	}
}
