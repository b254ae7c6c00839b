package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/archfoundry/archcomp-backend/api/responses"
	"github.com/archfoundry/archcomp-backend/api/validators"
	submissionsvc "github.com/archfoundry/archcomp-backend/internal/submissions"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

type reviewRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

// AdminSubmissionValidate approves a submitted entry.
func AdminSubmissionValidate(svc submissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload reviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		number := chi.URLParam(r, "registrationNumber")
		if err := svc.Validate(r.Context(), adminID, number, payload.Notes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"registration_number": number,
			"status":              enums.SubmissionStatusValidated.String(),
		})
	}
}

// AdminSubmissionReject turns down a submitted entry with a mandatory reason.
func AdminSubmissionReject(svc submissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload reviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		number := chi.URLParam(r, "registrationNumber")
		if err := svc.Reject(r.Context(), adminID, number, payload.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"registration_number": number,
			"status":              enums.SubmissionStatusRejected.String(),
		})
	}
}

// AdminSubmissionPublish makes a submission public.
func AdminSubmissionPublish(svc submissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		number := chi.URLParam(r, "registrationNumber")
		if err := svc.Publish(r.Context(), adminID, number); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"registration_number": number,
			"status":              enums.SubmissionStatusPublished.String(),
		})
	}
}

// AdminSubmissionUnpublish pulls a submission from public view.
func AdminSubmissionUnpublish(svc submissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		number := chi.URLParam(r, "registrationNumber")
		if err := svc.Unpublish(r.Context(), adminID, number); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"registration_number": number,
			"status":              enums.SubmissionStatusValidated.String(),
		})
	}
}
