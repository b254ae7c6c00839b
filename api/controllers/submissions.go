package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/archfoundry/archcomp-backend/api/middleware"
	"github.com/archfoundry/archcomp-backend/api/responses"
	"github.com/archfoundry/archcomp-backend/api/validators"
	submissionsvc "github.com/archfoundry/archcomp-backend/internal/submissions"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

type submissionContentRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PanelURLs   []string `json:"panel_urls"`
}

func (req submissionContentRequest) toInput() submissionsvc.DraftInput {
	return submissionsvc.DraftInput{
		Title:       validators.SanitizeString(req.Title, 200),
		Description: validators.SanitizeString(req.Description, 5000),
		PanelURLs:   req.PanelURLs,
	}
}

func viewerRole(r *http.Request) enums.MemberRole {
	return enums.MemberRole(middleware.RoleFromContext(r.Context()))
}

// SubmissionGet serves a submission under the visibility rule; it backs both
// the public gallery route (anonymous viewer) and the authenticated route.
func SubmissionGet(svc submissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submission, err := svc.GetForViewer(r.Context(),
			chi.URLParam(r, "registrationNumber"), viewerID(r.Context()), viewerRole(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submission)
	}
}

// SubmissionsListPublished serves the public gallery.
func SubmissionsListPublished(svc submissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListPublished(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// SubmissionSaveDraft updates the caller's draft content.
func SubmissionSaveDraft(svc submissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload submissionContentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		submission, err := svc.SaveDraft(r.Context(), userID,
			chi.URLParam(r, "registrationNumber"), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submission)
	}
}

// SubmissionSubmit finalizes the caller's draft for review.
func SubmissionSubmit(svc submissionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload submissionContentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		number := chi.URLParam(r, "registrationNumber")
		if err := svc.Submit(r.Context(), userID, number, payload.toInput()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"registration_number": number,
			"status":              enums.SubmissionStatusSubmitted.String(),
		})
	}
}
