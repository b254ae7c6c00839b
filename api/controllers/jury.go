package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/archfoundry/archcomp-backend/api/responses"
	"github.com/archfoundry/archcomp-backend/api/validators"
	jurysvc "github.com/archfoundry/archcomp-backend/internal/jury"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

// JuryScoreSubmit records (or overwrites) the caller's rubric for an assigned
// registration.
func JuryScoreSubmit(svc jurysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload jurysvc.ScoreInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		score, err := svc.SubmitScore(r.Context(), memberID, chi.URLParam(r, "registrationNumber"), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, score)
	}
}

// JuryAssignments lists the caller's scoring queue.
func JuryAssignments(svc jurysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListAssignments(r.Context(), memberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// JuryProgress reports the caller's own completion stats.
func JuryProgress(svc jurysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID, err := actorID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		progress, err := svc.Progress(r.Context(), memberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, progress)
	}
}

// AdminJuryOverview reports every jury member's progress.
func AdminJuryOverview(svc jurysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actorID(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		table, err := svc.Overview(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, table)
	}
}

type juryAssignRequest struct {
	JuryMemberID uuid.UUID `json:"jury_member_id" validate:"required"`
}

// AdminJuryAssign puts a registration on a jury member's queue.
func AdminJuryAssign(svc jurysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actorID(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		var payload juryAssignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		number := chi.URLParam(r, "registrationNumber")
		if err := svc.Assign(r.Context(), payload.JuryMemberID, number); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{
			"registration_number": number,
			"jury_member_id":      payload.JuryMemberID.String(),
		})
	}
}
