package controllers

import (
	"net/http"

	"github.com/archfoundry/archcomp-backend/api/responses"
	competitionsvc "github.com/archfoundry/archcomp-backend/internal/competitions"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
)

// CompetitionsList serves the open competitions with their fee tiers.
func CompetitionsList(repo *competitionsvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := repo.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list competitions"))
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
