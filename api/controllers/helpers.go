package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/archfoundry/archcomp-backend/api/middleware"
	pkgerrors "github.com/archfoundry/archcomp-backend/pkg/errors"
)

// actorID resolves the authenticated user id from the request context.
func actorID(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// viewerID is actorID without the authentication requirement; anonymous
// callers get uuid.Nil.
func viewerID(ctx context.Context) uuid.UUID {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
