package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/redeemly/redeemly-backend/api/middleware"
	"github.com/redeemly/redeemly-backend/pkg/enums"
	pkgerrors "github.com/redeemly/redeemly-backend/pkg/errors"
)

// actorFromContext extracts the authenticated caller seeded by the auth
// middleware.
func actorFromContext(ctx context.Context) (uuid.UUID, enums.UserRole, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	role := enums.UserRole(middleware.RoleFromContext(ctx))
	if !role.IsValid() {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return userID, role, nil
}
