package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/speedsterx/storefront-backend/api/responses"
	"github.com/speedsterx/storefront-backend/pkg/enums"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
	"github.com/speedsterx/storefront-backend/pkg/logger"
)

// RoleSource resolves the current role for a user. Privileged routes consult
// the database instead of trusting the role baked into the JWT, so a
// demotion takes effect on the next request rather than at token expiry.
type RoleSource interface {
	CurrentRole(ctx context.Context, userID uuid.UUID) (enums.UserRole, error)
}

// RequireStaff admits ADMIN and MANAGER actors.
func RequireStaff(source RoleSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return requireRole(source, logg, func(role enums.UserRole) bool {
		return role.IsAdminOrManager()
	})
}

// RequireAdmin admits ADMIN actors only.
func RequireAdmin(source RoleSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return requireRole(source, logg, func(role enums.UserRole) bool {
		return role.CanManageAdmins()
	})
}

func requireRole(source RoleSource, logg *logger.Logger, allowed func(enums.UserRole) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := uuid.Parse(UserIDFromContext(r.Context()))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			role, err := source.CurrentRole(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if !allowed(role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxRole, string(role))
			if logg != nil {
				ctx = logg.WithActorRole(ctx, string(role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
