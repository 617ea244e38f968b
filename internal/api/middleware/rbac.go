package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/motoconnect/auth-service/internal/core/domain"
)

// IdentityLookup resolves the identity behind a token subject.
type IdentityLookup interface {
	Identity(ctx context.Context, id string) (*domain.Identity, error)
}

// CurrentRole replaces the role claim with the identity's stored role, so a
// role change takes effect before the caller's token expires. Must run after
// Auth.
func CurrentRole(lookup IdentityLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject, _ := c.Get(ContextSubject).(string)
			if subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			identity, err := lookup.Identity(c.Request().Context(), subject)
			if errors.Is(err, domain.ErrIdentityNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if err != nil {
				return err
			}

			c.Set(ContextRole, identity.Role.String())
			return next(c)
		}
	}
}

// RBAC enforces role-based access control on the role claim set by Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"message": "forbidden"})
			}
			return next(c)
		}
	}
}
