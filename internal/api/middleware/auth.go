package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/motoconnect/auth-service/internal/core/service"
)

// Context keys set by Auth.
const (
	ContextSubject = "subject"
	ContextEmail   = "email"
	ContextRole    = "role"
	ContextTokenID = "token_id"
)

// TokenParser validates a bearer token and returns its claims.
type TokenParser interface {
	Parse(token string) (*service.Claims, error)
}

// Auth validates the bearer token and injects its claims into the context.
func Auth(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := parser.Parse(strings.TrimSpace(parts[1]))
			if err != nil || claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextSubject, claims.Subject)
			c.Set(ContextEmail, claims.Email)
			c.Set(ContextRole, claims.Role)
			c.Set(ContextTokenID, claims.ID)

			return next(c)
		}
	}
}
