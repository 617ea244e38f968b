package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/motoconnect/auth-service/internal/api/middleware"
)

// ctxSubject returns the identity id injected by the Auth middleware. An
// empty subject means the middleware did not run.
func ctxSubject(c echo.Context) (string, error) {
	subject, _ := c.Get(middleware.ContextSubject).(string)
	if subject == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return subject, nil
}
