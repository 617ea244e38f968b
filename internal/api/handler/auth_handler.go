package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/motoconnect/auth-service/internal/core/domain"
	"github.com/motoconnect/auth-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	tokens      ports.TokenIssuer
	now         func() time.Time
}

func NewAuthHandler(authService ports.AuthService, tokens ports.TokenIssuer) *AuthHandler {
	return &AuthHandler{authService: authService, tokens: tokens, now: time.Now}
}

var errCredentials = messageResponse{Message: "invalid credentials"}

// Register creates a new identity and returns a session token for it.
//
// @Summary      Register a new identity
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	identity, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if domain.IsValidation(err) {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
		}
		return err
	}

	token, err := h.tokens.Issue(identity, h.now())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, sessionResponse{
		Token:    token.Value,
		Identity: toIdentityResponse(identity),
	})
}

// Login authenticates an identity and returns a session token.
//
// Every credential problem produces the same 401 body.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnauthorized, errCredentials)
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnauthorized, errCredentials)
	}

	identity, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, errCredentials)
		}
		return err
	}

	token, err := h.tokens.Issue(identity, h.now())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{Token: token.Value})
}

// Me returns the identity behind the bearer token.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  identityResponse
// @Failure      401  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	subject, err := ctxSubject(c)
	if err != nil {
		return err
	}

	identity, err := h.authService.Identity(c.Request().Context(), subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(identity))
}

// ChangePassword replaces the caller's password.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  changePasswordRequest  true  "Current and new password"
// @Success      204
// @Failure      400  {object}  messageResponse
// @Failure      401  {object}  messageResponse
// @Router       /auth/me/password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	subject, err := ctxSubject(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	err = h.authService.ChangePassword(c.Request().Context(), subject, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errCredentials)
	case domain.IsValidation(err):
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}
	return err
}

// ChangeEmail replaces the caller's email and returns a token carrying it.
//
// @Summary      Change email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changeEmailRequest  true  "New email"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Router       /auth/me/email [put]
func (h *AuthHandler) ChangeEmail(c echo.Context) error {
	subject, err := ctxSubject(c)
	if err != nil {
		return err
	}

	var req changeEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	identity, err := h.authService.ChangeEmail(c.Request().Context(), subject, req.Email)
	if err != nil {
		if domain.IsValidation(err) {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
		}
		return err
	}

	token, err := h.tokens.Issue(identity, h.now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{Token: token.Value, Identity: toIdentityResponse(identity)})
}

// ChangeRole assigns a role to another identity. Admin only.
//
// @Summary      Change role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Identity id"
// @Param        body  body      changeRoleRequest  true  "New role"
// @Success      200   {object}  identityResponse
// @Failure      400   {object}  messageResponse
// @Failure      403   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /users/{id}/role [put]
func (h *AuthHandler) ChangeRole(c echo.Context) error {
	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	identity, err := h.authService.ChangeRole(c.Request().Context(), c.Param("id"), req.Role)
	if err != nil {
		if domain.IsValidation(err) {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
		}
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(identity))
}
