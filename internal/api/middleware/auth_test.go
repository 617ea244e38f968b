package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/motoconnect/auth-service/internal/core/domain"
	"github.com/motoconnect/auth-service/internal/core/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestIssuer(t *testing.T) *service.TokenIssuer {
	t.Helper()
	issuer, err := service.NewTokenIssuer(service.TokenConfig{Secret: testSecret, Issuer: "motoconnect", Audience: "motoconnect-api"})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}

func runAuth(t *testing.T, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(newTestIssuer(t))(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, c, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	email, _ := domain.ParseEmail("alice@x.com")
	identity := &domain.Identity{ID: "id-1", Name: "Alice", Email: email, Role: domain.RoleAdmin}
	token, err := newTestIssuer(t).Issue(identity, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rec, c, called := runAuth(t, "Bearer "+token.Value)

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c.Get(ContextSubject) != "id-1" {
		t.Fatalf("subject not set")
	}
	if c.Get(ContextRole) != "admin" {
		t.Fatalf("role not set")
	}
	if c.Get(ContextEmail) != "alice@x.com" {
		t.Fatalf("email not set")
	}
	if c.Get(ContextTokenID) != token.ID {
		t.Fatalf("token id not set")
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec, _, called := runAuth(t, "")
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	rec, _, called := runAuth(t, "Token abc")
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rec, _, called := runAuth(t, "Bearer not-a-token")
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_RejectsForeignTokens(t *testing.T) {
	cases := map[string]jwt.MapClaims{
		"wrong issuer": {
			"sub": "id-1", "iss": "someone-else", "aud": "motoconnect-api",
			"iat": time.Now().Unix(), "exp": time.Now().Add(time.Hour).Unix(),
		},
		"expired": {
			"sub": "id-1", "iss": "motoconnect", "aud": "motoconnect-api",
			"iat": time.Now().Add(-3 * time.Hour).Unix(), "exp": time.Now().Add(-time.Hour).Unix(),
		},
		"no expiry": {
			"sub": "id-1", "iss": "motoconnect", "aud": "motoconnect-api",
			"iat": time.Now().Unix(),
		},
	}

	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
			if err != nil {
				t.Fatalf("sign token: %v", err)
			}
			rec, _, called := runAuth(t, "Bearer "+signed)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": "id-1", "iss": "motoconnect", "aud": "motoconnect-api",
		"iat": time.Now().Unix(), "exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec, _, called := runAuth(t, "Bearer "+signed)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected HS512 token to be rejected, got %d", rec.Code)
	}
}
