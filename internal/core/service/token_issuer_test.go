package service

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/motoconnect/auth-service/internal/core/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(TokenConfig{Secret: testSecret, Issuer: "motoconnect", Audience: "motoconnect-api"})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}

func testIdentity(t *testing.T) *domain.Identity {
	t.Helper()
	email, err := domain.ParseEmail("ana@x.com")
	if err != nil {
		t.Fatalf("parse email: %v", err)
	}
	return &domain.Identity{ID: "6b1f0c1e-id", Name: "Ana", Email: email, Role: domain.RoleMechanic}
}

func decodeSegment(t *testing.T, segment string) map[string]any {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		t.Fatalf("decode segment: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal segment: %v", err)
	}
	return out
}

func TestNewTokenIssuer_RejectsBadSecrets(t *testing.T) {
	if _, err := NewTokenIssuer(TokenConfig{}); !errors.Is(err, domain.ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
	if _, err := NewTokenIssuer(TokenConfig{Secret: "short"}); !errors.Is(err, domain.ErrWeakSecret) {
		t.Fatalf("expected ErrWeakSecret, got %v", err)
	}
}

func TestTokenIssuer_Issue_Format(t *testing.T) {
	issuer := newTestIssuer(t)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	token, err := issuer.Issue(testIdentity(t), now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token.Value, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three segments, got %d", len(parts))
	}

	header := decodeSegment(t, parts[0])
	if header["alg"] != "HS256" || header["typ"] != "JWT" {
		t.Fatalf("unexpected header: %v", header)
	}

	payload := decodeSegment(t, parts[1])
	want := map[string]any{
		"sub":   "6b1f0c1e-id",
		"email": "ana@x.com",
		"name":  "Ana",
		"role":  "mechanic",
		"iss":   "motoconnect",
	}
	for k, v := range want {
		if payload[k] != v {
			t.Fatalf("claim %s: expected %v, got %v", k, v, payload[k])
		}
	}
	if jti, _ := payload["jti"].(string); jti == "" || jti != token.ID {
		t.Fatalf("unexpected jti %v (token id %q)", payload["jti"], token.ID)
	}

	iat, _ := payload["iat"].(float64)
	exp, _ := payload["exp"].(float64)
	if int64(iat) != now.Unix() {
		t.Fatalf("expected iat %d, got %v", now.Unix(), iat)
	}
	if time.Duration(int64(exp)-int64(iat))*time.Second != 120*time.Minute {
		t.Fatalf("expected exp = iat + 120m, got %v", time.Duration(int64(exp)-int64(iat))*time.Second)
	}
	if !token.ExpiresAt.Equal(token.IssuedAt.Add(domain.DefaultTokenTTL)) {
		t.Fatalf("signed token window mismatch: %v .. %v", token.IssuedAt, token.ExpiresAt)
	}
}

func TestTokenIssuer_Issue_UniqueJTI(t *testing.T) {
	issuer := newTestIssuer(t)
	now := time.Now()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := issuer.Issue(testIdentity(t), now)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if seen[token.ID] {
			t.Fatalf("jti %q reused", token.ID)
		}
		seen[token.ID] = true
	}
}

func TestTokenIssuer_Parse(t *testing.T) {
	issuer := newTestIssuer(t)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	issuer.clock = func() time.Time { return now.Add(time.Minute) }

	token, err := issuer.Issue(testIdentity(t), now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Parse(token.Value)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "6b1f0c1e-id" || claims.Role != "mechanic" || claims.Email != "ana@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	t.Run("expired", func(t *testing.T) {
		issuer.clock = func() time.Time { return now.Add(121 * time.Minute) }
		defer func() { issuer.clock = func() time.Time { return now.Add(time.Minute) } }()
		if _, err := issuer.Parse(token.Value); !errors.Is(err, jwt.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("wrong audience", func(t *testing.T) {
		other, err := NewTokenIssuer(TokenConfig{Secret: testSecret, Issuer: "motoconnect", Audience: "billing"})
		if err != nil {
			t.Fatalf("new issuer: %v", err)
		}
		other.clock = issuer.clock
		if _, err := other.Parse(token.Value); !errors.Is(err, jwt.ErrTokenInvalidAudience) {
			t.Fatalf("expected ErrTokenInvalidAudience, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenIssuer(TokenConfig{Secret: strings.Repeat("z", 32), Issuer: "motoconnect", Audience: "motoconnect-api"})
		if err != nil {
			t.Fatalf("new issuer: %v", err)
		}
		other.clock = issuer.clock
		if _, err := other.Parse(token.Value); !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			t.Fatalf("expected ErrTokenSignatureInvalid, got %v", err)
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(token.Value, ".")
		payload := decodeSegment(t, parts[1])
		payload["role"] = "admin"
		raw, _ := json.Marshal(payload)
		forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString(raw) + "." + parts[2]
		if _, err := issuer.Parse(forged); err == nil {
			t.Fatalf("expected tampered token to be rejected")
		}
	})
}
