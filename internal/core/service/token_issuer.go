package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/motoconnect/auth-service/internal/api/metrics"
	"github.com/motoconnect/auth-service/internal/core/domain"
	"github.com/motoconnect/auth-service/internal/core/ports"
)

// TokenConfig holds the signing parameters shared with every service that
// validates the issued tokens.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Claims is the payload of an issued session token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 session tokens.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	clock    func() time.Time
}

// NewTokenIssuer fails when the secret is missing or shorter than
// domain.MinSecretLength. Callers treat that as fatal.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, domain.ErrMissingSecret
	}
	if len(cfg.Secret) < domain.MinSecretLength {
		return nil, domain.ErrWeakSecret
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = domain.DefaultTokenTTL
	}
	return &TokenIssuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
		clock:    time.Now,
	}, nil
}

var _ ports.TokenIssuer = (*TokenIssuer)(nil)

// Issue signs a fresh claim set for identity, valid from now for the
// configured TTL.
func (t *TokenIssuer) Issue(identity *domain.Identity, now time.Time) (ports.SignedToken, error) {
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(issuedAt.Add(t.ttl))
	jti := uuid.NewString()

	claims := Claims{
		Email: identity.Email.Address(),
		Name:  identity.Name,
		Role:  identity.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			ID:        jti,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return ports.SignedToken{}, fmt.Errorf("sign token: %w", err)
	}
	metrics.TokensIssuedTotal.Inc()

	return ports.SignedToken{
		Value:     signed,
		ID:        jti,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// Parse validates signature, algorithm, issuer, audience and expiry, and
// returns the embedded claims.
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}
