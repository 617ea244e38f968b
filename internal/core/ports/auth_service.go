package ports

import (
	"context"
	"time"

	"github.com/motoconnect/auth-service/internal/core/domain"
)

// RegisterInput carries the raw registration fields as received.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	Identity(ctx context.Context, id string) (*domain.Identity, error)
	ChangePassword(ctx context.Context, id, current, next string) error
	ChangeEmail(ctx context.Context, id, email string) (*domain.Identity, error)
	ChangeRole(ctx context.Context, id, role string) (*domain.Identity, error)
}

// SignedToken is a bearer token together with its validity window.
type SignedToken struct {
	Value     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(identity *domain.Identity, now time.Time) (SignedToken, error)
}
