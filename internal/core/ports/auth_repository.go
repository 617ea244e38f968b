package ports

import (
	"context"

	"github.com/motoconnect/auth-service/internal/core/domain"
)

// IdentityRepository is the durable store for identities. Implementations
// return domain.ErrIdentityNotFound when nothing matches and
// domain.ErrDuplicateEmail when an insert or update collides on email.
type IdentityRepository interface {
	FindByEmail(ctx context.Context, email domain.Email) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	Create(ctx context.Context, identity *domain.Identity) error
	Update(ctx context.Context, identity *domain.Identity) error
}
