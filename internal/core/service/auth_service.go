package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/motoconnect/auth-service/internal/api/metrics"
	"github.com/motoconnect/auth-service/internal/core/domain"
	"github.com/motoconnect/auth-service/internal/core/ports"
)

// DerivationPool bounds concurrent password derivations.
type DerivationPool interface {
	Do(ctx context.Context, op string, fn func()) error
}

// LoginThrottle abstracts the failed-login counter (Redis).
type LoginThrottle interface {
	Locked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// AuthConfig groups the optional collaborators of AuthService.
type AuthConfig struct {
	// Iterations is the PBKDF2 round count for new hashes. Zero means
	// domain.DefaultIterations.
	Iterations int
	Pool       DerivationPool
	Throttle   LoginThrottle
}

// AuthService implements registration, login and credential changes.
type AuthService struct {
	repo       ports.IdentityRepository
	pool       DerivationPool
	throttle   LoginThrottle
	iterations int
	log        zerolog.Logger
	now        func() time.Time

	dummyOnce sync.Once
	dummy     domain.PasswordHash
}

func NewAuthService(repo ports.IdentityRepository, cfg AuthConfig, log zerolog.Logger) *AuthService {
	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = domain.DefaultIterations
	}
	return &AuthService{
		repo:       repo,
		pool:       cfg.Pool,
		throttle:   cfg.Throttle,
		iterations: iterations,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.AuthService = (*AuthService)(nil)

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	identity, err := s.register(ctx, in)
	switch {
	case err == nil:
		metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	case errors.Is(err, domain.ErrDuplicateEmail):
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
	case domain.IsValidation(err):
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
	default:
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
	}
	return identity, err
}

func (s *AuthService) register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrMissingName
	}
	email, err := domain.ParseEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckPasswordPolicy(in.Password); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleUnset {
		role = domain.DefaultRole
	}

	// Read-then-write: the store's unique index is what actually prevents two
	// concurrent registrations of the same email.
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := s.hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	identity := &domain.Identity{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, identity); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().
		Str("identity_id", identity.ID).
		Str("role", identity.Role.String()).
		Msg("identity registered")

	return identity, nil
}

// Login resolves and verifies credentials. Every credential problem, from a
// malformed email to a wrong password, yields domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, rawEmail, password string) (*domain.Identity, error) {
	email, parseErr := domain.ParseEmail(rawEmail)
	key := strings.TrimSpace(rawEmail)
	if parseErr == nil {
		key = email.Address()
	}

	if s.locked(ctx, key) {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	var identity *domain.Identity
	if parseErr == nil {
		found, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			identity = found
		case errors.Is(err, domain.ErrIdentityNotFound):
		case errors.Is(err, domain.ErrCorruptIdentity):
			// Fail closed with the generic answer; the row is unusable.
			metrics.IntegrityFailuresTotal.Inc()
			s.log.Warn().Err(err).Msg("stored identity is corrupt")
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("login: %w", err)
		}
	}

	// Unknown emails still pay for a derivation.
	hash := s.dummyHash()
	if identity != nil {
		hash = identity.PasswordHash
		s.checkIntegrity(identity)
	}

	ok, err := s.verify(ctx, hash, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if identity == nil || !ok {
		s.recordFailure(ctx, key)
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	s.resetFailures(ctx, key)
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("identity_id", identity.ID).Msg("login succeeded")
	return identity, nil
}

func (s *AuthService) Identity(ctx context.Context, id string) (*domain.Identity, error) {
	return s.repo.FindByID(ctx, id)
}

// ChangePassword replaces the password after re-verifying the current one.
// Wrong current passwords count against the identity's own throttle key.
func (s *AuthService) ChangePassword(ctx context.Context, id, current, next string) error {
	identity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	s.checkIntegrity(identity)

	key := identityThrottleKey(identity.ID)
	if s.locked(ctx, key) {
		return domain.ErrInvalidCredentials
	}

	ok, err := s.verify(ctx, identity.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		s.recordFailure(ctx, key)
		return domain.ErrInvalidCredentials
	}
	s.resetFailures(ctx, key)
	if err := domain.CheckPasswordPolicy(next); err != nil {
		return err
	}

	hash, err := s.hash(ctx, next)
	if err != nil {
		return err
	}
	identity.ChangePassword(hash, s.now())
	if err := s.repo.Update(ctx, identity); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("identity_id", identity.ID).Msg("password changed")
	return nil
}

func (s *AuthService) ChangeEmail(ctx context.Context, id, rawEmail string) (*domain.Identity, error) {
	email, err := domain.ParseEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	identity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity.Email == email {
		return identity, nil
	}
	if err := s.ensureEmailFree(ctx, email, identity.ID); err != nil {
		return nil, err
	}

	identity.ChangeEmail(email, s.now())
	if err := s.repo.Update(ctx, identity); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("change email: %w", err)
	}

	s.log.Info().Str("identity_id", identity.ID).Msg("email changed")
	return identity, nil
}

func (s *AuthService) ChangeRole(ctx context.Context, id, rawRole string) (*domain.Identity, error) {
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	identity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := identity.ChangeRole(role, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, identity); err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}

	s.log.Info().
		Str("identity_id", identity.ID).
		Str("role", role.String()).
		Msg("role changed")
	return identity, nil
}

// ensureEmailFree fails with ErrDuplicateEmail when email belongs to an
// identity other than ownerID.
func (s *AuthService) ensureEmailFree(ctx context.Context, email domain.Email, ownerID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrIdentityNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("lookup email: %w", err)
	case existing.ID != ownerID:
		return domain.ErrDuplicateEmail
	}
	return nil
}

func (s *AuthService) hash(ctx context.Context, plain string) (domain.PasswordHash, error) {
	var (
		hash    domain.PasswordHash
		hashErr error
	)
	err := s.run(ctx, "hash", func() {
		hash, hashErr = domain.NewPasswordHashWithIterations(plain, s.iterations)
	})
	if err != nil {
		return domain.PasswordHash{}, err
	}
	return hash, hashErr
}

func (s *AuthService) verify(ctx context.Context, hash domain.PasswordHash, candidate string) (bool, error) {
	var ok bool
	if err := s.run(ctx, "verify", func() { ok = hash.Verify(candidate) }); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *AuthService) run(ctx context.Context, op string, fn func()) error {
	if s.pool == nil {
		start := time.Now()
		fn()
		metrics.DerivationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		return nil
	}
	return s.pool.Do(ctx, op, fn)
}

// dummyHash is verified against when the email is unknown so both login
// failure paths cost one derivation.
func (s *AuthService) dummyHash() domain.PasswordHash {
	s.dummyOnce.Do(func() {
		hash, err := domain.NewPasswordHashWithIterations("unused-password-0", s.iterations)
		if err != nil {
			s.log.Warn().Err(err).Msg("could not derive dummy hash")
			return
		}
		s.dummy = hash
	})
	return s.dummy
}

func (s *AuthService) checkIntegrity(identity *domain.Identity) {
	if identity.PasswordHash.WellFormed() {
		return
	}
	metrics.IntegrityFailuresTotal.Inc()
	s.log.Warn().
		Str("identity_id", identity.ID).
		Msg("stored password hash is malformed")
}

func (s *AuthService) locked(ctx context.Context, key string) bool {
	if s.throttle == nil || key == "" {
		return false
	}
	locked, err := s.throttle.Locked(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
		return false
	}
	return locked
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if s.throttle == nil || key == "" {
		return
	}
	if err := s.throttle.RecordFailure(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login failure")
	}
}

// identityThrottleKey cannot collide with an email key, which always holds an @.
func identityThrottleKey(id string) string {
	return "id:" + id
}

func (s *AuthService) resetFailures(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to reset login failures")
	}
}
