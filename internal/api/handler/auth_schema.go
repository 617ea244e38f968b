package handler

import (
	"time"

	"github.com/motoconnect/auth-service/internal/core/domain"
)

// messageResponse is the envelope returned on all 4xx/5xx responses.
type messageResponse struct {
	Message string `json:"message"`
}

// --- Request / Response types ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"omitempty,oneof=user mechanic admin"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
}

type changeEmailRequest struct {
	Email string `json:"email" validate:"required"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user mechanic admin"`
}

type identityResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Token    string           `json:"token"`
	Identity identityResponse `json:"identity"`
}

// toIdentityResponse is the only place an identity is serialised; the hash
// never leaves the core.
func toIdentityResponse(i *domain.Identity) identityResponse {
	return identityResponse{
		ID:        i.ID,
		Name:      i.Name,
		Email:     i.Email.Address(),
		Role:      i.Role.String(),
		CreatedAt: formatTime(i.CreatedAt),
		UpdatedAt: formatTime(i.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
