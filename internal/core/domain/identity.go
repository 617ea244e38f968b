package domain

import "time"

// Identity is a registered user as seen by the authentication core.
type Identity struct {
	ID           string
	Name         string
	Email        Email
	PasswordHash PasswordHash
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ChangeEmail replaces the address with an already-parsed one.
func (i *Identity) ChangeEmail(email Email, now time.Time) {
	i.Email = email
	i.UpdatedAt = now
}

// ChangePassword replaces the stored hash.
func (i *Identity) ChangePassword(hash PasswordHash, now time.Time) {
	i.PasswordHash = hash
	i.UpdatedAt = now
}

// ChangeRole assigns a defined role; the unset sentinel is rejected.
func (i *Identity) ChangeRole(role Role, now time.Time) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	i.Role = role
	i.UpdatedAt = now
	return nil
}
