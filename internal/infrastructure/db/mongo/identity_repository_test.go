package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/motoconnect/auth-service/internal/core/domain"
)

func TestDocumentMapping_RoundTrip(t *testing.T) {
	email, err := domain.ParseEmail("Ana@x.com")
	if err != nil {
		t.Fatalf("parse email: %v", err)
	}
	hash, err := domain.NewPasswordHashWithIterations("abcd12", 1000)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	identity := &domain.Identity{
		ID:           "id-1",
		Name:         "Ana",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleMechanic,
		CreatedAt:    created,
		UpdatedAt:    created.Add(time.Hour),
	}

	doc := toDocument(identity)
	if doc.Email != "Ana@x.com" || doc.PasswordHash != hash.Encoded() || doc.Role != "mechanic" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	back, err := fromDocument(doc)
	if err != nil {
		t.Fatalf("fromDocument: %v", err)
	}
	if back.ID != identity.ID || back.Email != identity.Email || back.Role != identity.Role {
		t.Fatalf("round trip mismatch: %+v", back)
	}
	if !back.CreatedAt.Equal(created) || !back.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Fatalf("timestamps mismatch: %v %v", back.CreatedAt, back.UpdatedAt)
	}
	if !back.PasswordHash.Verify("abcd12") {
		t.Fatalf("stored hash does not verify after round trip")
	}
}

func TestFromDocument_MalformedHashIsKept(t *testing.T) {
	back, err := fromDocument(identityDocument{ID: "id-2", Email: "b@x.com", PasswordHash: "garbage"})
	if err != nil {
		t.Fatalf("fromDocument: %v", err)
	}
	if back.PasswordHash.Verify("anything1") {
		t.Fatalf("malformed hash must never verify")
	}
	if !back.CreatedAt.IsZero() {
		t.Fatalf("expected zero created_at for missing timestamp")
	}
}

func TestFromDocument_InvalidEmail(t *testing.T) {
	_, err := fromDocument(identityDocument{ID: "id-3", Email: "broken"})
	if !errors.Is(err, domain.ErrCorruptIdentity) {
		t.Fatalf("expected ErrCorruptIdentity, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("expected the parse error to stay wrapped, got %v", err)
	}
}
