package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/motoconnect/auth-service/internal/core/domain"
	"github.com/motoconnect/auth-service/internal/core/ports"
)

const identityCollection = "identities"

// IdentityRepository implements ports.IdentityRepository using MongoDB.
type IdentityRepository struct {
	coll *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{coll: db.Collection(identityCollection)}
}

var _ ports.IdentityRepository = (*IdentityRepository)(nil)

// identityDocument is the stored form of domain.Identity.
type identityDocument struct {
	ID           string `bson:"_id"`
	Name         string `bson:"name"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
	Role         string `bson:"role"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

// EnsureIndexes creates the unique email index that makes registration safe
// against concurrent duplicates.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	if _, err := r.coll.InsertOne(ctx, toDocument(identity)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (r *IdentityRepository) Update(ctx context.Context, identity *domain.Identity) error {
	doc := toDocument(identity)
	update := bson.M{"$set": bson.M{
		"name":          doc.Name,
		"email":         doc.Email,
		"password_hash": doc.PasswordHash,
		"role":          doc.Role,
		"updated_at":    doc.UpdatedAt,
	}}

	res, err := r.coll.UpdateByID(ctx, identity.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("update identity: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email domain.Email) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"email": email.Address()})
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	var doc identityDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return fromDocument(doc)
}

func toDocument(identity *domain.Identity) identityDocument {
	return identityDocument{
		ID:           identity.ID,
		Name:         identity.Name,
		Email:        identity.Email.Address(),
		PasswordHash: identity.PasswordHash.Encoded(),
		Role:         identity.Role.String(),
		CreatedAt:    identity.CreatedAt.Unix(),
		UpdatedAt:    identity.UpdatedAt.Unix(),
	}
}

// fromDocument rebuilds the value objects. A stored email that no longer
// parses is reported as domain.ErrCorruptIdentity; a malformed hash is kept
// as-is and simply never verifies.
func fromDocument(doc identityDocument) (*domain.Identity, error) {
	email, err := domain.ParseEmail(doc.Email)
	if err != nil {
		return nil, fmt.Errorf("identity %s: stored email: %w: %w", doc.ID, domain.ErrCorruptIdentity, err)
	}
	return &domain.Identity{
		ID:           doc.ID,
		Name:         doc.Name,
		Email:        email,
		PasswordHash: domain.PasswordHashFromEncoded(doc.PasswordHash),
		Role:         domain.Role(doc.Role),
		CreatedAt:    unixToTime(doc.CreatedAt),
		UpdatedAt:    unixToTime(doc.UpdatedAt),
	}, nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
