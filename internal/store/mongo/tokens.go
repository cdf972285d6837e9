package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/plumeblog/plume/internal/auth"
)

type tokenDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	User         primitive.ObjectID `bson:"user"`
	RefreshToken string             `bson:"refreshToken"`
	IP           string             `bson:"ip,omitempty"`
	Fingerprint  string             `bson:"fingerprint,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d tokenDoc) toDomain() auth.TokenRecord {
	return auth.TokenRecord{
		ID:           d.ID.Hex(),
		UserID:       d.User.Hex(),
		RefreshToken: d.RefreshToken,
		IP:           d.IP,
		Fingerprint:  d.Fingerprint,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type TokenStore struct {
	collection *mongo.Collection
}

func (s *Store) Tokens() *TokenStore {
	return &TokenStore{collection: s.database.Collection(tokensCollection)}
}

// Upsert replaces the user's refresh token record in place. The unique index
// on user guarantees one live session record per user.
func (t *TokenStore) Upsert(ctx context.Context, record auth.TokenRecord) error {
	uid, err := primitive.ObjectIDFromHex(record.UserID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	_, err = t.collection.UpdateOne(ctx,
		bson.M{"user": uid},
		bson.M{
			"$set": bson.M{
				"refreshToken": record.RefreshToken,
				"ip":           record.IP,
				"fingerprint":  record.Fingerprint,
				"updatedAt":    now,
			},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (t *TokenStore) FindByToken(ctx context.Context, token string) (*auth.TokenRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc tokenDoc
	if err := t.collection.FindOne(ctx, bson.M{"refreshToken": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	record := doc.toDomain()
	return &record, nil
}

func (t *TokenStore) DeleteByToken(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := t.collection.DeleteOne(ctx, bson.M{"refreshToken": token})
	return err
}
