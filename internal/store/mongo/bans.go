package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/plumeblog/plume/internal/ban"
)

type banDoc struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	BannedUserID   primitive.ObjectID   `bson:"bannedUserID"`
	BanIssuedUser  primitive.ObjectID   `bson:"banIssuedUserID"`
	BanType        string               `bson:"banType"`
	BanPermissions []primitive.ObjectID `bson:"banPermissions,omitempty"`
	BanStart       time.Time            `bson:"banStart"`
	BanDuration    string               `bson:"banDuration"`
	BanExpire      time.Time            `bson:"banExpire"`
	Lifted         bool                 `bson:"lifted"`
	Description    string               `bson:"description,omitempty"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

func (d banDoc) toDomain() ban.Ban {
	return ban.Ban{
		ID:             d.ID.Hex(),
		BannedUserID:   d.BannedUserID.Hex(),
		BanIssuedUser:  d.BanIssuedUser.Hex(),
		BanType:        d.BanType,
		BanPermissions: hexIDs(d.BanPermissions),
		BanStart:       d.BanStart,
		BanDuration:    d.BanDuration,
		BanExpire:      d.BanExpire,
		Lifted:         d.Lifted,
		Description:    d.Description,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type BanStore struct {
	collection *mongo.Collection
}

func (s *Store) Bans() *BanStore {
	return &BanStore{collection: s.database.Collection(bansCollection)}
}

func (b *BanStore) Create(ctx context.Context, record *ban.Ban) error {
	banned, err := primitive.ObjectIDFromHex(record.BannedUserID)
	if err != nil {
		return err
	}
	issuer, err := primitive.ObjectIDFromHex(record.BanIssuedUser)
	if err != nil {
		return err
	}
	perms, err := objectIDs(record.BanPermissions)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	doc := banDoc{
		ID:             primitive.NewObjectID(),
		BannedUserID:   banned,
		BanIssuedUser:  issuer,
		BanType:        record.BanType,
		BanPermissions: perms,
		BanStart:       record.BanStart,
		BanDuration:    record.BanDuration,
		BanExpire:      record.BanExpire,
		Lifted:         record.Lifted,
		Description:    record.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if _, err := b.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	*record = doc.toDomain()
	return nil
}

func (b *BanStore) FindByID(ctx context.Context, id string) (*ban.Ban, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc banDoc
	if err := b.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	record := doc.toDomain()
	return &record, nil
}

func (b *BanStore) ListForUser(ctx context.Context, userID string) ([]ban.Ban, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []ban.Ban{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := b.collection.Find(ctx, bson.M{"bannedUserID": oid})
	if err != nil {
		return nil, err
	}
	var docs []banDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]ban.Ban, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

func (b *BanStore) Update(ctx context.Context, record *ban.Ban) error {
	oid, err := primitive.ObjectIDFromHex(record.ID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	record.UpdatedAt = time.Now().UTC()
	_, err = b.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"lifted":      record.Lifted,
		"description": record.Description,
		"updatedAt":   record.UpdatedAt,
	}})
	return err
}
