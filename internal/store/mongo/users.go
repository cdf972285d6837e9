package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/plumeblog/plume/internal/rbac"
)

type userDoc struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	Email          string               `bson:"email"`
	Password       string               `bson:"password"`
	Roles          []primitive.ObjectID `bson:"roles"`
	BanList        []primitive.ObjectID `bson:"banList,omitempty"`
	IsActivated    bool                 `bson:"isActivated"`
	ActivationLink string               `bson:"activationLink,omitempty"`
	ActivatedAt    time.Time            `bson:"activatedAt,omitempty"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

func (d userDoc) toDomain() rbac.User {
	return rbac.User{
		ID:             d.ID.Hex(),
		Email:          d.Email,
		PasswordHash:   d.Password,
		Roles:          hexIDs(d.Roles),
		BanList:        hexIDs(d.BanList),
		IsActivated:    d.IsActivated,
		ActivationLink: d.ActivationLink,
		ActivatedAt:    d.ActivatedAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type UserStore struct {
	collection *mongo.Collection
}

func (s *Store) Users() *UserStore {
	return &UserStore{collection: s.database.Collection(usersCollection)}
}

func (u *UserStore) Create(ctx context.Context, user *rbac.User) error {
	roles, err := objectIDs(user.Roles)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	doc := userDoc{
		ID:             primitive.NewObjectID(),
		Email:          user.Email,
		Password:       user.PasswordHash,
		Roles:          roles,
		IsActivated:    user.IsActivated,
		ActivationLink: user.ActivationLink,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if _, err := u.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rbac.ErrConflict
		}
		return err
	}
	*user = doc.toDomain()
	return nil
}

func (u *UserStore) findOne(ctx context.Context, filter bson.M) (*rbac.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc userDoc
	if err := u.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	user := doc.toDomain()
	return &user, nil
}

func (u *UserStore) FindByID(ctx context.Context, id string) (*rbac.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return u.findOne(ctx, bson.M{"_id": oid})
}

func (u *UserStore) FindByEmail(ctx context.Context, email string) (*rbac.User, error) {
	return u.findOne(ctx, bson.M{"email": email})
}

func (u *UserStore) FindByActivationLink(ctx context.Context, link string) (*rbac.User, error) {
	return u.findOne(ctx, bson.M{"activationLink": link})
}

func (u *UserStore) List(ctx context.Context) ([]rbac.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := u.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]rbac.User, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

func (u *UserStore) Activate(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = u.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"isActivated": true,
		"activatedAt": time.Now().UTC(),
		"updatedAt":   time.Now().UTC(),
	}})
	return err
}

// AssignRole uses $addToSet, so user.roles keeps set semantics at the
// storage layer even under concurrent assignment.
func (u *UserStore) AssignRole(ctx context.Context, userID, roleID string) error {
	return u.pushUpdate(ctx, userID, roleID, "$addToSet", "roles")
}

func (u *UserStore) RemoveRole(ctx context.Context, userID, roleID string) error {
	return u.pushUpdate(ctx, userID, roleID, "$pull", "roles")
}

func (u *UserStore) AddBan(ctx context.Context, userID, banID string) error {
	return u.pushUpdate(ctx, userID, banID, "$push", "banList")
}

func (u *UserStore) pushUpdate(ctx context.Context, userID, refID, op, field string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}
	rid, err := primitive.ObjectIDFromHex(refID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = u.collection.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{
		op:     bson.M{field: rid},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	return err
}
