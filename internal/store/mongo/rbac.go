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

type permissionDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d permissionDoc) toDomain() rbac.Permission {
	return rbac.Permission{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type roleDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Title       string               `bson:"title"`
	Permissions []primitive.ObjectID `bson:"permissions"`
	ParentRole  primitive.ObjectID   `bson:"parentRole,omitempty"`
	Description string               `bson:"description,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func (d roleDoc) toDomain() rbac.Role {
	parent := ""
	if !d.ParentRole.IsZero() {
		parent = d.ParentRole.Hex()
	}
	return rbac.Role{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Permissions: hexIDs(d.Permissions),
		ParentRole:  parent,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

// --- rbac.PermissionStore ---

type PermissionStore struct {
	collection *mongo.Collection
}

func (s *Store) Permissions() *PermissionStore {
	return &PermissionStore{collection: s.database.Collection(permissionsCollection)}
}

func (p *PermissionStore) Create(ctx context.Context, perm *rbac.Permission) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	doc := permissionDoc{
		ID:          primitive.NewObjectID(),
		Title:       perm.Title,
		Description: perm.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := p.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rbac.ErrConflict
		}
		return err
	}
	*perm = doc.toDomain()
	return nil
}

func (p *PermissionStore) FindByID(ctx context.Context, id string) (*rbac.Permission, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc permissionDoc
	if err := p.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	perm := doc.toDomain()
	return &perm, nil
}

func (p *PermissionStore) FindByTitle(ctx context.Context, title string) (*rbac.Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc permissionDoc
	if err := p.collection.FindOne(ctx, bson.M{"title": title}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	perm := doc.toDomain()
	return &perm, nil
}

func (p *PermissionStore) FindByIDs(ctx context.Context, ids []string) ([]rbac.Permission, error) {
	oids, err := objectIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(oids) == 0 {
		return []rbac.Permission{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := p.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var docs []permissionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]rbac.Permission, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

func (p *PermissionStore) List(ctx context.Context) ([]rbac.Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := p.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var docs []permissionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]rbac.Permission, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

func (p *PermissionStore) Update(ctx context.Context, perm *rbac.Permission) error {
	oid, err := primitive.ObjectIDFromHex(perm.ID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	perm.UpdatedAt = time.Now().UTC()
	_, err = p.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":       perm.Title,
		"description": perm.Description,
		"updatedAt":   perm.UpdatedAt,
	}})
	if mongo.IsDuplicateKeyError(err) {
		return rbac.ErrConflict
	}
	return err
}

func (p *PermissionStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = p.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// --- rbac.RoleStore ---

type RoleStore struct {
	collection *mongo.Collection
}

func (s *Store) Roles() *RoleStore {
	return &RoleStore{collection: s.database.Collection(rolesCollection)}
}

func (r *RoleStore) docFromDomain(role *rbac.Role) (roleDoc, error) {
	perms, err := objectIDs(role.Permissions)
	if err != nil {
		return roleDoc{}, err
	}
	doc := roleDoc{
		Title:       role.Title,
		Permissions: perms,
		Description: role.Description,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
	if role.ParentRole != "" {
		parent, err := primitive.ObjectIDFromHex(role.ParentRole)
		if err != nil {
			return roleDoc{}, err
		}
		doc.ParentRole = parent
	}
	return doc, nil
}

func (r *RoleStore) Create(ctx context.Context, role *rbac.Role) error {
	doc, err := r.docFromDomain(role)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rbac.ErrConflict
		}
		return err
	}
	*role = doc.toDomain()
	return nil
}

func (r *RoleStore) FindByID(ctx context.Context, id string) (*rbac.Role, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc roleDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	role := doc.toDomain()
	return &role, nil
}

func (r *RoleStore) FindByTitle(ctx context.Context, title string) (*rbac.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc roleDoc
	if err := r.collection.FindOne(ctx, bson.M{"title": title}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	role := doc.toDomain()
	return &role, nil
}

func (r *RoleStore) FindByIDs(ctx context.Context, ids []string) ([]rbac.Role, error) {
	oids, err := objectIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(oids) == 0 {
		return []rbac.Role{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var docs []roleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]rbac.Role, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

func (r *RoleStore) List(ctx context.Context) ([]rbac.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var docs []roleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]rbac.Role, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

func (r *RoleStore) Update(ctx context.Context, role *rbac.Role) error {
	oid, err := primitive.ObjectIDFromHex(role.ID)
	if err != nil {
		return err
	}
	doc, err := r.docFromDomain(role)
	if err != nil {
		return err
	}
	doc.ID = oid
	doc.UpdatedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result := r.collection.FindOneAndReplace(ctx, bson.M{"_id": oid}, doc)
	if err := result.Err(); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rbac.ErrConflict
		}
		return err
	}
	role.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *RoleStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
