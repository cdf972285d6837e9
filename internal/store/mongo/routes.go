package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/plumeblog/plume/internal/routereg"
)

type routeDoc struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	RouteURL       string               `bson:"routeUrl"`
	Method         string               `bson:"method"`
	Description    string               `bson:"description,omitempty"`
	Params         string               `bson:"params,omitempty"`
	Controller     string               `bson:"controller,omitempty"`
	AccessPermList []primitive.ObjectID `bson:"accessPermList"`
	AccessRoleList []primitive.ObjectID `bson:"accessRoleList"`
	IsCheckAuth    bool                 `bson:"isCheckAuth"`
	IsCheckBan     bool                 `bson:"isCheckBan"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

func (d routeDoc) toDomain() routereg.Route {
	return routereg.Route{
		ID:             d.ID.Hex(),
		RouteURL:       d.RouteURL,
		Method:         d.Method,
		Description:    d.Description,
		Params:         d.Params,
		Controller:     d.Controller,
		AccessPermList: hexIDs(d.AccessPermList),
		AccessRoleList: hexIDs(d.AccessRoleList),
		IsCheckAuth:    d.IsCheckAuth,
		IsCheckBan:     d.IsCheckBan,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type RouteStore struct {
	collection *mongo.Collection
}

func (s *Store) Routes() *RouteStore {
	return &RouteStore{collection: s.database.Collection(routesCollection)}
}

func (r *RouteStore) docFromDomain(route *routereg.Route) (routeDoc, error) {
	perms, err := objectIDs(route.AccessPermList)
	if err != nil {
		return routeDoc{}, err
	}
	roles, err := objectIDs(route.AccessRoleList)
	if err != nil {
		return routeDoc{}, err
	}
	return routeDoc{
		RouteURL:       route.RouteURL,
		Method:         route.Method,
		Description:    route.Description,
		Params:         route.Params,
		Controller:     route.Controller,
		AccessPermList: perms,
		AccessRoleList: roles,
		IsCheckAuth:    route.IsCheckAuth,
		IsCheckBan:     route.IsCheckBan,
	}, nil
}

func (r *RouteStore) Create(ctx context.Context, route *routereg.Route) error {
	doc, err := r.docFromDomain(route)
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
			return routereg.ErrConflict
		}
		return err
	}
	*route = doc.toDomain()
	return nil
}

func (r *RouteStore) FindByID(ctx context.Context, id string) (*routereg.Route, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *RouteStore) Find(ctx context.Context, routeURL, method string) (*routereg.Route, error) {
	return r.findOne(ctx, bson.M{"routeUrl": routeURL, "method": method})
}

func (r *RouteStore) findOne(ctx context.Context, filter bson.M) (*routereg.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc routeDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	route := doc.toDomain()
	return &route, nil
}

func (r *RouteStore) List(ctx context.Context) ([]routereg.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var docs []routeDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]routereg.Route, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

func (r *RouteStore) Update(ctx context.Context, route *routereg.Route) error {
	oid, err := primitive.ObjectIDFromHex(route.ID)
	if err != nil {
		return err
	}
	doc, err := r.docFromDomain(route)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	route.UpdatedAt = time.Now().UTC()
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"description":    doc.Description,
		"controller":     doc.Controller,
		"accessPermList": doc.AccessPermList,
		"accessRoleList": doc.AccessRoleList,
		"isCheckAuth":    doc.IsCheckAuth,
		"isCheckBan":     doc.IsCheckBan,
		"updatedAt":      route.UpdatedAt,
	}})
	return err
}

func (r *RouteStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
