// Package mongo implements every store interface against MongoDB. Documents
// use ObjectID primary keys; the services see them as 24-hex strings, which
// is also the id shape URL normalization recognizes.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/plumeblog/plume/internal/config"
)

const (
	databaseName = "plume"

	permissionsCollection = "permissions"
	rolesCollection       = "roles"
	usersCollection       = "users"
	bansCollection        = "bans"
	routesCollection      = "settings_routes"
	tokensCollection      = "tokens"
	categoriesCollection  = "categories"
	tagsCollection        = "tags"
	postsCollection       = "posts"
)

const queryTimeout = 5 * time.Second

// Store wraps the database handle; sub-stores share it.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
}

func NewStore(ctx context.Context, cfg config.MongoDBConfig) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	s := &Store{client: client, database: client.Database(databaseName)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureIndexes creates the uniqueness constraints the registries rely on:
// the service-level duplicate checks are check-then-act and only these
// indexes close the race.
func (s *Store) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	unique := options.Index().SetUnique(true)
	for collection, keys := range map[string]bson.D{
		permissionsCollection: {{Key: "title", Value: 1}},
		rolesCollection:       {{Key: "title", Value: 1}},
		usersCollection:       {{Key: "email", Value: 1}},
		tokensCollection:      {{Key: "user", Value: 1}},
	} {
		_, err := s.database.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    keys,
			Options: unique,
		})
		if err != nil {
			return err
		}
	}
	_, err := s.database.Collection(routesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "routeUrl", Value: 1}, {Key: "method", Value: 1}},
		Options: unique,
	})
	return err
}

// Disconnect closes the underlying client.
func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies database connectivity (readiness probe).
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return s.client.Ping(ctx, nil)
}
