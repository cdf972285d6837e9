package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SlugSource reads the slug fields of the slugged content collections. The
// route registry rebuilds its slug index from this view and patches it
// incrementally on content changes.
type SlugSource struct {
	store *Store
}

func (s *Store) SlugSource() *SlugSource {
	return &SlugSource{store: s}
}

var sluggedCollections = []string{
	categoriesCollection,
	tagsCollection,
	postsCollection,
}

func (s *SlugSource) Slugs(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	for _, name := range sluggedCollections {
		if err := s.collect(ctx, name, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SlugSource) collect(ctx context.Context, collection string, out map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := s.store.database.Collection(collection).Find(ctx,
		bson.M{"slug": bson.M{"$exists": true, "$ne": ""}},
		options.Find().SetProjection(bson.M{"slug": 1}),
	)
	if err != nil {
		return err
	}
	var docs []struct {
		ID   primitive.ObjectID `bson:"_id"`
		Slug string             `bson:"slug"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return err
	}
	for _, doc := range docs {
		out[doc.ID.Hex()] = doc.Slug
	}
	return nil
}
