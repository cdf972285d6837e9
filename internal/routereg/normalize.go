package routereg

import (
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Placeholder values used in route templates and the Params field.
const (
	ParamID   = ":id"
	ParamLink = ":link"
	ParamSlug = ":slug"
)

// Normalize turns a concrete request path into its route template. The query
// string is stripped, then each segment is classified in order: uuid-v4 →
// :link, 24-hex ObjectID → :id, known slug → :slug. The returned params
// value is the placeholder that fired last ("" when the path is static),
// matching how registry entries record their dynamic segment.
//
// Normalization is idempotent: placeholders themselves classify as none of
// the three shapes.
func Normalize(path string, knownSlug func(string) bool) (template, params string) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		switch {
		case isUUIDv4(segment):
			segments[i] = ParamLink
			params = ParamLink
		case isObjectIDHex(segment):
			segments[i] = ParamID
			params = ParamID
		case knownSlug != nil && knownSlug(segment):
			segments[i] = ParamSlug
			params = ParamSlug
		}
	}
	return strings.Join(segments, "/"), params
}

func isUUIDv4(s string) bool {
	// Only the canonical hyphenated form counts: uuid.Parse also accepts
	// braced and bare-hex forms that never appear in URLs.
	if len(s) != 36 {
		return false
	}
	u, err := uuid.Parse(s)
	return err == nil && u.Version() == 4
}

func isObjectIDHex(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}
