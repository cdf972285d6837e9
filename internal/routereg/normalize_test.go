package routereg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func slugSet(slugs ...string) func(string) bool {
	set := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		set[s] = struct{}{}
	}
	return func(segment string) bool {
		_, ok := set[segment]
		return ok
	}
}

func TestNormalize(t *testing.T) {
	knownSlug := slugSet("golang", "how-to-ban-users")

	cases := []struct {
		name     string
		path     string
		template string
		params   string
	}{
		{"static", "/api/user/login", "/api/user/login", ""},
		{"object id", "/api/post/64f000000000000000000001", "/api/post/:id", ParamID},
		{"uuid", "/api/user/activate/0d1f3c0a-9c63-4a7e-a1d0-8a2d6a5b3c11", "/api/user/activate/:link", ParamLink},
		{"slug", "/api/category/golang", "/api/category/:slug", ParamSlug},
		{"nested id", "/api/user/64f000000000000000000001/role", "/api/user/:id/role", ParamID},
		{"query stripped", "/api/post/64f000000000000000000001?draft=1", "/api/post/:id", ParamID},
		{"unknown word stays", "/api/category/rust", "/api/category/rust", ""},
		{"root", "/", "/", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			template, params := Normalize(c.path, knownSlug)
			assert.Equal(t, c.template, template)
			assert.Equal(t, c.params, params)
		})
	}
}

func TestNormalizeLastPlaceholderWins(t *testing.T) {
	// two dynamic segments: params reports the one that fired last
	template, params := Normalize("/api/post/64f000000000000000000001/comment/64f000000000000000000002", slugSet())
	assert.Equal(t, "/api/post/:id/comment/:id", template)
	assert.Equal(t, ParamID, params)

	template, params = Normalize("/api/category/golang/post/64f000000000000000000001", slugSet("golang"))
	assert.Equal(t, "/api/category/:slug/post/:id", template)
	assert.Equal(t, ParamID, params)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	knownSlug := slugSet("golang")
	paths := []string{
		"/api/post/64f000000000000000000001",
		"/api/user/activate/0d1f3c0a-9c63-4a7e-a1d0-8a2d6a5b3c11",
		"/api/category/golang",
		"/api/user/login",
	}
	for _, p := range paths {
		once, params1 := Normalize(p, knownSlug)
		twice, params2 := Normalize(once, knownSlug)
		assert.Equal(t, once, twice, p)
		assert.Equal(t, params1, params2, p)
	}
}

func TestNormalizeRejectsNonCanonicalUUIDForms(t *testing.T) {
	// uuid.Parse accepts braced and bare forms; URL segments must not
	for _, p := range []string{
		"/x/{0d1f3c0a-9c63-4a7e-a1d0-8a2d6a5b3c11}",
		"/x/0d1f3c0a9c634a7ea1d08a2d6a5b3c11",
	} {
		template, params := Normalize(p, nil)
		assert.Equal(t, p, template)
		assert.Equal(t, "", params)
	}
}

func TestNormalizeUUIDVersionMatters(t *testing.T) {
	// a v1 uuid is not a link
	template, params := Normalize("/x/9a8b7c6d-1e2f-11ee-be56-0242ac120002", nil)
	assert.Equal(t, "/x/9a8b7c6d-1e2f-11ee-be56-0242ac120002", template)
	assert.Equal(t, "", params)
}
