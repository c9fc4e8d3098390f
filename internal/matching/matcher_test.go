package matching

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockbetter/pkg/config"
	"github.com/getmockd/mockbetter/pkg/jsonvalue"
)

func route(method, path, code string) config.Route {
	return config.Route{Method: method, Path: path, Code: code, Body: jsonvalue.Null()}
}

func TestMatcher_Match(t *testing.T) {
	t.Parallel()

	global := config.Headers{{Name: "Content-Type", Value: "application/json"}}

	tests := []struct {
		name      string
		routes    []config.Route
		method    string
		path      string
		wantIndex int // -1 = no match
	}{
		{
			name:      "exact method and substring path",
			routes:    []config.Route{route("GET", "/users", "200")},
			method:    "GET",
			path:      "/t1/users/42",
			wantIndex: 0,
		},
		{
			name:      "method mismatch",
			routes:    []config.Route{route("POST", "/users", "200")},
			method:    "GET",
			path:      "/t1/users",
			wantIndex: -1,
		},
		{
			name:      "ANY matches every method",
			routes:    []config.Route{route("ANY", "users", "200")},
			method:    "DELETE",
			path:      "/t1/users",
			wantIndex: 0,
		},
		{
			name:      "method is case sensitive",
			routes:    []config.Route{route("get", "/users", "200")},
			method:    "GET",
			path:      "/t1/users",
			wantIndex: -1,
		},
		{
			name:      "anchored pattern sees the tenant segment",
			routes:    []config.Route{route("GET", "^/users", "200"), route("GET", "^/t1/users$", "201")},
			method:    "GET",
			path:      "/t1/users",
			wantIndex: 1,
		},
		{
			name:      "first registered wins over later matches",
			routes:    []config.Route{route("ANY", "/a", "200"), route("GET", "/a/b", "201")},
			method:    "GET",
			path:      "/t/a/b",
			wantIndex: 0,
		},
		{
			name:      "empty path matches everything",
			routes:    []config.Route{route("GET", "", "200")},
			method:    "GET",
			path:      "/t/anything",
			wantIndex: 0,
		},
		{
			name:      "empty method never matches",
			routes:    []config.Route{route("", "", "200")},
			method:    "GET",
			path:      "/t",
			wantIndex: -1,
		},
		{
			name:      "no routes",
			method:    "GET",
			path:      "/t",
			wantIndex: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewMatcher()
			res, err := m.Match(tt.routes, global, tt.method, tt.path)
			require.NoError(t, err)
			if tt.wantIndex < 0 {
				assert.Nil(t, res)
				return
			}
			require.NotNil(t, res)
			assert.Equal(t, tt.wantIndex, res.Index)
			assert.Equal(t, tt.routes[tt.wantIndex].Code, res.Route.Code)
		})
	}
}

func TestMatcher_MergesHeaders(t *testing.T) {
	t.Parallel()

	global := config.Headers{{Name: "Content-Type", Value: "application/json"}, {Name: "X-Global", Value: "g"}}
	r := route("GET", "/x", "200")
	r.Headers = config.Headers{{Name: "Content-Type", Value: "text/plain"}, {Name: "X-Route", Value: "r"}}

	res, err := NewMatcher().Match([]config.Route{r}, global, "GET", "/t/x")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, config.Headers{
		{Name: "Content-Type", Value: "text/plain"},
		{Name: "X-Global", Value: "g"},
		{Name: "X-Route", Value: "r"},
	}, res.Headers)
	assert.Equal(t, "application/json", global[0].Value)
}

func TestMatcher_InvalidPattern(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	routes := []config.Route{route("POST", "(", "200"), route("GET", "(", "200"), route("GET", "/ok", "201")}

	// the broken route is only reached when its method matches
	res, err := m.Match(routes[:1], nil, "GET", "/t/ok")
	require.NoError(t, err)
	assert.Nil(t, res)

	_, err = m.Match(routes, nil, "GET", "/t/ok")
	var perr *PatternError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "(", perr.Pattern)
	assert.Contains(t, err.Error(), "invalid route path pattern")
}

func TestPatternCache(t *testing.T) {
	t.Parallel()

	t.Run("reuses compiled patterns", func(t *testing.T) {
		t.Parallel()
		c := NewPatternCache(0)
		a, err := c.Compile(`^/a\d+`)
		require.NoError(t, err)
		b, err := c.Compile(`^/a\d+`)
		require.NoError(t, err)
		assert.Same(t, a, b)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("caches errors", func(t *testing.T) {
		t.Parallel()
		c := NewPatternCache(0)
		_, err1 := c.Compile("[")
		_, err2 := c.Compile("[")
		assert.Error(t, err1)
		assert.Equal(t, err1, err2)
	})

	t.Run("flushes when full", func(t *testing.T) {
		t.Parallel()
		c := NewPatternCache(2)
		for _, p := range []string{"a", "b", "c"} {
			_, err := c.Compile(p)
			require.NoError(t, err)
		}
		assert.Equal(t, 1, c.Len())
	})

	t.Run("concurrent use", func(t *testing.T) {
		t.Parallel()
		c := NewPatternCache(0)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := c.MatchPathPattern(`/x/\d+`, "/t/x/12")
				assert.NoError(t, err)
				assert.True(t, ok)
			}()
		}
		wg.Wait()
	})
}
