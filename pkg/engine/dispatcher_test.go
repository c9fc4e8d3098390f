package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockbetter/internal/storage"
	"github.com/getmockd/mockbetter/pkg/config"
	"github.com/getmockd/mockbetter/pkg/jsonvalue"
	"github.com/getmockd/mockbetter/pkg/requestlog"
)

// ============================================================================
// Helpers
// ============================================================================

func newTestDispatcher(t *testing.T, opts ...storage.Option) *Dispatcher {
	t.Helper()
	store, err := storage.NewMemoryStore(opts...)
	require.NoError(t, err)
	return NewDispatcher(store)
}

func do(d *Dispatcher, method, path, body string) Response {
	return d.Dispatch(context.Background(), Request{Method: method, Path: path, Body: []byte(body)})
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func decodeArray(t *testing.T, data []byte) []any {
	t.Helper()
	var out []any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func tenantRoutes(t *testing.T, cfg []byte, tenant string) []any {
	t.Helper()
	tenants, ok := decode(t, cfg)["tenants"].(map[string]any)
	require.True(t, ok, "tenants is not an object")
	state, ok := tenants[tenant].(map[string]any)
	require.True(t, ok, "tenant %q missing", tenant)
	routes, _ := state["routes"].([]any)
	return routes
}

func assertError(t *testing.T, resp Response, message string) {
	t.Helper()
	assert.Equal(t, StatusError, resp.Status)
	assert.JSONEq(t, fmt.Sprintf(`{"message":%q}`, message), string(resp.Body))
}

// ============================================================================
// Administrative operations
// ============================================================================

func TestDispatch_ConfGet(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	resp := do(d, "GET", "/mock/conf", "")

	assert.Equal(t, "200", resp.Status)
	assert.JSONEq(t, string(jsonvalue.Encode(config.Defaults("mock"))), string(resp.Body))
	ct, ok := resp.Headers.Get("Content-Type")
	assert.True(t, ok)
	assert.Equal(t, "application/json", ct)
}

func TestDispatch_ConfMerge(t *testing.T) {
	t.Parallel()

	t.Run("merges objects recursively", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)

		resp := do(d, "PUT", "/mock/conf", `{"headers":{"X":"1"}}`)

		require.Equal(t, "200", resp.Status)
		headers := decode(t, resp.Body)["headers"].(map[string]any)
		assert.Equal(t, "application/json", headers["Content-Type"])
		assert.Equal(t, "1", headers["X"])
	})

	t.Run("unions arrays", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)

		do(d, "PUT", "/mock/conf", `{"a":[1,2]}`)
		resp := do(d, "PUT", "/mock/conf", `{"a":[2,3]}`)

		require.Equal(t, "200", resp.Status)
		assert.Equal(t, []any{1.0, 2.0, 3.0}, decode(t, resp.Body)["a"])
	})

	t.Run("global headers apply to every response", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/conf", `{"headers":{"X-Env":"test"}}`)

		for _, resp := range []Response{
			do(d, "GET", "/mock/conf", ""),
			do(d, "GET", "/t1/anything", ""),
			do(d, "PUT", "/mock/routes", `{}`),
		} {
			v, ok := resp.Headers.Get("X-Env")
			assert.True(t, ok)
			assert.Equal(t, "test", v)
		}
	})

	t.Run("rejects non-object bodies", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)

		for _, body := range []string{`"hello"`, `[1,2]`, `42`, ``, `not json`} {
			assertError(t, do(d, "PUT", "/mock/conf", body), "a json object is required")
		}
	})

	t.Run("rejected merge leaves state unchanged", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		before := do(d, "GET", "/mock/conf", "").Body

		resp := do(d, "PUT", "/mock/conf", `{"headers":{"X":1}}`)

		assert.Equal(t, StatusError, resp.Status)
		assert.Contains(t, decode(t, resp.Body)["message"], "headers.X")
		assert.JSONEq(t, string(before), string(do(d, "GET", "/mock/conf", "").Body))
	})

	t.Run("changing the prefix moves the admin surface", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)

		require.Equal(t, "200", do(d, "PUT", "/mock/conf", `{"prefix":"admin"}`).Status)

		assert.Equal(t, "200", do(d, "GET", "/admin/conf", "").Status)
		resp := do(d, "GET", "/mock/conf", "")
		assert.JSONEq(t, `{"message":"mock better"}`, string(resp.Body), "old prefix is mock traffic")
	})
}

func TestDispatch_Reset(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	do(d, "PUT", "/mock/conf", `{"default":{"mode":"dump"},"extra":true}`)
	do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"/x","code":"200"}`)
	do(d, "GET", "/t2/y", "")

	resp := do(d, "PUT", "/mock/reset", "")

	require.Equal(t, "200", resp.Status)
	assert.JSONEq(t, string(jsonvalue.Encode(config.Defaults("mock"))), string(resp.Body))
}

func TestDispatch_Reset_RestoresSeed(t *testing.T) {
	t.Parallel()
	seed, err := jsonvalue.Parse([]byte(`{"tenants":{"t1":{"routes":[{"method":"GET","path":"/ping","code":"200","body":"pong"}]}}}`))
	require.NoError(t, err)
	d := newTestDispatcher(t, storage.WithSeed(seed))

	do(d, "DELETE", "/mock/routes/t1", `{}`)
	assert.Empty(t, tenantRoutes(t, do(d, "GET", "/mock/conf", "").Body, "t1"))

	resp := do(d, "PUT", "/mock/reset", "")

	assert.Len(t, tenantRoutes(t, resp.Body, "t1"), 1)
	assert.Equal(t, `"pong"`, string(do(d, "GET", "/t1/ping", "").Body))
}

func TestDispatch_RouteAdd(t *testing.T) {
	t.Parallel()

	t.Run("inserting the same identity twice keeps one route", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)

		do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"/x","code":"200","body":1}`)
		resp := do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"/x","code":"404","body":2}`)

		require.Equal(t, "200", resp.Status)
		routes := tenantRoutes(t, resp.Body, "t1")
		require.Len(t, routes, 1)
		assert.Equal(t, "200", routes[0].(map[string]any)["code"])
	})

	t.Run("requires an object body", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		assertError(t, do(d, "PUT", "/mock/routes/t1", `[]`), "a json object is required")
	})

	t.Run("requires a tenant", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		assertError(t, do(d, "PUT", "/mock/routes", `{"path":"/x"}`), "a tenant is required")
	})

	t.Run("body is checked before the tenant", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		assertError(t, do(d, "PUT", "/mock/routes", `"x"`), "a json object is required")
	})

	t.Run("invalid route is rejected without creating the tenant", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)

		resp := do(d, "PUT", "/mock/routes/t1", `{"method":5}`)

		assert.Equal(t, StatusError, resp.Status)
		tenants := decode(t, do(d, "GET", "/mock/conf", "").Body)["tenants"].(map[string]any)
		assert.NotContains(t, tenants, "t1")
	})

	t.Run("unknown keys are kept", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)

		resp := do(d, "PUT", "/mock/routes/t1", `{"path":"/x","code":"200","note":"hi"}`)

		routes := tenantRoutes(t, resp.Body, "t1")
		require.Len(t, routes, 1)
		assert.Equal(t, "hi", routes[0].(map[string]any)["note"])
	})
}

func TestDispatch_RouteDelete(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *Dispatcher {
		t.Helper()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"/a","code":"200"}`)
		do(d, "PUT", "/mock/routes/t1", `{"method":"POST","path":"/a","code":"200"}`)
		do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"/b","code":"200"}`)
		return d
	}

	tests := []struct {
		name      string
		criteria  string
		remaining int
	}{
		{name: "method and path", criteria: `{"method":"GET","path":"/a"}`, remaining: 2},
		{name: "path only", criteria: `{"path":"/a"}`, remaining: 1},
		{name: "method only", criteria: `{"method":"GET"}`, remaining: 1},
		{name: "empty criteria removes all", criteria: `{}`, remaining: 0},
		{name: "no match", criteria: `{"path":"/zzz"}`, remaining: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := setup(t)

			resp := do(d, "DELETE", "/mock/routes/t1", tt.criteria)

			require.Equal(t, "200", resp.Status)
			assert.Len(t, tenantRoutes(t, resp.Body, "t1"), tt.remaining)
		})
	}

	t.Run("requires an object body", func(t *testing.T) {
		t.Parallel()
		assertError(t, do(setup(t), "DELETE", "/mock/routes/t1", ``), "a json object is required")
	})

	t.Run("requires a tenant", func(t *testing.T) {
		t.Parallel()
		assertError(t, do(setup(t), "DELETE", "/mock/routes", `{}`), "a tenant is required")
	})
}

func TestDispatch_History(t *testing.T) {
	t.Parallel()

	t.Run("records mock traffic in arrival order", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"/hit","code":"200"}`)

		do(d, "GET", "/t1/hit", "")
		do(d, "POST", "/t1/miss", `{"n":1}`)
		do(d, "DELETE", "/t1/hit/", "")

		resp := do(d, "GET", "/mock/history/t1", "")

		require.Equal(t, "200", resp.Status)
		assert.JSONEq(t, `[
			{"method":"GET","body":null,"path":"/hit"},
			{"method":"POST","body":{"n":1},"path":"/miss"},
			{"method":"DELETE","body":null,"path":"/hit"}
		]`, string(resp.Body))
	})

	t.Run("requires a tenant", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		assertError(t, do(d, "GET", "/mock/history", ""), "a tenant is required")
		assertError(t, do(d, "DELETE", "/mock/history", ""), "a tenant is required")
	})

	t.Run("clear empties the history and returns the config", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "GET", "/t1/x", "")

		resp := do(d, "DELETE", "/mock/history/t1", "")

		require.Equal(t, "200", resp.Status)
		state := decode(t, resp.Body)["tenants"].(map[string]any)["t1"].(map[string]any)
		assert.Empty(t, state["history"])
		assert.Equal(t, "[]", string(do(d, "GET", "/mock/history/t1", "").Body))
	})

	t.Run("unknown tenant has an empty history", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		assert.Equal(t, "[]", string(do(d, "GET", "/mock/history/nobody", "").Body))
	})

	t.Run("filters by query", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "GET", "/t1/a", "")
		do(d, "POST", "/t1/b", `{"name":"x"}`)
		do(d, "POST", "/t1/c", `{"name":"y"}`)

		tests := []struct {
			query string
			want  int
		}{
			{query: "method=POST", want: 2},
			{query: "path=/a", want: 1},
			{query: "limit=1", want: 1},
			{query: "filter=" + url.QueryEscape("$.body.name"), want: 2},
			{query: "where=" + url.QueryEscape(`body?.name == "y"`), want: 1},
		}
		for _, tt := range tests {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			resp := d.Dispatch(context.Background(), Request{Method: "GET", Path: "/mock/history/t1", Query: q})
			require.Equal(t, "200", resp.Status, tt.query)
			assert.Len(t, decodeArray(t, resp.Body), tt.want, tt.query)
		}
	})

	t.Run("invalid filters are errors", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)

		for _, q := range []url.Values{
			{QueryLimit: {"abc"}},
			{QueryLimit: {"-1"}},
			{QueryFilter: {"$.[[["}},
			{QueryWhere: {"method =="}},
		} {
			resp := d.Dispatch(context.Background(), Request{Method: "GET", Path: "/mock/history/t1", Query: q})
			assert.Equal(t, StatusError, resp.Status, q.Encode())
		}
	})
}

// ============================================================================
// Mock traffic
// ============================================================================

func TestDispatch_Mock(t *testing.T) {
	t.Parallel()

	t.Run("default policy answers unmatched requests", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)

		resp := do(d, "GET", "/t1/anything", "")

		assert.Equal(t, "200", resp.Status)
		assert.JSONEq(t, `{"message":"mock better"}`, string(resp.Body))
	})

	t.Run("requires a tenant", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		assertError(t, do(d, "GET", "/", ""), "a tenant is required")
	})

	t.Run("earlier route wins", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"/users","code":"200","body":"first"}`)
		do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"/users/1","code":"200","body":"second"}`)

		assert.Equal(t, `"first"`, string(do(d, "GET", "/t1/users/1", "").Body))
	})

	t.Run("ANY matches every method", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/routes/t1", `{"method":"ANY","path":"/x","code":201,"body":{"ok":true}}`)

		for _, m := range []string{"GET", "POST", "PATCH"} {
			resp := do(d, m, "/t1/x", "")
			assert.Equal(t, "201", resp.Status, m)
			assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
		}
	})

	t.Run("route path is searched in the full path", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"^/t1/orders/[0-9]+$","code":"200","body":"order"}`)

		assert.Equal(t, `"order"`, string(do(d, "GET", "/t1/orders/42", "").Body))
		assert.JSONEq(t, `{"message":"mock better"}`, string(do(d, "GET", "/t1/orders/abc", "").Body))
	})

	t.Run("route headers override global headers", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/conf", `{"headers":{"X-Global":"g"}}`)
		do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"/x","code":"200","headers":{"Content-Type":"text/plain","X-Route":"r"}}`)

		resp := do(d, "GET", "/t1/x", "")

		assert.Equal(t, config.Headers{
			{Name: "Content-Type", Value: "text/plain"},
			{Name: "X-Global", Value: "g"},
			{Name: "X-Route", Value: "r"},
		}, resp.Headers)
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/routes/a", `{"method":"GET","path":"/x","code":"418","body":"teapot"}`)
		do(d, "GET", "/a/x", "")

		resp := do(d, "GET", "/b/x", "")

		assert.Equal(t, "200", resp.Status)
		assert.Len(t, decodeArray(t, do(d, "GET", "/mock/history/a", "").Body), 1)
		assert.Len(t, decodeArray(t, do(d, "GET", "/mock/history/b", "").Body), 1)
		assert.Empty(t, tenantRoutes(t, do(d, "GET", "/mock/conf", "").Body, "b"))
	})

	t.Run("unsupported admin paths are mock traffic", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)

		do(d, "POST", "/mock/conf", `{}`)
		do(d, "GET", "/mock/routes/t1/extra", "")

		assert.Len(t, decodeArray(t, do(d, "GET", "/mock/history/mock", "").Body), 2)
	})
}

func TestDispatch_DefaultModes(t *testing.T) {
	t.Parallel()

	t.Run("dump", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/conf", `{"default":{"mode":"dump"}}`)

		resp := do(d, "GET", "/t1/foo/bar", "")

		assert.Equal(t, "200", resp.Status)
		assert.JSONEq(t, `{"path":"/foo/bar","method":"GET"}`, string(resp.Body))
	})

	t.Run("echo", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/conf", `{"default":{"mode":"echo"}}`)

		resp := do(d, "POST", "/t1/anything", `{"x":1}`)
		assert.Equal(t, "200", resp.Status)
		assert.JSONEq(t, `{"x":1}`, string(resp.Body))

		assert.Equal(t, "null", string(do(d, "POST", "/t1/anything", `not json`).Body))
	})

	t.Run("mock uses the configured code and body", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/conf", `{"default":{"code":"201","body":{"y":2}}}`)

		resp := do(d, "GET", "/t1/anything", "")

		assert.Equal(t, "201", resp.Status)
		assert.Equal(t, 2.0, decode(t, resp.Body)["y"])
	})
}

func TestApplyDefault(t *testing.T) {
	t.Parallel()

	body := jsonvalue.Int(1)
	headers := config.Headers{{Name: "Content-Type", Value: "application/json"}}

	tests := []struct {
		name       string
		def        config.Default
		wantStatus string
		wantBody   string
	}{
		{
			name:       "dump",
			def:        config.Default{Mode: config.ModeDump},
			wantStatus: "200",
			wantBody:   `{"path":"/foo/bar","method":"GET"}`,
		},
		{
			name:       "echo",
			def:        config.Default{Mode: config.ModeEcho},
			wantStatus: "200",
			wantBody:   `1`,
		},
		{
			name:       "mock",
			def:        config.Default{Mode: config.ModeMock, Code: "201", Body: mustValue(t, `{"y":2}`)},
			wantStatus: "201",
			wantBody:   `{"y":2}`,
		},
		{
			name:       "unknown mode behaves like mock",
			def:        config.Default{Mode: "other", Code: "204", Body: jsonvalue.Null()},
			wantStatus: "204",
			wantBody:   `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := ApplyDefault(tt.def, headers, "GET", []string{"foo", "bar"}, body)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.JSONEq(t, tt.wantBody, string(resp.Body))
			assert.Equal(t, headers, resp.Headers)
		})
	}
}

func mustValue(t *testing.T, s string) *jsonvalue.Value {
	t.Helper()
	v, err := jsonvalue.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

// ============================================================================
// Faults
// ============================================================================

type panickingStore struct {
	*storage.MemoryStore
}

func (panickingStore) Record(string, requestlog.Entry, string, string) (*storage.Resolution, error) {
	panic("boom")
}

func TestDispatch_Faults(t *testing.T) {
	t.Parallel()

	t.Run("panics become error responses", func(t *testing.T) {
		t.Parallel()
		mem, err := storage.NewMemoryStore()
		require.NoError(t, err)
		d := NewDispatcher(panickingStore{mem})

		resp := do(d, "GET", "/t1/x", "")

		assert.Equal(t, StatusError, resp.Status)
		msg, _ := decode(t, resp.Body)["message"].(string)
		assert.True(t, strings.HasPrefix(msg, "boom\n"), msg)
		assert.Contains(t, msg, "goroutine")

		assert.Equal(t, "200", do(d, "GET", "/mock/conf", "").Status, "server keeps serving")
	})

	t.Run("invalid route pattern", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"(","code":"200"}`)

		resp := do(d, "GET", "/t1/x", "")

		assert.Equal(t, StatusError, resp.Status)
		assert.Len(t, decodeArray(t, do(d, "GET", "/mock/history/t1", "").Body), 1, "request is recorded")
		assert.Equal(t, "200", do(d, "POST", "/t1/x", "").Status, "pattern only used for matching methods")
	})

	t.Run("invalid route status", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"/x","code":"abc"}`)

		resp := do(d, "GET", "/t1/x", "")

		assert.Equal(t, StatusError, resp.Status)
		assert.Contains(t, decode(t, resp.Body)["message"], "invalid status code")
	})

	t.Run("informational route status", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/routes/t1", `{"method":"GET","path":"/x","code":"102","body":{"ok":true}}`)

		resp := do(d, "GET", "/t1/x", "")

		assert.Equal(t, StatusError, resp.Status)
		assert.Contains(t, decode(t, resp.Body)["message"], `invalid status code "102"`)
	})

	t.Run("error responses carry global headers", func(t *testing.T) {
		t.Parallel()
		d := newTestDispatcher(t)
		do(d, "PUT", "/mock/conf", `{"headers":{"X-Env":"test"}}`)

		resp := do(d, "PUT", "/mock/conf", `[]`)

		v, _ := resp.Headers.Get("X-Env")
		assert.Equal(t, "test", v)
	})
}

func TestDispatch_Concurrent(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				do(d, "PUT", "/mock/routes/t1", fmt.Sprintf(`{"method":"GET","path":"/r%d-%d","code":"200"}`, w, i))
				do(d, "GET", "/t1/x", "")
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, tenantRoutes(t, do(d, "GET", "/mock/conf", "").Body, "t1"), workers*perWorker)
	assert.Len(t, decodeArray(t, do(d, "GET", "/mock/history/t1", "").Body), workers*perWorker)
}
