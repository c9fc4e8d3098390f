package jsonvalue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) *Value {
	t.Helper()
	v, err := Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("keeps object key order", func(t *testing.T) {
		t.Parallel()
		v := mustParse(t, `{"z":1,"a":{"y":true,"b":null},"m":[1,"x"]}`)
		assert.Equal(t, []string{"z", "a", "m"}, v.Object().Keys())
		assert.Equal(t, `{"z":1,"a":{"y":true,"b":null},"m":[1,"x"]}`, string(Encode(v)))
	})

	t.Run("parses scalars", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, KindString, mustParse(t, `"hi"`).Kind())
		assert.Equal(t, KindNumber, mustParse(t, `12.5`).Kind())
		assert.Equal(t, KindBool, mustParse(t, `false`).Kind())
		assert.Equal(t, KindNull, mustParse(t, `null`).Kind())
	})

	t.Run("rejects trailing data", func(t *testing.T) {
		t.Parallel()
		_, err := Parse([]byte(`{} {}`))
		assert.Error(t, err)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		t.Parallel()
		_, err := Parse([]byte(`{"a":`))
		assert.Error(t, err)
	})
}

func TestParseLenient(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ParseLenient(nil))
	assert.Nil(t, ParseLenient([]byte("   ")))
	assert.Nil(t, ParseLenient([]byte("not json")))
	assert.True(t, ParseLenient([]byte(`[1]`)).IsArray())
}

func TestEncode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "null", string(Encode(nil)))
	assert.Equal(t, `"<a & b>"`, string(Encode(String("<a & b>"))))
	assert.Equal(t, `[]`, string(Encode(Array())))
	assert.Equal(t, `{}`, string(Encode(FromObject(nil))))

	b, err := json.Marshal(map[string]*Value{"v": mustParse(t, `{"b":2,"a":1}`)})
	require.NoError(t, err)
	assert.Equal(t, `{"v":{"b":2,"a":1}}`, string(b))
}

func TestEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same ints", `1`, `1`, true},
		{"int vs float", `1`, `1.0`, false},
		{"floats", `1.50`, `1.5`, true},
		{"big ints", `100000000000000000000`, `100000000000000000000`, true},
		{"strings", `"a"`, `"a"`, true},
		{"different kinds", `"1"`, `1`, false},
		{"objects ignore order", `{"a":1,"b":2}`, `{"b":2,"a":1}`, true},
		{"objects differ", `{"a":1}`, `{"a":2}`, false},
		{"objects with extra key", `{"a":1}`, `{"a":1,"b":1}`, false},
		{"arrays keep order", `[1,2]`, `[2,1]`, false},
		{"nested", `{"a":[{"x":null}]}`, `{"a":[{"x":null}]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Equal(mustParse(t, tt.a), mustParse(t, tt.b)))
		})
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	orig := mustParse(t, `{"a":{"b":[1]}}`)
	cp := orig.Clone()
	inner, _ := cp.Object().Get("a")
	b, _ := inner.Object().Get("b")
	require.NoError(t, b.Append(Int(2)))

	assert.Equal(t, `{"a":{"b":[1]}}`, string(Encode(orig)))
	assert.Equal(t, `{"a":{"b":[1,2]}}`, string(Encode(cp)))
}

func TestFromAnyToAny(t *testing.T) {
	t.Parallel()

	v, err := FromAny(map[string]any{
		"b": []any{1, 2.5, "x"},
		"a": map[any]any{"k": true},
		"c": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"k":true},"b":[1,2.5,"x"],"c":null}`, string(Encode(v)))

	back := v.ToAny().(map[string]any)
	assert.Equal(t, []any{int64(1), 2.5, "x"}, back["b"])

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}
