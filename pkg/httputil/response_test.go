package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with correct content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		data := map[string]string{"foo": "bar"}

		WriteJSON(rec, http.StatusOK, data)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var result map[string]string
		err := json.Unmarshal(rec.Body.Bytes(), &result)
		require.NoError(t, err)
		assert.Equal(t, "bar", result["foo"])
	})

	t.Run("handles nil data", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteRaw(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteRaw(rec, http.StatusCreated, [][2]string{
		{"Content-Type", "application/json"},
		{"X-Custom", "1"},
		{"content-type", "text/plain"},
	}, []byte(`"hi"`))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Custom"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Equal(t, `"hi"`, rec.Body.String())
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code    string
		want    int
		wantErr bool
	}{
		{code: "200", want: 200},
		{code: "201", want: 201},
		{code: " 404 ", want: 404},
		{code: "999", want: 999},
		{code: "", wantErr: true},
		{code: "abc", wantErr: true},
		{code: "99", wantErr: true},
		{code: "100", wantErr: true},
		{code: "101", wantErr: true},
		{code: "199", wantErr: true},
		{code: "1000", wantErr: true},
		{code: "20.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()
			got, err := ParseStatus(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
