package labeling

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImaggaSourceDetectLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tags", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("threshold"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"result": {"tags": [
				{"confidence": 91.4, "tag": {"en": "cumin"}},
				{"confidence": 55.2, "tag": {"en": "spice"}}
			]},
			"status": {"text": "", "type": "success"}
		}`))
	}))
	defer server.Close()

	src := NewImaggaSource(ImaggaOpts{
		BaseURL:   server.URL,
		APIKey:    "key",
		APISecret: "secret",
		Options:   Options{MaxLabels: 5, MinConfidence: 30},
	})

	labels, err := src.DetectLabels(context.Background(), []byte("image-bytes"))
	require.NoError(t, err)
	assert.Equal(t, []Label{
		{Name: "cumin", Confidence: 91.4},
		{Name: "spice", Confidence: 55.2},
	}, labels)
}

func TestImaggaSourceErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status": {"text": "invalid credentials", "type": "error"}}`))
	}))
	defer server.Close()

	src := NewImaggaSource(ImaggaOpts{
		BaseURL:   server.URL,
		APIKey:    "bad",
		APISecret: "bad",
	})

	_, err := src.DetectLabels(context.Background(), []byte("image-bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status: 403")
}
