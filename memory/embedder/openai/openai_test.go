package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedCallsCompatibleEndpoint(t *testing.T) {
	var gotModel, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel = body.Model

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.6,0.8]}]}`))
	}))
	defer srv.Close()

	e := New(Config{BaseURL: srv.URL + "/v1", APIKey: "sk-test", Model: "embed-small", Dimensions: 2})
	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.6, 0.8}, vec)
	assert.Equal(t, "embed-small", gotModel)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, 2, e.Dimensions())
}

func TestEmbedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).Embed(context.Background(), "hello")
	assert.ErrorContains(t, err, "embeddings request")
}
