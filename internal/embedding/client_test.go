package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})

	assert.Equal(t, DefaultModel, c.ModelName())
	assert.Equal(t, DefaultDimensions, c.Dimensions())
}

func TestEmbed_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "hello", req.Prompt)

		json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float64{0.1, 0.2, 0.3},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "test-model", Dimensions: 3})
	vec, err := c.Embed(context.Background(), "hello")

	require.NoError(t, err)
	require.Len(t, vec, 3)
	assert.InDelta(t, 0.1, vec[0], 1e-6)
	assert.InDelta(t, 0.3, vec[2], 1e-6)
}

func TestEmbed_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestEmbed_Unreachable(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Embed(context.Background(), "hello")
	require.Error(t, err)
}

func TestEmbedBatch(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{float64(calls)}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Dimensions: 1})
	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, 3, calls)
	assert.InDelta(t, 1.0, vecs[0][0], 1e-6)
	assert.InDelta(t, 3.0, vecs[2][0], 1e-6)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	assert.NoError(t, c.Ping(context.Background()))
}
