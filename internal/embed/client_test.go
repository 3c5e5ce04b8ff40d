package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/warden/internal/config"
)

func TestClientEmbed(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vectors := make([][]float64, len(req.Inputs))
		for i := range vectors {
			vectors[i] = []float64{float64(i), 1}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embedResponse{Vectors: vectors})
	}))
	defer server.Close()

	client := NewClient(&config.EmbeddingConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
	}, nil)

	vectors, err := client.Embed(context.Background(), []string{"const a = 1;", "const b = 2;"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, []float64{0, 1}, vectors[0])
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestClientEmbedBudgetRejection(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embedResponse{Vectors: [][]float64{{1}}})
	}))
	defer server.Close()

	governor := NewGovernor(1, 0)
	client := NewClient(&config.EmbeddingConfig{Endpoint: server.URL}, governor)

	_, err := client.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), []string{"b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))
	assert.Equal(t, 1, calls, "a budget-rejected call must never reach the service")
}

func TestClientEmbedVectorCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embedResponse{Vectors: [][]float64{{1}}})
	}))
	defer server.Close()

	client := NewClient(&config.EmbeddingConfig{Endpoint: server.URL}, nil)
	_, err := client.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 vectors for 2 fragments")
}

func TestClientEmbedServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embedResponse{Error: "model overloaded"})
	}))
	defer server.Close()

	client := NewClient(&config.EmbeddingConfig{Endpoint: server.URL}, nil)
	_, err := client.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestClientEmbedNoEndpoint(t *testing.T) {
	client := NewClient(&config.EmbeddingConfig{}, nil)
	_, err := client.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
}
