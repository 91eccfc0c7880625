package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Prompt == "fail" {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{float64(len(req.Prompt)), 0.5}})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	return httptest.NewServer(mux)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultTimeout, svc.client.Timeout)
	assert.Equal(t, 0, svc.Dimensions())
}

func TestEmbeddingService_Embed(t *testing.T) {
	server := newFakeOllama(t)
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	vec, err := svc.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 0.5}, vec)
	assert.Equal(t, 2, svc.Dimensions())
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	server := newFakeOllama(t)
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "abcd"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(4), vecs[1][0])

	_, err = svc.EmbedBatch(context.Background(), []string{"ok", "fail"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed text 1")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestEmbeddingService_Ping(t *testing.T) {
	server := newFakeOllama(t)
	defer server.Close()

	assert.NoError(t, NewEmbeddingService(Config{BaseURL: server.URL}).Ping(context.Background()))

	server.Close()
	assert.Error(t, NewEmbeddingService(Config{BaseURL: server.URL}).Ping(context.Background()))
}

func TestEmbeddingService_Close(t *testing.T) {
	assert.NoError(t, NewEmbeddingService(Config{}).Close())
}
