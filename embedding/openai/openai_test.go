package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

func newEmbeddingServer(t *testing.T, vector []float32, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Inc()
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Model != "all-MiniLM-L6-v2" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vector},
			},
		})
	}))
}

func TestNew_ProbesDimensions(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbeddingServer(t, []float32{0.1, 0.2, 0.3}, &calls)
	defer srv.Close()

	svc, err := New(context.Background(), Config{BaseURL: srv.URL + "/v1", Model: "all-MiniLM-L6-v2"})
	require.NoError(t, err)
	assert.Equal(t, 3, svc.Dimensions())
	assert.EqualValues(t, 1, calls.Load())

	vec, err := svc.Get(context.Background(), "What was Google's revenue in 2023?")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.EqualValues(t, 2, calls.Load())
}

func TestNew_DimensionMismatch(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbeddingServer(t, []float32{0.1, 0.2}, &calls)
	defer srv.Close()

	_, err := New(context.Background(), Config{BaseURL: srv.URL + "/v1", Model: "all-MiniLM-L6-v2", Dimensions: 384})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configured 384")
}

func TestNew_UnknownModel(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbeddingServer(t, []float32{0.1}, &calls)
	defer srv.Close()

	_, err := New(context.Background(), Config{BaseURL: srv.URL + "/v1", Model: "missing-model"})
	require.Error(t, err)
}

func TestNew_EmptyModel(t *testing.T) {
	_, err := New(context.Background(), Config{BaseURL: "http://127.0.0.1:1/v1"})
	require.Error(t, err)
}
