package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, StoreChroma, cfg.Store.Backend)
	assert.Equal(t, "localhost", cfg.Store.Host)
	assert.Equal(t, 8000, cfg.Store.Port)
	assert.Equal(t, "google_10k_2023", cfg.Store.Collection)
	assert.Equal(t, "all-MiniLM-L6-v2", cfg.Embedding.Model)
	assert.Equal(t, 5, cfg.Query.DefaultTopK)
	assert.Equal(t, "localhost:8000", cfg.StoreAddr())
	assert.False(t, cfg.Preload)
	assert.False(t, cfg.Server.Debug)
}

func TestLoad_DebugMode(t *testing.T) {
	t.Setenv("DEBUG_MODE", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Server.Debug)
}

func TestLoad_ChromaHostEnv(t *testing.T) {
	t.Setenv("CHROMA_HOST", "chroma.internal")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "chroma.internal", cfg.Store.Host)
	assert.Equal(t, 8000, cfg.Store.Port)
}

func TestLoad_BackendPortDefaults(t *testing.T) {
	tests := []struct {
		backend string
		port    int
	}{
		{StoreChroma, 8000},
		{StoreQdrant, 6334},
		{StorePgvector, 5432},
		{StoreRedis, 6379},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			t.Setenv("STORE_BACKEND", tt.backend)
			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.port, cfg.Store.Port)
		})
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  addr: ":9090"
preload: true
query:
  default_top_k: 3
  max_top_k: 10
store:
  backend: qdrant
  host: qdrant
  collection: filings
  document_field: text
embedding:
  backend: grpc
  grpc_addr: embedder:50051
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("COLLECTION_NAME", "filings_2024")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Preload)
	assert.Equal(t, 3, cfg.Query.DefaultTopK)
	assert.Equal(t, StoreQdrant, cfg.Store.Backend)
	assert.Equal(t, 6334, cfg.Store.Port)
	assert.Equal(t, "filings_2024", cfg.Store.Collection)
	assert.Equal(t, "text", cfg.Store.DocumentField)
	assert.Equal(t, EmbeddingGRPC, cfg.Embedding.Backend)
	assert.Equal(t, "embedder:50051", cfg.Embedding.GrpcAddr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"STORE_BACKEND": "faiss"}},
		{"unknown embedder", map[string]string{"EMBEDDING_BACKEND": "local"}},
		{"bad port", map[string]string{"STORE_PORT": "70000"}},
		{"non numeric top_k", map[string]string{"DEFAULT_TOP_K": "five"}},
		{"zero top_k", map[string]string{"DEFAULT_TOP_K": "0"}},
		{"max below default", map[string]string{"MAX_TOP_K": "2"}},
		{"bad preload", map[string]string{"PRELOAD": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
