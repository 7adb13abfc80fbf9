package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Embedding backends
const (
	EmbeddingOpenAI = "openai"
	EmbeddingGRPC   = "grpc"
)

// Vector store backends
const (
	StoreChroma   = "chroma"
	StoreQdrant   = "qdrant"
	StorePgvector = "pgvector"
	StoreRedis    = "redis"
)

const (
	defaultServerAddr          = ":8080"
	defaultEmbeddingServeAddr  = ":50051"
	defaultEmbeddingGrpcAddr   = "localhost:50051"
	defaultEmbeddingModel      = "all-MiniLM-L6-v2"
	defaultEmbeddingBaseURL    = "http://localhost:8081/v1"
	defaultEmbeddingApiKeyEnv  = "EMBEDDING_API_KEY"
	defaultEmbeddingTimeoutSec = 30
	defaultStoreHost           = "localhost"
	defaultCollectionName      = "google_10k_2023"
	defaultDocumentField       = "document"
	defaultTopK                = 5
	defaultMaxTopK             = 100
)

var defaultStorePorts = map[string]int{
	StoreChroma:   8000,
	StoreQdrant:   6334,
	StorePgvector: 5432,
	StoreRedis:    6379,
}

// Config is the root configuration shared by the gateway and embedding binaries.
type Config struct {
	Server          ServerConfig          `yaml:"server"`
	LogLevel        string                `yaml:"log_level"`
	Preload         bool                  `yaml:"preload"`
	Query           QueryConfig           `yaml:"query"`
	Embedding       EmbeddingConfig       `yaml:"embedding"`
	EmbeddingServer EmbeddingServerConfig `yaml:"embedding_server"`
	Store           StoreConfig           `yaml:"store"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Debug mounts the pprof handlers under /debug/pprof.
	Debug bool `yaml:"debug"`
}

// QueryConfig bounds the top_k accepted by the query endpoint.
type QueryConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// EmbeddingConfig selects and configures the embedding model client.
type EmbeddingConfig struct {
	Backend     string `yaml:"backend"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Dimensions  int    `yaml:"dimensions"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	GrpcAddr    string `yaml:"grpc_addr"`
}

type EmbeddingServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Backend       string         `yaml:"backend"`
	Host          string         `yaml:"host"`
	Port          int            `yaml:"port"`
	Collection    string         `yaml:"collection"`
	DocumentField string         `yaml:"document_field"`
	APIKey        string         `yaml:"api_key"`
	Chroma        ChromaConfig   `yaml:"chroma"`
	Postgres      PostgresConfig `yaml:"postgres"`
	Redis         RedisConfig    `yaml:"redis"`
}

type ChromaConfig struct {
	Tenant   string `yaml:"tenant"`
	Database string `yaml:"database"`
}

type PostgresConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Load builds the configuration from defaults, the optional YAML file at path
// and environment variables, in that order of precedence (last wins).
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("fail to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("fail to parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: defaultServerAddr},
		LogLevel: "INFO",
		Query: QueryConfig{
			DefaultTopK: defaultTopK,
			MaxTopK:     defaultMaxTopK,
		},
		Embedding: EmbeddingConfig{
			Backend:     EmbeddingOpenAI,
			Model:       defaultEmbeddingModel,
			BaseURL:     defaultEmbeddingBaseURL,
			APIKeyEnv:   defaultEmbeddingApiKeyEnv,
			TimeoutSecs: defaultEmbeddingTimeoutSec,
			GrpcAddr:    defaultEmbeddingGrpcAddr,
		},
		EmbeddingServer: EmbeddingServerConfig{Addr: defaultEmbeddingServeAddr},
		Store: StoreConfig{
			Backend:       StoreChroma,
			Host:          defaultStoreHost,
			Collection:    defaultCollectionName,
			DocumentField: defaultDocumentField,
			Chroma: ChromaConfig{
				Tenant:   "default_tenant",
				Database: "default_database",
			},
			Postgres: PostgresConfig{
				User:    "postgres",
				DBName:  "postgres",
				SSLMode: "disable",
			},
		},
	}
}

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	switch c.Embedding.Backend {
	case EmbeddingOpenAI, EmbeddingGRPC:
	default:
		return fmt.Errorf("unknown embedding backend: %q", c.Embedding.Backend)
	}
	if _, ok := defaultStorePorts[c.Store.Backend]; !ok {
		return fmt.Errorf("unknown vector store backend: %q", c.Store.Backend)
	}
	if c.Store.Collection == "" {
		return errors.New("store collection name is empty")
	}
	if c.Store.Port <= 0 || c.Store.Port > 65535 {
		return fmt.Errorf("invalid store port: %d", c.Store.Port)
	}
	if c.Query.DefaultTopK <= 0 {
		return fmt.Errorf("default top_k must be positive, got %d", c.Query.DefaultTopK)
	}
	if c.Query.MaxTopK < c.Query.DefaultTopK {
		return fmt.Errorf("max top_k %d is below default top_k %d", c.Query.MaxTopK, c.Query.DefaultTopK)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("invalid embedding dimensions: %d", c.Embedding.Dimensions)
	}
	return nil
}

// StoreAddr returns host:port of the configured vector store.
func (c *Config) StoreAddr() string {
	return fmt.Sprintf("%s:%d", c.Store.Host, c.Store.Port)
}

func applyDefaults(cfg *Config) {
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)
	cfg.Embedding.Backend = strings.ToLower(cfg.Embedding.Backend)
	if cfg.Store.Port == 0 {
		cfg.Store.Port = defaultStorePorts[cfg.Store.Backend]
	}
	if cfg.Store.Host == "" {
		cfg.Store.Host = defaultStoreHost
	}
	if cfg.Store.DocumentField == "" {
		cfg.Store.DocumentField = defaultDocumentField
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = defaultEmbeddingApiKeyEnv
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = defaultEmbeddingTimeoutSec
	}
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "SERVER_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Embedding.Backend, "EMBEDDING_BACKEND")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.Embedding.BaseURL, "EMBEDDING_BASE_URL")
	setString(&cfg.Embedding.GrpcAddr, "EMBEDDING_ADDR")
	setString(&cfg.EmbeddingServer.Addr, "EMBEDDING_SERVE_ADDR")
	setString(&cfg.Store.Backend, "STORE_BACKEND")
	setString(&cfg.Store.Host, "CHROMA_HOST")
	setString(&cfg.Store.Host, "STORE_HOST")
	setString(&cfg.Store.Collection, "COLLECTION_NAME")
	setString(&cfg.Store.DocumentField, "DOCUMENT_FIELD")
	setString(&cfg.Store.APIKey, "STORE_API_KEY")
	setString(&cfg.Store.Chroma.Tenant, "CHROMA_TENANT")
	setString(&cfg.Store.Chroma.Database, "CHROMA_DATABASE")
	setString(&cfg.Store.Postgres.User, "PG_USER")
	setString(&cfg.Store.Postgres.Password, "PG_PASSWORD")
	setString(&cfg.Store.Postgres.DBName, "PG_DBNAME")
	setString(&cfg.Store.Postgres.SSLMode, "PG_SSLMODE")
	setString(&cfg.Store.Redis.Password, "REDIS_PASSWORD")

	ints := []struct {
		dst *int
		env string
	}{
		{&cfg.Query.DefaultTopK, "DEFAULT_TOP_K"},
		{&cfg.Query.MaxTopK, "MAX_TOP_K"},
		{&cfg.Embedding.Dimensions, "EMBEDDING_DIMENSIONS"},
		{&cfg.Store.Port, "STORE_PORT"},
		{&cfg.Store.Redis.DB, "REDIS_DB"},
	}
	for _, i := range ints {
		if err := setInt(i.dst, i.env); err != nil {
			return err
		}
	}

	bools := []struct {
		dst *bool
		env string
	}{
		{&cfg.Preload, "PRELOAD"},
		{&cfg.Server.Debug, "DEBUG_MODE"},
	}
	for _, b := range bools {
		if err := setBool(b.dst, b.env); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, env string) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", env, v, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, env string) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", env, v, err)
	}
	*dst = n
	return nil
}
