package main

import (
	"context"
	"time"

	"doc_retrieval/config"
	"doc_retrieval/embedding"
	embeddingGrpc "doc_retrieval/embedding/grpc"
	"doc_retrieval/embedding/openai"
	"doc_retrieval/resource"
	"doc_retrieval/store"
	"doc_retrieval/store/chroma"
	"doc_retrieval/store/pgvector"
	"doc_retrieval/store/qdrant"
	"doc_retrieval/store/redis"
)

func newEmbeddingFactory(cfg *config.Config) resource.EmbeddingFactory {
	ec := cfg.Embedding
	return func(ctx context.Context) (embedding.Service, error) {
		switch ec.Backend {
		case config.EmbeddingGRPC:
			return embeddingGrpc.NewClient(ctx, ec.GrpcAddr)
		default:
			return openai.New(ctx, openai.Config{
				BaseURL:    ec.BaseURL,
				Model:      ec.Model,
				APIKeyEnv:  ec.APIKeyEnv,
				Dimensions: ec.Dimensions,
				Timeout:    time.Duration(ec.TimeoutSecs) * time.Second,
			})
		}
	}
}

func newCollectionFactory(cfg *config.Config) resource.CollectionFactory {
	sc := cfg.Store
	return func(ctx context.Context) (store.Collection, error) {
		switch sc.Backend {
		case config.StoreQdrant:
			return qdrant.Open(ctx, qdrant.Config{
				Host:          sc.Host,
				Port:          sc.Port,
				APIKey:        sc.APIKey,
				Collection:    sc.Collection,
				DocumentField: sc.DocumentField,
			})
		case config.StorePgvector:
			return pgvector.Open(ctx, pgvector.Config{
				Host:          sc.Host,
				Port:          sc.Port,
				User:          sc.Postgres.User,
				Password:      sc.Postgres.Password,
				DBName:        sc.Postgres.DBName,
				SSLMode:       sc.Postgres.SSLMode,
				Collection:    sc.Collection,
				DocumentField: sc.DocumentField,
			})
		case config.StoreRedis:
			return redis.Open(ctx, redis.Config{
				Host:          sc.Host,
				Port:          sc.Port,
				Password:      sc.Redis.Password,
				DB:            sc.Redis.DB,
				Collection:    sc.Collection,
				DocumentField: sc.DocumentField,
			})
		default:
			return chroma.Open(ctx, chroma.Config{
				Host:       sc.Host,
				Port:       sc.Port,
				Tenant:     sc.Chroma.Tenant,
				Database:   sc.Chroma.Database,
				Collection: sc.Collection,
			})
		}
	}
}
