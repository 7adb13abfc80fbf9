package qdrant

import (
	"context"
	"fmt"
	"strconv"

	"doc_retrieval/store"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// Config contains connection details for a Qdrant server (gRPC port).
type Config struct {
	Host          string
	Port          int
	APIKey        string
	Collection    string
	DocumentField string
	GrpcOptions   []grpc.DialOption
}

// Collection implements store.Collection using Qdrant as the backend
type Collection struct {
	qdrantClient   *qdrant.Client
	collectionName string
	documentField  string
}

// Open connects to Qdrant and checks that the collection exists. Unlike the
// cache service it never creates the collection: documents are loaded elsewhere.
func Open(ctx context.Context, cfg Config) (*Collection, error) {
	qclient, err := qdrant.NewClient(&qdrant.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		APIKey:      cfg.APIKey,
		GrpcOptions: cfg.GrpcOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("fail to create qdrant client: %w", err)
	}

	isExist, err := qclient.CollectionExists(ctx, cfg.Collection)
	if err != nil {
		qclient.Close()
		return nil, fmt.Errorf("fail to check if qdrant collection %s exists: %w", cfg.Collection, err)
	}
	if !isExist {
		qclient.Close()
		return nil, fmt.Errorf("qdrant collection %s: %w", cfg.Collection, store.ErrCollectionNotFound)
	}

	return &Collection{
		qdrantClient:   qclient,
		collectionName: cfg.Collection,
		documentField:  cfg.DocumentField,
	}, nil
}

func (c *Collection) Name() string {
	return c.collectionName
}

// Query implements store.Collection
func (c *Collection) Query(ctx context.Context, vector []float32, k int) ([]store.Match, error) {
	searchResult, err := c.qdrantClient.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collectionName,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayloadInclude(c.documentField),
	})
	if err != nil {
		return nil, fmt.Errorf("fail to search qdrant: %w", err)
	}
	return toMatches(searchResult, c.documentField, k)
}

func (c *Collection) Close() error {
	return c.qdrantClient.Close()
}

func toMatches(points []*qdrant.ScoredPoint, documentField string, k int) ([]store.Match, error) {
	if len(points) > k {
		return nil, fmt.Errorf("%w: %d points for limit %d", store.ErrMalformedResult, len(points), k)
	}
	matches := make([]store.Match, 0, len(points))
	for _, p := range points {
		id := pointID(p.GetId())
		value, ok := p.GetPayload()[documentField]
		if !ok {
			return nil, fmt.Errorf("%w: point %s has no %q payload", store.ErrMalformedResult, id, documentField)
		}
		text, ok := value.GetKind().(*qdrant.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: payload %q of point %s is not a string", store.ErrMalformedResult, documentField, id)
		}
		matches = append(matches, store.Match{
			ID:       id,
			Document: text.StringValue,
			// collections use cosine distance; the score is the similarity
			Distance: 1 - p.GetScore(),
		})
	}
	return matches, nil
}

func pointID(id *qdrant.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}
