package chroma

import (
	"context"
	"fmt"
	"time"

	"doc_retrieval/store"

	chromav2 "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// Config contains connection details for a Chroma server.
type Config struct {
	Host       string
	Port       int
	Tenant     string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Collection implements store.Collection on a Chroma collection
type Collection struct {
	client chromav2.Client
	coll   chromav2.Collection
	name   string
}

// queryGroups is a query result split per query vector, in Chroma's order.
// A nil document marks a result stored without text.
type queryGroups struct {
	ids   [][]string
	docs  [][]*string
	dists [][]float32
}

// Open checks the server heartbeat and resolves the named collection.
func Open(ctx context.Context, cfg Config) (*Collection, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := chromav2.NewHTTPClient(
		chromav2.WithBaseURL(fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)),
		chromav2.WithDatabaseAndTenant(cfg.Database, cfg.Tenant),
	)
	if err != nil {
		return nil, fmt.Errorf("fail to create chroma client: %w", err)
	}

	if err := client.Heartbeat(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("fail to reach chroma at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	// vectors are always supplied by the caller; the hash function only
	// keeps the client from loading its default local model
	coll, err := client.GetCollection(ctx, cfg.Collection,
		chromav2.WithEmbeddingFunctionGet(embeddings.NewConsistentHashEmbeddingFunction()))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("fail to get chroma collection %s: %w", cfg.Collection, err)
	}

	return &Collection{
		client: client,
		coll:   coll,
		name:   cfg.Collection,
	}, nil
}

func (c *Collection) Name() string {
	return c.name
}

// Query implements store.Collection
func (c *Collection) Query(ctx context.Context, vector []float32, k int) ([]store.Match, error) {
	qr, err := c.coll.Query(ctx,
		chromav2.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromav2.WithNResults(k),
		chromav2.WithIncludeQuery(chromav2.IncludeDocuments, chromav2.IncludeDistances),
	)
	if err != nil {
		return nil, fmt.Errorf("fail to query chroma collection %s: %w", c.name, err)
	}
	return toMatches(groupsOf(qr), k)
}

func (c *Collection) Close() error {
	return c.client.Close()
}

func groupsOf(qr chromav2.QueryResult) queryGroups {
	var g queryGroups
	for _, ids := range qr.GetIDGroups() {
		group := make([]string, len(ids))
		for i, id := range ids {
			group[i] = string(id)
		}
		g.ids = append(g.ids, group)
	}
	for _, docs := range qr.GetDocumentsGroups() {
		group := make([]*string, len(docs))
		for i, d := range docs {
			if d != nil {
				text := d.ContentString()
				group[i] = &text
			}
		}
		g.docs = append(g.docs, group)
	}
	for _, dists := range qr.GetDistancesGroups() {
		group := make([]float32, len(dists))
		for i, d := range dists {
			group[i] = float32(d)
		}
		g.dists = append(g.dists, group)
	}
	return g
}

// toMatches validates that the reply holds exactly one result list, for the
// single query vector, with a document for every id.
func toMatches(g queryGroups, k int) ([]store.Match, error) {
	if len(g.ids) != 1 || len(g.docs) != 1 {
		return nil, fmt.Errorf("%w: expected one result list, got %d ids and %d documents lists",
			store.ErrMalformedResult, len(g.ids), len(g.docs))
	}
	ids, docs := g.ids[0], g.docs[0]
	if len(ids) != len(docs) {
		return nil, fmt.Errorf("%w: %d ids but %d documents", store.ErrMalformedResult, len(ids), len(docs))
	}
	if len(ids) > k {
		return nil, fmt.Errorf("%w: %d results for n_results=%d", store.ErrMalformedResult, len(ids), k)
	}
	var dists []float32
	if len(g.dists) == 1 && len(g.dists[0]) == len(ids) {
		dists = g.dists[0]
	}

	matches := make([]store.Match, 0, len(ids))
	for i, id := range ids {
		if docs[i] == nil {
			return nil, fmt.Errorf("%w: result %s has no document", store.ErrMalformedResult, id)
		}
		m := store.Match{ID: id, Document: *docs[i]}
		if dists != nil {
			m.Distance = dists[i]
		}
		matches = append(matches, m)
	}
	return matches, nil
}
