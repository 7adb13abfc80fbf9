package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"doc_retrieval/store"

	"github.com/redis/go-redis/v9"
)

const (
	vectorField = "embedding"
	scoreAlias  = "__score"
)

var knnQuery = fmt.Sprintf("*=>[KNN $k @%s $vec AS %s]", vectorField, scoreAlias)

// Config contains connection details for a Redis server with RediSearch.
// Collection names the search index; documents are hashes with a FLOAT32
// vector field "embedding" and a text field DocumentField.
type Config struct {
	Host          string
	Port          int
	Password      string
	DB            int
	Collection    string
	DocumentField string
}

// searchClient is the subset of *redis.Client used by Collection.
type searchClient interface {
	FTInfo(ctx context.Context, index string) *redis.FTInfoCmd
	FTSearchWithArgs(ctx context.Context, index string, query string, options *redis.FTSearchOptions) *redis.FTSearchCmd
	Close() error
}

// Collection implements store.Collection with a RediSearch KNN query
type Collection struct {
	client        searchClient
	index         string
	documentField string
}

// Open pings Redis and checks that the search index exists.
func Open(ctx context.Context, cfg Config) (*Collection, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		// FT.* replies are only decoded into typed results over RESP2
		Protocol: 2,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("fail to reach redis at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	c, err := newCollection(ctx, rdb, cfg.Collection, cfg.DocumentField)
	if err != nil {
		rdb.Close()
		return nil, err
	}
	return c, nil
}

func newCollection(ctx context.Context, client searchClient, index, documentField string) (*Collection, error) {
	if err := client.FTInfo(ctx, index).Err(); err != nil {
		if isUnknownIndex(err) {
			return nil, fmt.Errorf("redis index %s: %w", index, store.ErrCollectionNotFound)
		}
		return nil, fmt.Errorf("fail to check redis index %s: %w", index, err)
	}
	return &Collection{
		client:        client,
		index:         index,
		documentField: documentField,
	}, nil
}

func (c *Collection) Name() string {
	return c.index
}

// Query implements store.Collection
func (c *Collection) Query(ctx context.Context, vector []float32, k int) ([]store.Match, error) {
	res, err := c.client.FTSearchWithArgs(ctx, c.index, knnQuery, searchOptions(c.documentField, vector, k)).Result()
	if err != nil {
		return nil, fmt.Errorf("fail to search redis index %s: %w", c.index, err)
	}
	return toMatches(res, c.documentField, k)
}

func (c *Collection) Close() error {
	return c.client.Close()
}

func searchOptions(documentField string, vector []float32, k int) *redis.FTSearchOptions {
	return &redis.FTSearchOptions{
		Params: map[string]any{
			"k":   k,
			"vec": vectorToBlob(vector),
		},
		SortBy:         []redis.FTSearchSortBy{{FieldName: scoreAlias, Asc: true}},
		Return:         []redis.FTSearchReturn{{FieldName: documentField}, {FieldName: scoreAlias}},
		Limit:          k,
		DialectVersion: 2,
	}
}

func toMatches(res redis.FTSearchResult, documentField string, k int) ([]store.Match, error) {
	if len(res.Docs) > k {
		return nil, fmt.Errorf("%w: %d documents for limit %d", store.ErrMalformedResult, len(res.Docs), k)
	}
	matches := make([]store.Match, 0, len(res.Docs))
	for _, doc := range res.Docs {
		if doc.Error != nil {
			return nil, fmt.Errorf("%w: document %s: %v", store.ErrMalformedResult, doc.ID, doc.Error)
		}
		text, ok := doc.Fields[documentField]
		if !ok {
			return nil, fmt.Errorf("%w: document %s has no %q field", store.ErrMalformedResult, doc.ID, documentField)
		}
		m := store.Match{ID: doc.ID, Document: text}
		if score, ok := doc.Fields[scoreAlias]; ok {
			if d, err := strconv.ParseFloat(score, 32); err == nil {
				m.Distance = float32(d)
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func vectorToBlob(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func isUnknownIndex(err error) bool {
	var rerr redis.Error
	if !errors.As(err, &rerr) {
		return false
	}
	msg := strings.ToLower(rerr.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}
