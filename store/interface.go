package store

import (
	"context"
	"errors"
)

//go:generate mockgen -destination=mock/mock_collection.go -package=mock doc_retrieval/store Collection

var (
	// ErrCollectionNotFound is returned when the named collection does not exist in the store.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrMalformedResult is returned when a store reply does not have the expected shape.
	ErrMalformedResult = errors.New("malformed vector store result")
)

// Match is one nearest-neighbour hit, in the store's ranking order.
type Match struct {
	ID       string
	Document string
	Distance float32
}

// Collection is a resolved handle to a named collection in a vector store.
type Collection interface {
	// Name returns the collection name.
	Name() string
	// Query returns at most k matches for vector, most similar first.
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
}
