package resource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"doc_retrieval/embedding"
	"doc_retrieval/store"

	"golang.org/x/sync/errgroup"
)

// EmbeddingFactory builds the embedding model handle.
type EmbeddingFactory func(ctx context.Context) (embedding.Service, error)

// CollectionFactory connects to the vector store and resolves the collection.
type CollectionFactory func(ctx context.Context) (store.Collection, error)

// Status reports which handles have been initialized.
type Status struct {
	EmbeddingModel bool `json:"embedding_model"`
	Collection     bool `json:"collection"`
}

// Manager owns the process-wide embedding model and collection handles.
// Both are created on first demand and reused for the life of the process.
type Manager struct {
	model      *Lazy[embedding.Service]
	collection *Lazy[store.Collection]
}

func NewManager(newModel EmbeddingFactory, newCollection CollectionFactory) *Manager {
	return &Manager{
		model:      NewLazy[embedding.Service]("embedding_model", newModel),
		collection: NewLazy[store.Collection]("collection", newCollection),
	}
}

// EmbeddingModel returns the shared embedding model, loading it on first call.
func (m *Manager) EmbeddingModel(ctx context.Context) (embedding.Service, error) {
	return m.model.Get(ctx)
}

// Collection returns the shared collection handle, connecting on first call.
func (m *Manager) Collection(ctx context.Context) (store.Collection, error) {
	return m.collection.Get(ctx)
}

// Ready reports handle state without triggering initialization.
func (m *Manager) Ready() Status {
	_, model := m.model.Peek()
	_, coll := m.collection.Peek()
	return Status{EmbeddingModel: model, Collection: coll}
}

// Preload initializes both handles concurrently.
func (m *Manager) Preload(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := m.EmbeddingModel(ctx)
		return err
	})
	g.Go(func() error {
		_, err := m.Collection(ctx)
		return err
	})
	return g.Wait()
}

// Close releases the handles that hold network resources. It is meant for
// process shutdown; the manager must not be used afterwards.
func (m *Manager) Close() error {
	var errs []error
	if model, ok := m.model.Peek(); ok {
		if c, ok := model.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close embedding model: %w", err))
			}
		}
	}
	if coll, ok := m.collection.Peek(); ok {
		if c, ok := coll.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close collection: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
