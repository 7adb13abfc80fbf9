package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"doc_retrieval/embedding"
	"doc_retrieval/store"
)

var (
	// ErrInvalidTopK is returned for a non-positive result count.
	ErrInvalidTopK = errors.New("top_k must be positive")
	// ErrInit is returned when the embedding model or the collection cannot be initialized.
	ErrInit = errors.New("resource initialization failed")
	// ErrEmbedding is returned when the model cannot embed the question.
	ErrEmbedding = errors.New("embedding failed")
	// ErrStore is returned when the similarity query fails.
	ErrStore = errors.New("vector store query failed")
	// ErrMalformedResult is returned when the store reply does not match the expected shape.
	ErrMalformedResult = store.ErrMalformedResult
)

// Chunk is one retrieved unit of document text.
type Chunk struct {
	Content string `json:"content"`
}

// Resources hands out the shared model and collection handles.
type Resources interface {
	EmbeddingModel(ctx context.Context) (embedding.Service, error)
	Collection(ctx context.Context) (store.Collection, error)
}

// Service answers questions with the nearest document chunks.
type Service struct {
	resources Resources
}

func NewService(resources Resources) *Service {
	return &Service{resources: resources}
}

// Answer embeds question and returns up to topK chunks in the store's ranking
// order. Fewer chunks than topK are returned as-is.
func (s *Service) Answer(ctx context.Context, question string, topK int) ([]Chunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}
	slog.Info("received query", "question", question, "top_k", topK)

	model, err := s.resources.EmbeddingModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding model: %w", ErrInit, err)
	}
	vector, err := model.Get(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if dims := model.Dimensions(); dims > 0 && len(vector) != dims {
		return nil, fmt.Errorf("%w: got %d dimensions, model has %d", ErrEmbedding, len(vector), dims)
	}

	collection, err := s.resources.Collection(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: collection: %w", ErrInit, err)
	}
	slog.Info("querying collection", "collection", collection.Name(), "top_k", topK)
	matches, err := collection.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	chunks, err := toChunks(matches, topK)
	if err != nil {
		return nil, err
	}
	slog.Info("retrieved chunks", "count", len(chunks))
	return chunks, nil
}

func toChunks(matches []store.Match, topK int) ([]Chunk, error) {
	if len(matches) > topK {
		return nil, fmt.Errorf("%w: %d matches for top_k %d", ErrMalformedResult, len(matches), topK)
	}
	seen := make(map[string]struct{}, len(matches))
	chunks := make([]Chunk, 0, len(matches))
	for _, m := range matches {
		if m.ID != "" {
			if _, dup := seen[m.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate match %s", ErrMalformedResult, m.ID)
			}
			seen[m.ID] = struct{}{}
		}
		chunks = append(chunks, Chunk{Content: m.Document})
	}
	return chunks, nil
}
