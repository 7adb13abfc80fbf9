package embedding

import "context"

//go:generate mockgen -destination=mock/mock_service.go -package=mock doc_retrieval/embedding Service

// Service defines the interface for embedding operations
type Service interface {
	// Get returns the embedding vector of text.
	Get(ctx context.Context, text string) ([]float32, error)
	// Dimensions returns the length of every vector Get produces, or 0 when unknown.
	Dimensions() int
}
