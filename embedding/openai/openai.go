package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

const dimensionProbeText = "dimension probe"

// Config configures the OpenAI-compatible embedding client.
type Config struct {
	BaseURL    string
	Model      string
	APIKeyEnv  string
	Dimensions int
	Timeout    time.Duration
}

// Service implements embedding.Service using an OpenAI-compatible embeddings API
type Service struct {
	client     *goopenai.Client
	model      string
	dimensions int
}

// New creates the client and embeds a probe text to check that the model is
// served and to learn its vector length. A configured Dimensions value must
// match what the model returns.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.Model == "" {
		return nil, errors.New("embedding model name is empty")
	}
	oaiCfg := goopenai.DefaultConfig(os.Getenv(cfg.APIKeyEnv))
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		oaiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	s := &Service{
		client: goopenai.NewClientWithConfig(oaiCfg),
		model:  cfg.Model,
	}

	probe, err := s.getEmbedding(ctx, dimensionProbeText)
	if err != nil {
		return nil, fmt.Errorf("fail to load embedding model %s: %w", cfg.Model, err)
	}
	if cfg.Dimensions > 0 && cfg.Dimensions != len(probe) {
		return nil, fmt.Errorf("embedding model %s returns %d dimensions, configured %d", cfg.Model, len(probe), cfg.Dimensions)
	}
	s.dimensions = len(probe)
	return s, nil
}

// Get implements embedding.Service
func (s *Service) Get(ctx context.Context, text string) ([]float32, error) {
	return s.getEmbedding(ctx, text)
}

// Dimensions implements embedding.Service
func (s *Service) Dimensions() int {
	return s.dimensions
}

func (s *Service) getEmbedding(ctx context.Context, input string) ([]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model:          goopenai.EmbeddingModel(s.model),
		Input:          []string{input},
		EncodingFormat: goopenai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("fail to do embedding request: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response data")
	}
	if len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("embedding response contains an empty vector")
	}
	return resp.Data[0].Embedding, nil
}
