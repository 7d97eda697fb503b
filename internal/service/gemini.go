package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nexa/pkg/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

var (
	ErrEmptyEmbedding = errors.New("no embedding returned from API")
	ErrEmptyResponse  = errors.New("no response generated from chat model")
)

// GeminiService is the thin boundary around the Gemini API. Retry and rate
// limiting live one layer up so this type stays a direct translation of the
// provider calls.
type GeminiService struct {
	client *genai.Client
	config *config.GeminiConfig
	logger *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, logger *zap.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	return &GeminiService{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// EmbedText generates one embedding vector with the configured
// dimensionality.
func (s *GeminiService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	dim := int32(s.config.EmbeddingDim)
	result, err := s.client.Models.EmbedContent(ctx, s.config.EmbeddingModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{OutputDimensionality: &dim},
	)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, ErrEmptyEmbedding
	}

	embedding := result.Embeddings[0].Values
	if len(embedding) != s.config.EmbeddingDim {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d",
			s.config.EmbeddingDim, len(embedding))
	}

	return embedding, nil
}

// GenerateText runs a single-turn completion.
func (s *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.config.ChatModel,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		return "", fmt.Errorf("chat generation failed: %w", err)
	}

	var response strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", ErrEmptyResponse
	}

	return response.String(), nil
}

// IsRateLimitError reports whether the provider rejected the call for quota
// reasons. The genai SDK does not expose a typed error for this, so the
// status text is the only signal available.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "quota")
}
