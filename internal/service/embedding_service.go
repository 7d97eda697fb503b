package service

import (
	"context"
	"errors"
	"time"

	"nexa/pkg/config"
	"nexa/pkg/retry"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TextEmbedder generates one embedding vector per text.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// TextGenerator runs a single-turn completion.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// EmbeddingService wraps the raw embedder with client-side rate limiting and
// a retry policy tuned for provider quota errors.
type EmbeddingService struct {
	embedder TextEmbedder
	limiter  *rate.Limiter
	policy   retry.Policy
	logger   *zap.Logger
}

func NewEmbeddingService(embedder TextEmbedder, cfg *config.GeminiConfig, logger *zap.Logger) *EmbeddingService {
	return &EmbeddingService{
		embedder: embedder,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		policy:   providerRetryPolicy(),
		logger:   logger,
	}
}

func providerRetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
		Classify: func(err error) retry.Class {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return retry.Fatal
			case IsRateLimitError(err):
				return retry.RateLimited
			default:
				return retry.Transient
			}
		},
	}
}

// Embed generates the vector for one text, waiting out the rate limiter and
// retrying quota rejections with exponential backoff.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		result, err := s.embedder.EmbedText(ctx, text)
		if err != nil {
			if IsRateLimitError(err) {
				s.logger.Warn("Embedding rate limited, backing off", zap.Error(err))
			}
			return err
		}

		vector = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return vector, nil
}
