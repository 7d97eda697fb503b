package service

import (
	"context"
	"errors"
	"testing"

	"nexa/pkg/config"
	"nexa/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmbedder struct {
	calls   int
	failers []error
	vector  []float32
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= len(f.failers) {
		return nil, f.failers[f.calls-1]
	}
	return f.vector, nil
}

func fastTestService(embedder TextEmbedder) *EmbeddingService {
	svc := NewEmbeddingService(embedder, &config.GeminiConfig{RequestsPerSecond: 1000}, zap.NewNop())
	svc.policy.BaseDelay = 0
	svc.policy.MaxDelay = 0
	return svc
}

func TestEmbedSucceedsFirstAttempt(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	svc := fastTestService(embedder)

	vector, err := svc.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vector)
	assert.Equal(t, 1, embedder.calls)
}

func TestEmbedRetriesRateLimit(t *testing.T) {
	rateLimited := errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")
	embedder := &fakeEmbedder{
		failers: []error{rateLimited, rateLimited},
		vector:  []float32{1},
	}
	svc := fastTestService(embedder)

	vector, err := svc.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vector)
	assert.Equal(t, 3, embedder.calls)
}

func TestEmbedGivesUpAfterMaxAttempts(t *testing.T) {
	rateLimited := errors.New("quota exceeded")
	embedder := &fakeEmbedder{
		failers: []error{rateLimited, rateLimited, rateLimited, rateLimited, rateLimited},
	}
	svc := fastTestService(embedder)

	_, err := svc.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.Equal(t, 5, embedder.calls)
}

func TestEmbedTransientRetriesOnce(t *testing.T) {
	embedder := &fakeEmbedder{
		failers: []error{errors.New("connection reset")},
		vector:  []float32{2},
	}
	svc := fastTestService(embedder)

	vector, err := svc.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{2}, vector)
	assert.Equal(t, 2, embedder.calls)
}

func TestEmbedCancelledContext(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	svc := fastTestService(embedder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Embed(ctx, "hello")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestProviderRetryPolicyClassification(t *testing.T) {
	policy := providerRetryPolicy()

	assert.Equal(t, retry.RateLimited, policy.Classify(errors.New("Error 429")))
	assert.Equal(t, retry.RateLimited, policy.Classify(errors.New("RESOURCE_EXHAUSTED")))
	assert.Equal(t, retry.RateLimited, policy.Classify(errors.New("Quota exceeded for model")))
	assert.Equal(t, retry.Transient, policy.Classify(errors.New("connection reset")))
	assert.Equal(t, retry.Fatal, policy.Classify(context.Canceled))
}
