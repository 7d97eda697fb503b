package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"nexa/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRuleLister struct {
	rules []*models.BusinessRule
	err   error
}

func (f *fakeRuleLister) ListActiveByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*models.BusinessRule, error) {
	return f.rules, f.err
}

type fakeBlacklist struct {
	listed bool
	err    error
	calls  int
}

func (f *fakeBlacklist) ContainsNumber(ctx context.Context, organizationID uuid.UUID, phoneNumber string) (bool, error) {
	f.calls++
	return f.listed, f.err
}

type fakeTags struct {
	hasTag bool
	err    error
	calls  int
}

func (f *fakeTags) SenderHasTag(ctx context.Context, organizationID uuid.UUID, clientPhone string, tags []string) (bool, error) {
	f.calls++
	return f.hasTag, f.err
}

type fakeSentiment struct {
	result *models.Sentiment
	err    error
	calls  int
}

func (f *fakeSentiment) AnalyzeSentiment(ctx context.Context, message string) (*models.Sentiment, error) {
	f.calls++
	return f.result, f.err
}

func rule(name string, priority int, condType models.ConditionType, condConfig string, action models.ActionType) *models.BusinessRule {
	var cfg json.RawMessage
	if condConfig != "" {
		cfg = json.RawMessage(condConfig)
	}
	return &models.BusinessRule{
		ID:              uuid.New(),
		Name:            name,
		Priority:        priority,
		ConditionType:   condType,
		ConditionConfig: cfg,
		ActionType:      action,
		IsActive:        true,
	}
}

func newTestEngine(rules *fakeRuleLister, blacklist *fakeBlacklist, tags *fakeTags, sentiment *fakeSentiment) *RulesEngine {
	return NewRulesEngine(rules, blacklist, tags, sentiment, zap.NewNop())
}

func TestEvaluateKeywordMatchTransfers(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("escalate cancellations", 10, models.ConditionKeyword,
			`{"keywords":["cancel","refund"]}`, models.ActionTransfer),
	}}
	engine := newTestEngine(rules, &fakeBlacklist{}, &fakeTags{}, &fakeSentiment{})

	result, err := engine.Evaluate(context.Background(), uuid.New(), "+5511999990000",
		"I want to CANCEL my subscription")

	require.NoError(t, err)
	assert.Equal(t, models.ActionTransfer, result.Action)
	assert.Equal(t, "escalate cancellations", result.RuleName)
	assert.Equal(t, []string{"cancel"}, result.Context["keywords"])
}

func TestEvaluateKeywordCollectsAllMatches(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("escalate cancellations", 10, models.ConditionKeyword,
			`{"keywords":["cancel","refund","complaint"]}`, models.ActionTransfer),
	}}
	engine := newTestEngine(rules, &fakeBlacklist{}, &fakeTags{}, &fakeSentiment{})

	result, err := engine.Evaluate(context.Background(), uuid.New(), "+5511999990000",
		"cancel my order and refund me")

	require.NoError(t, err)
	assert.Equal(t, []string{"cancel", "refund"}, result.Context["keywords"])
}

func TestEvaluateBlacklistBlocks(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("spam numbers", 100, models.ConditionBlacklist, "", models.ActionBlock),
	}}
	engine := newTestEngine(rules, &fakeBlacklist{listed: true}, &fakeTags{}, &fakeSentiment{})

	result, err := engine.Evaluate(context.Background(), uuid.New(), "+5511999990000", "hello")

	require.NoError(t, err)
	assert.Equal(t, models.ActionBlock, result.Action)
	assert.Equal(t, "blacklist", result.Context["reason"])
}

func TestEvaluateFirstMatchShortCircuits(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("blacklist first", 100, models.ConditionBlacklist, "", models.ActionBlock),
		rule("vip second", 50, models.ConditionVIP, "", models.ActionTransfer),
	}}
	blacklist := &fakeBlacklist{listed: true}
	tags := &fakeTags{hasTag: true}
	engine := newTestEngine(rules, blacklist, tags, &fakeSentiment{})

	result, err := engine.Evaluate(context.Background(), uuid.New(), "+5511999990000", "hi")

	require.NoError(t, err)
	assert.Equal(t, models.ActionBlock, result.Action)
	assert.Equal(t, 1, blacklist.calls)
	assert.Equal(t, 0, tags.calls, "lower priority rule must not be evaluated")
}

func TestEvaluateNoMatchContinues(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("spam numbers", 100, models.ConditionBlacklist, "", models.ActionBlock),
	}}
	engine := newTestEngine(rules, &fakeBlacklist{listed: false}, &fakeTags{}, &fakeSentiment{})

	result, err := engine.Evaluate(context.Background(), uuid.New(), "+5511999990000", "hi")

	require.NoError(t, err)
	assert.Equal(t, models.ActionContinue, result.Action)
	assert.Empty(t, result.RuleName)
	assert.Empty(t, result.Context)
}

func TestEvaluateLookupFailureIsNonMatch(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("spam numbers", 100, models.ConditionBlacklist, "", models.ActionBlock),
		rule("vip clients", 50, models.ConditionVIP, "", models.ActionTransfer),
	}}
	blacklist := &fakeBlacklist{err: errors.New("db down")}
	tags := &fakeTags{hasTag: true}
	engine := newTestEngine(rules, blacklist, tags, &fakeSentiment{})

	result, err := engine.Evaluate(context.Background(), uuid.New(), "+5511999990000", "hi")

	require.NoError(t, err)
	assert.Equal(t, models.ActionTransfer, result.Action, "evaluation continues past the failed rule")
}

func TestEvaluateVIPTags(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("vip clients", 50, models.ConditionVIP, `{"tags":["gold"]}`, models.ActionTransfer),
	}}
	engine := newTestEngine(rules, &fakeBlacklist{}, &fakeTags{hasTag: true}, &fakeSentiment{})

	result, err := engine.Evaluate(context.Background(), uuid.New(), "+5511999990000", "hi")

	require.NoError(t, err)
	assert.Equal(t, models.ActionTransfer, result.Action)
	assert.Equal(t, true, result.Context["is_vip"])
}

func TestEvaluateSentimentThreshold(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("angry clients", 50, models.ConditionSentiment,
			`{"sentiment":"negative","threshold":0.7}`, models.ActionTransfer),
	}}

	t.Run("above threshold matches", func(t *testing.T) {
		sentiment := &fakeSentiment{result: &models.Sentiment{
			Sentiment: "negative", Score: 0.9, Keywords: []string{"terrible"},
		}}
		engine := newTestEngine(rules, &fakeBlacklist{}, &fakeTags{}, sentiment)

		result, err := engine.Evaluate(context.Background(), uuid.New(), "+55", "this is terrible")

		require.NoError(t, err)
		assert.Equal(t, models.ActionTransfer, result.Action)
		assert.Equal(t, "negative", result.Context["sentiment"])
		assert.Equal(t, 0.9, result.Context["score"])
		assert.Equal(t, []string{"terrible"}, result.Context["keywords"])
	})

	t.Run("below threshold does not match", func(t *testing.T) {
		sentiment := &fakeSentiment{result: &models.Sentiment{Sentiment: "negative", Score: 0.5}}
		engine := newTestEngine(rules, &fakeBlacklist{}, &fakeTags{}, sentiment)

		result, err := engine.Evaluate(context.Background(), uuid.New(), "+55", "not great")

		require.NoError(t, err)
		assert.Equal(t, models.ActionContinue, result.Action)
	})

	t.Run("different label does not match", func(t *testing.T) {
		sentiment := &fakeSentiment{result: &models.Sentiment{Sentiment: "positive", Score: 0.9}}
		engine := newTestEngine(rules, &fakeBlacklist{}, &fakeTags{}, sentiment)

		result, err := engine.Evaluate(context.Background(), uuid.New(), "+55", "love it")

		require.NoError(t, err)
		assert.Equal(t, models.ActionContinue, result.Action)
	})
}

func TestEvaluateSentimentClassifiedOnce(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("very angry", 100, models.ConditionSentiment,
			`{"sentiment":"negative","threshold":0.95}`, models.ActionTransfer),
		rule("somewhat angry", 50, models.ConditionSentiment,
			`{"sentiment":"negative","threshold":0.6}`, models.ActionTransfer),
	}}
	sentiment := &fakeSentiment{result: &models.Sentiment{Sentiment: "negative", Score: 0.8}}
	engine := newTestEngine(rules, &fakeBlacklist{}, &fakeTags{}, sentiment)

	result, err := engine.Evaluate(context.Background(), uuid.New(), "+55", "awful")

	require.NoError(t, err)
	assert.Equal(t, "somewhat angry", result.RuleName)
	assert.Equal(t, 1, sentiment.calls, "one classification shared across sentiment rules")
}

func TestEvaluateBusinessHours(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("after hours", 50, models.ConditionTime,
			`{"start":"08:00","end":"18:00"}`, models.ActionTransfer),
	}}

	cases := []struct {
		name    string
		clock   string
		matched bool
	}{
		{"inside window", "12:00", false},
		{"start boundary", "08:00", false},
		{"end boundary", "18:00", false},
		{"before opening", "07:59", true},
		{"after closing", "18:01", true},
		{"midnight", "00:00", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newTestEngine(rules, &fakeBlacklist{}, &fakeTags{}, &fakeSentiment{})
			engine.now = fixedClock(t, tc.clock)

			result, err := engine.Evaluate(context.Background(), uuid.New(), "+55", "hi")

			require.NoError(t, err)
			if tc.matched {
				assert.Equal(t, models.ActionTransfer, result.Action)
			} else {
				assert.Equal(t, models.ActionContinue, result.Action)
			}
		})
	}
}

func TestEvaluateOvernightBusinessHours(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("night shift off", 50, models.ConditionTime,
			`{"start":"22:00","end":"06:00"}`, models.ActionBlock),
	}}

	cases := []struct {
		name    string
		clock   string
		matched bool
	}{
		{"late evening", "23:00", true},
		{"early morning", "05:00", true},
		{"start boundary", "22:00", true},
		{"end boundary", "06:00", true},
		{"midday", "12:00", false},
		{"just after end", "06:01", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newTestEngine(rules, &fakeBlacklist{}, &fakeTags{}, &fakeSentiment{})
			engine.now = fixedClock(t, tc.clock)

			result, err := engine.Evaluate(context.Background(), uuid.New(), "+55", "hi")

			require.NoError(t, err)
			if tc.matched {
				assert.Equal(t, models.ActionBlock, result.Action)
			} else {
				assert.Equal(t, models.ActionContinue, result.Action)
			}
		})
	}
}

func TestEvaluateInvalidRuleSkipped(t *testing.T) {
	rules := &fakeRuleLister{rules: []*models.BusinessRule{
		rule("broken", 100, models.ConditionKeyword, `{}`, models.ActionBlock),
		rule("working", 50, models.ConditionKeyword, `{"keywords":["help"]}`, models.ActionTransfer),
	}}
	engine := newTestEngine(rules, &fakeBlacklist{}, &fakeTags{}, &fakeSentiment{})

	result, err := engine.Evaluate(context.Background(), uuid.New(), "+55", "help me")

	require.NoError(t, err)
	assert.Equal(t, "working", result.RuleName)
}

func TestEvaluateRuleLoadFailure(t *testing.T) {
	rules := &fakeRuleLister{err: errors.New("db down")}
	engine := newTestEngine(rules, &fakeBlacklist{}, &fakeTags{}, &fakeSentiment{})

	_, err := engine.Evaluate(context.Background(), uuid.New(), "+55", "hi")

	assert.Error(t, err)
}

func fixedClock(t *testing.T, clock string) func() time.Time {
	t.Helper()
	parsed, err := time.Parse("15:04", clock)
	require.NoError(t, err)
	return func() time.Time {
		return time.Date(2025, 6, 2, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
	}
}
