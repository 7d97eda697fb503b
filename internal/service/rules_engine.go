package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nexa/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// blacklistChecker answers whether a phone number is on any blacklist of the
// organization.
type blacklistChecker interface {
	ContainsNumber(ctx context.Context, organizationID uuid.UUID, phoneNumber string) (bool, error)
}

// tagChecker answers whether the sender's conversation history carries one of
// the given tags.
type tagChecker interface {
	SenderHasTag(ctx context.Context, organizationID uuid.UUID, clientPhone string, tags []string) (bool, error)
}

// ruleLister loads the active rules of an organization, highest priority
// first.
type ruleLister interface {
	ListActiveByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*models.BusinessRule, error)
}

// sentimentAnalyzer classifies the emotional tone of one message.
type sentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, message string) (*models.Sentiment, error)
}

// RulesEngine evaluates an organization's business rules against an inbound
// message. Rules run in descending priority order and the first match wins,
// so cheap lookups never pay for expensive ones ranked below them.
type RulesEngine struct {
	rules     ruleLister
	blacklist blacklistChecker
	tags      tagChecker
	sentiment sentimentAnalyzer
	now       func() time.Time
	logger    *zap.Logger
}

func NewRulesEngine(rules ruleLister, blacklist blacklistChecker, tags tagChecker, sentiment sentimentAnalyzer, logger *zap.Logger) *RulesEngine {
	return &RulesEngine{
		rules:     rules,
		blacklist: blacklist,
		tags:      tags,
		sentiment: sentiment,
		now:       time.Now,
		logger:    logger,
	}
}

// Evaluate runs the organization's active rules against one message. When no
// rule matches the result is a continue action with no rule name.
func (e *RulesEngine) Evaluate(ctx context.Context, organizationID uuid.UUID, phoneNumber, message string) (*models.RuleEvaluationResult, error) {
	rules, err := e.rules.ListActiveByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	evalCtx := &evaluationContext{
		organizationID: organizationID,
		phoneNumber:    phoneNumber,
		message:        message,
	}

	for _, rule := range rules {
		cond, err := rule.Condition()
		if err != nil {
			e.logger.Warn("Skipping rule with invalid condition",
				zap.String("rule", rule.Name),
				zap.Error(err),
			)
			continue
		}

		matched, detail := e.matches(ctx, cond, evalCtx)
		if !matched {
			continue
		}

		e.logger.Info("Rule matched",
			zap.String("rule", rule.Name),
			zap.String("action", string(rule.ActionType)),
			zap.String("phone", phoneNumber),
		)

		return &models.RuleEvaluationResult{
			Action:       rule.ActionType,
			ActionConfig: rule.ActionConfig,
			RuleName:     rule.Name,
			Context:      detail,
		}, nil
	}

	return &models.RuleEvaluationResult{
		Action:  models.ActionContinue,
		Context: map[string]any{},
	}, nil
}

// evaluationContext caches per-message lookups so a rule set with several
// sentiment conditions classifies the message only once.
type evaluationContext struct {
	organizationID uuid.UUID
	phoneNumber    string
	message        string

	sentiment     *models.Sentiment
	sentimentDone bool
}

// matches checks one condition. A failed lookup is treated as a non-match so
// a single unavailable dependency never blocks the whole pipeline.
func (e *RulesEngine) matches(ctx context.Context, cond models.Condition, evalCtx *evaluationContext) (bool, map[string]any) {
	switch c := cond.(type) {
	case models.BlacklistCondition:
		listed, err := e.blacklist.ContainsNumber(ctx, evalCtx.organizationID, evalCtx.phoneNumber)
		if err != nil {
			e.logger.Warn("Blacklist lookup failed", zap.Error(err))
			return false, nil
		}
		if !listed {
			return false, nil
		}
		return true, map[string]any{"reason": "blacklist"}

	case models.VIPCondition:
		isVIP, err := e.tags.SenderHasTag(ctx, evalCtx.organizationID, evalCtx.phoneNumber, c.Tags)
		if err != nil {
			e.logger.Warn("VIP tag lookup failed", zap.Error(err))
			return false, nil
		}
		if !isVIP {
			return false, nil
		}
		return true, map[string]any{"is_vip": true, "tags": c.Tags}

	case models.KeywordCondition:
		lower := strings.ToLower(evalCtx.message)
		var hits []string
		for _, keyword := range c.Keywords {
			if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
				hits = append(hits, keyword)
			}
		}
		if len(hits) == 0 {
			return false, nil
		}
		return true, map[string]any{"keywords": hits}

	case models.TimeCondition:
		if e.outsideBusinessHours(c) {
			return true, map[string]any{"outside_hours": true, "window": c.Start + "-" + c.End}
		}
		return false, nil

	case models.SentimentCondition:
		sentiment := e.classify(ctx, evalCtx)
		if sentiment == nil {
			return false, nil
		}
		if sentiment.Sentiment == c.Sentiment && sentiment.Score >= c.Threshold {
			return true, map[string]any{
				"sentiment": sentiment.Sentiment,
				"score":     sentiment.Score,
				"keywords":  sentiment.Keywords,
			}
		}
		return false, nil
	}

	return false, nil
}

// outsideBusinessHours reports whether the current time falls outside the
// window. Start > End is an overnight window, e.g. 22:00-06:00.
func (e *RulesEngine) outsideBusinessHours(c models.TimeCondition) bool {
	start, err := models.ParseClock(c.Start)
	if err != nil {
		return false
	}
	end, err := models.ParseClock(c.End)
	if err != nil {
		return false
	}

	now := e.now()
	minutes := now.Hour()*60 + now.Minute()

	if start > end {
		// Overnight window, e.g. 22:00-06:00: outside-hours from start
		// until end the next morning.
		return minutes >= start || minutes <= end
	}
	return !(minutes >= start && minutes <= end)
}

func (e *RulesEngine) classify(ctx context.Context, evalCtx *evaluationContext) *models.Sentiment {
	if evalCtx.sentimentDone {
		return evalCtx.sentiment
	}
	evalCtx.sentimentDone = true

	sentiment, err := e.sentiment.AnalyzeSentiment(ctx, evalCtx.message)
	if err != nil {
		e.logger.Warn("Sentiment analysis failed", zap.Error(err))
		return nil
	}
	evalCtx.sentiment = sentiment
	return sentiment
}
