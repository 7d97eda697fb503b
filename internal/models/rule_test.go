package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition_Defaults(t *testing.T) {
	tests := []struct {
		name          string
		conditionType ConditionType
		config        string
		want          Condition
	}{
		{
			name:          "vip default tags",
			conditionType: ConditionVIP,
			config:        `{}`,
			want:          VIPCondition{Tags: []string{"vip", "premium"}},
		},
		{
			name:          "vip explicit tags",
			conditionType: ConditionVIP,
			config:        `{"tags":["gold"]}`,
			want:          VIPCondition{Tags: []string{"gold"}},
		},
		{
			name:          "time default window",
			conditionType: ConditionTime,
			config:        `{}`,
			want:          TimeCondition{Start: "08:00", End: "18:00"},
		},
		{
			name:          "time overnight window",
			conditionType: ConditionTime,
			config:        `{"start":"22:00","end":"06:00"}`,
			want:          TimeCondition{Start: "22:00", End: "06:00"},
		},
		{
			name:          "sentiment defaults",
			conditionType: ConditionSentiment,
			config:        `{}`,
			want:          SentimentCondition{Sentiment: "negative", Threshold: 0.7},
		},
		{
			name:          "blacklist has no parameters",
			conditionType: ConditionBlacklist,
			config:        `{"ignored":true}`,
			want:          BlacklistCondition{},
		},
		{
			name:          "keyword list",
			conditionType: ConditionKeyword,
			config:        `{"keywords":["cancel","refund"]}`,
			want:          KeywordCondition{Keywords: []string{"cancel", "refund"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCondition(tt.conditionType, json.RawMessage(tt.config))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCondition_EmptyConfig(t *testing.T) {
	got, err := ParseCondition(ConditionVIP, nil)
	require.NoError(t, err)
	assert.Equal(t, VIPCondition{Tags: []string{"vip", "premium"}}, got)
}

func TestParseCondition_Rejects(t *testing.T) {
	tests := []struct {
		name          string
		conditionType ConditionType
		config        string
	}{
		{"keyword without keywords", ConditionKeyword, `{}`},
		{"time with malformed start", ConditionTime, `{"start":"25:00"}`},
		{"time with garbage end", ConditionTime, `{"end":"later"}`},
		{"unknown condition type", ConditionType("weather"), `{}`},
		{"invalid json", ConditionKeyword, `{"keywords":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCondition(tt.conditionType, json.RawMessage(tt.config))
			assert.Error(t, err)
		})
	}
}

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8*60+30, minutes)

	_, err = ParseClock("8am")
	assert.Error(t, err)
}

func TestValidEnumValues(t *testing.T) {
	assert.True(t, ValidConditionType("keyword"))
	assert.False(t, ValidConditionType("regex"))
	assert.True(t, ValidActionType("transfer"))
	assert.False(t, ValidActionType("escalate"))
}
