package recipient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

func TestSpecNormalizeAliases(t *testing.T) {
	tests := []struct {
		in   SpecType
		want SpecType
	}{
		{"manager", TypeDirectUpline},
		{"eventuser", TypeEventUser},
		{"triggeruser", TypeTriggerUser},
		{"currentuser", TypeTriggerUser},
		{TypeUplineChain, TypeUplineChain},
		{"something_else", "something_else"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Spec{Type: tt.in}.Normalize())
	}
}

func TestDecodeSpec(t *testing.T) {
	raw := map[string]any{
		"type":          "pipeline_phase",
		"phaseIds":      []any{"phase-1", "phase-2"},
		"phaseStatuses": []any{"in_progress"},
		"maxRecipients": 25,
	}

	spec, err := DecodeSpec(raw)
	require.NoError(t, err)

	assert.Equal(t, TypePipelinePhase, spec.Type)
	assert.Equal(t, []types.ID{"phase-1", "phase-2"}, spec.PhaseIDs)
	assert.Equal(t, []string{"in_progress"}, spec.PhaseStatuses)
	assert.Equal(t, 25, spec.MaxRecipients)
}

func TestDecodeSpecWeakTyping(t *testing.T) {
	// Stored workflow definitions frequently carry numbers as strings and
	// single values where lists belong.
	raw := map[string]any{
		"type":          "email_list",
		"emails":        "solo@example.com",
		"maxRecipients": "10",
	}

	spec, err := DecodeSpec(raw)
	require.NoError(t, err)

	assert.Equal(t, TypeEmailList, spec.Type)
	assert.Equal(t, []string{"solo@example.com"}, spec.Emails)
	assert.Equal(t, 10, spec.MaxRecipients)
}

func TestDecodeSpecIgnoresUnknownKeys(t *testing.T) {
	spec, err := DecodeSpec(map[string]any{
		"type":       "trigger_user",
		"legacyFlag": true,
	})
	require.NoError(t, err)
	assert.Equal(t, TypeTriggerUser, spec.Type)
}

func TestValidEmail(t *testing.T) {
	valid := []string{
		"a@b.co",
		"first.last+tag@sub.domain.example",
		"UPPER@EXAMPLE.COM",
	}
	for _, email := range valid {
		assert.True(t, ValidEmail(email), email)
	}

	invalid := []string{
		"",
		"plain",
		"no-at.example.com",
		"no-dot@example",
		"two@@example.com",
		"spaces in@example.com",
		"trailing@example.com ",
	}
	for _, email := range invalid {
		assert.False(t, ValidEmail(email), email)
	}
}
