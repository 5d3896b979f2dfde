package recipient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

func TestDedupe(t *testing.T) {
	in := []types.Recipient{
		{ID: "a", Email: "a@x.com"},
		{ID: "a", Email: "other@x.com"}, // duplicate id
		{ID: "b", Email: "A@X.COM"},     // duplicate email, different case
		{Email: "c@x.com"},
		{Email: "c@x.com"}, // duplicate literal
		{ID: "d", Email: "d@x.com"},
	}

	out := Dedupe(in)

	assert.Equal(t, []types.Recipient{
		{ID: "a", Email: "a@x.com"},
		{Email: "c@x.com"},
		{ID: "d", Email: "d@x.com"},
	}, out)
}

func TestDedupeEmptyIDsDoNotCollide(t *testing.T) {
	// Literal-email recipients have no id; two distinct addresses must both
	// survive.
	in := []types.Recipient{
		{Email: "one@x.com"},
		{Email: "two@x.com"},
	}

	assert.Len(t, Dedupe(in), 2)
}

func TestCap(t *testing.T) {
	in := []types.Recipient{
		{Email: "1@x.com"},
		{Email: "2@x.com"},
		{Email: "3@x.com"},
	}

	capped, truncated := Cap(in, 2)
	assert.Len(t, capped, 2)
	assert.True(t, truncated)
	assert.Equal(t, "1@x.com", capped[0].Email, "input order decides survivors")

	capped, truncated = Cap(in, 3)
	assert.Len(t, capped, 3)
	assert.False(t, truncated)

	capped, truncated = Cap(nil, 5)
	assert.Empty(t, capped)
	assert.False(t, truncated)
}

func TestFinalizeDedupesBeforeCapping(t *testing.T) {
	// Two entries, one a duplicate: after dedup the survivor count fits the
	// cap and no truncation is reported.
	in := []types.Recipient{
		{Email: "a@x.com"},
		{Email: "A@x.com"},
	}

	result := finalize(in, 1)
	assert.Len(t, result.Recipients, 1)
	assert.False(t, result.Truncated, "dedup discards are not truncation")
}
