package recipient

import "github.com/nneessen/commissionTracker-sub026/internal/types"

// Fan-out policy: every strategy runs its candidates through Dedupe then
// Cap before returning, so the resolver never needs per-type
// post-processing.

// Dedupe removes entries whose non-empty ID or case-insensitively equal
// email was already seen, preserving first-seen order.
func Dedupe(recipients []types.Recipient) []types.Recipient {
	seenID := make(map[types.ID]bool, len(recipients))
	seenEmail := make(map[string]bool, len(recipients))

	out := make([]types.Recipient, 0, len(recipients))
	for _, r := range recipients {
		if r.ID != "" && seenID[r.ID] {
			continue
		}
		emailKey := types.NormalizeEmail(r.Email)
		if emailKey != "" && seenEmail[emailKey] {
			continue
		}
		if r.ID != "" {
			seenID[r.ID] = true
		}
		if emailKey != "" {
			seenEmail[emailKey] = true
		}
		out = append(out, r)
	}
	return out
}

// Cap truncates to the first max entries in input order and reports
// whether anyone was dropped. Which entries survive is decided purely by
// order; no priority scheme exists.
func Cap(recipients []types.Recipient, max int) ([]types.Recipient, bool) {
	if max <= 0 || len(recipients) <= max {
		return recipients, false
	}
	return recipients[:max], true
}

// finalize applies the full fan-out policy and wraps the result.
func finalize(recipients []types.Recipient, max int) types.ResolvedRecipients {
	deduped := Dedupe(recipients)
	capped, truncated := Cap(deduped, max)
	return types.ResolvedRecipients{Recipients: capped, Truncated: truncated}
}
