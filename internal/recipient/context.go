package recipient

import (
	"github.com/ohler55/ojg/jp"

	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

// EventContext describes the business event that triggered a workflow:
// who triggered it and which policy, commission, or user it concerns.
// Constructed once per event, read-only during resolution, discarded
// afterwards. Extra carries free-form event fields reachable only through
// the dynamic_field strategy.
type EventContext struct {
	TriggeredBy      types.ID       `json:"triggeredBy,omitempty" yaml:"triggered_by,omitempty"`
	TriggeredByEmail string         `json:"triggeredByEmail,omitempty" yaml:"triggered_by_email,omitempty"`
	RecipientID      types.ID       `json:"recipientId,omitempty" yaml:"recipient_id,omitempty"`
	RecipientEmail   string         `json:"recipientEmail,omitempty" yaml:"recipient_email,omitempty"`
	PolicyID         types.ID       `json:"policyId,omitempty" yaml:"policy_id,omitempty"`
	CommissionID     types.ID       `json:"commissionId,omitempty" yaml:"commission_id,omitempty"`
	EventUserID      types.ID       `json:"eventUserId,omitempty" yaml:"event_user_id,omitempty"`
	Extra            map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// SubjectID is the agent the event is about: the explicit recipient when
// set, otherwise whoever triggered the event. Hierarchy strategies walk
// from here.
func (c EventContext) SubjectID() types.ID {
	if c.RecipientID != "" {
		return c.RecipientID
	}
	return c.TriggeredBy
}

// SubjectEmail mirrors SubjectID for email fields.
func (c EventContext) SubjectEmail() string {
	if c.RecipientEmail != "" {
		return c.RecipientEmail
	}
	return c.TriggeredByEmail
}

// EventUser is the user id the event_user strategy resolves: the explicit
// event user when set, otherwise the recipient.
func (c EventContext) EventUser() types.ID {
	if c.EventUserID != "" {
		return c.EventUserID
	}
	return c.RecipientID
}

// asMap renders the context as the flat namespaced record dynamic_field
// paths address. Well-known fields sit at the top level under their JSON
// names; Extra merges in beside them without overriding.
func (c EventContext) asMap() map[string]any {
	m := map[string]any{
		"triggeredBy":      c.TriggeredBy.String(),
		"triggeredByEmail": c.TriggeredByEmail,
		"recipientId":      c.RecipientID.String(),
		"recipientEmail":   c.RecipientEmail,
		"policyId":         c.PolicyID.String(),
		"commissionId":     c.CommissionID.String(),
		"eventUserId":      c.EventUserID.String(),
	}
	for k, v := range c.Extra {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	return m
}

// Lookup resolves a dotted path ("claim.adjuster.email") against the
// context record. Pure data navigation, no dynamic code execution. ok is
// false when the path is malformed or resolves to nothing.
func (c EventContext) Lookup(dottedPath string) (any, bool) {
	if dottedPath == "" {
		return nil, false
	}

	expr, err := jp.ParseString(dottedPath)
	if err != nil {
		return nil, false
	}

	value := expr.First(c.asMap())
	if value == nil {
		return nil, false
	}
	return value, true
}
