// Package recipient turns a declarative recipient spec plus the context of
// a triggering event into a concrete, deduplicated, capped recipient list.
package recipient

import (
	"regexp"

	"github.com/mitchellh/mapstructure"

	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

// SpecType identifies one resolution strategy.
type SpecType string

// The closed set of recipient strategies. Legacy aliases from older
// workflow definitions (manager, eventuser, triggeruser, currentuser) are
// folded into their canonical spelling by Normalize.
const (
	// Hierarchy-based.
	TypeDirectUpline   SpecType = "direct_upline"
	TypeDirectDownline SpecType = "direct_downline"
	TypeEntireDownline SpecType = "entire_downline"
	TypeUplineChain    SpecType = "upline_chain"

	// Role-based.
	TypeRole        SpecType = "role"
	TypeAllAgents   SpecType = "all_agents"
	TypeAllManagers SpecType = "all_managers"
	TypeAllTrainers SpecType = "all_trainers"
	TypeAdmins      SpecType = "admins"

	// Event context.
	TypePolicyAgent         SpecType = "policy_agent"
	TypePolicyClient        SpecType = "policy_client"
	TypeCommissionRecipient SpecType = "commission_recipient"
	TypeEventUser           SpecType = "event_user"

	// Pipeline.
	TypePipelinePhase     SpecType = "pipeline_phase"
	TypePipelineRecruiter SpecType = "pipeline_recruiter"
	TypePipelineUpline    SpecType = "pipeline_upline"

	// Custom.
	TypeSpecificEmail SpecType = "specific_email"
	TypeEmailList     SpecType = "email_list"
	TypeDynamicField  SpecType = "dynamic_field"
	TypeTriggerUser   SpecType = "trigger_user"
)

// aliases maps legacy spec type spellings to canonical ones.
var aliases = map[SpecType]SpecType{
	"manager":     TypeDirectUpline,
	"eventuser":   TypeEventUser,
	"triggeruser": TypeTriggerUser,
	"currentuser": TypeTriggerUser,
}

// Spec is the declarative "who should be notified" attached to a workflow.
// Exactly one Type is set; the other fields qualify it per strategy. An
// unknown or missing Type resolves to an empty result, never an error.
type Spec struct {
	Type          SpecType   `json:"type" yaml:"type"`
	Roles         []string   `json:"roles,omitempty" yaml:"roles,omitempty"`
	Emails        []string   `json:"emails,omitempty" yaml:"emails,omitempty"`
	PhaseIDs      []types.ID `json:"phaseIds,omitempty" yaml:"phase_ids,omitempty"`
	PhaseStatuses []string   `json:"phaseStatuses,omitempty" yaml:"phase_statuses,omitempty"`
	FieldPath     string     `json:"fieldPath,omitempty" yaml:"field_path,omitempty"`
	MaxRecipients int        `json:"maxRecipients,omitempty" yaml:"max_recipients,omitempty"`
}

// Normalize returns the canonical spec type, folding legacy aliases.
func (s Spec) Normalize() SpecType {
	if canonical, ok := aliases[s.Type]; ok {
		return canonical
	}
	return s.Type
}

// DecodeSpec decodes a spec from the loosely-typed map the workflow engine
// stores with each workflow definition. Field names follow the JSON tags.
func DecodeSpec(raw map[string]any) (Spec, error) {
	var spec Spec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &spec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Spec{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// emailPattern matches the same shape the product has always accepted:
// something@something.something, no whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email looks like a deliverable address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// agentsToRecipients converts addressable agents to recipients, dropping
// inactive or email-less entries.
func agentsToRecipients(agents []*types.AgentNode) []types.Recipient {
	out := make([]types.Recipient, 0, len(agents))
	for _, agent := range agents {
		if agent != nil && agent.Addressable() {
			out = append(out, agent.Recipient())
		}
	}
	return out
}
