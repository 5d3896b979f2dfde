package types

import "strings"

// RoleName identifies an organizational role carried by an agent.
type RoleName string

// Well-known roles. The fixed-role recipient strategies (all_agents,
// all_managers, all_trainers, admins) resolve against these.
const (
	RoleAgent   RoleName = "agent"
	RoleManager RoleName = "manager"
	RoleTrainer RoleName = "trainer"
	RoleAdmin   RoleName = "admin"
)

// AgentNode is one person in the organization as the directory reports it.
// The engine treats it as immutable for the duration of one resolution.
//
// UplineID and RecruiterID are weak back-references: lookup keys into the
// directory, never ownership edges. Traversals must never chase them
// without a visited-set guard because a malformed hierarchy can contain
// cycles.
type AgentNode struct {
	ID              ID       `json:"id" yaml:"id"`
	UplineID        ID       `json:"uplineId,omitempty" yaml:"upline_id,omitempty"`
	RecruiterID     ID       `json:"recruiterId,omitempty" yaml:"recruiter_id,omitempty"`
	Roles           []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	PipelinePhaseID ID       `json:"pipelinePhaseId,omitempty" yaml:"pipeline_phase_id,omitempty"`
	PipelineStatus  string   `json:"pipelineStatus,omitempty" yaml:"pipeline_status,omitempty"`
	Email           string   `json:"email" yaml:"email"`
	DisplayName     string   `json:"displayName,omitempty" yaml:"display_name,omitempty"`
	IsActive        bool     `json:"isActive" yaml:"is_active"`
}

// HasRole reports whether the agent carries the given role.
func (a *AgentNode) HasRole(role RoleName) bool {
	for _, r := range a.Roles {
		if RoleName(r) == role {
			return true
		}
	}
	return false
}

// Addressable reports whether the agent can receive a notification:
// active and with a non-empty email.
func (a *AgentNode) Addressable() bool {
	return a.IsActive && a.Email != ""
}

// Recipient returns the agent as a notification recipient.
func (a *AgentNode) Recipient() Recipient {
	return Recipient{ID: a.ID, Email: a.Email, Name: a.DisplayName}
}

// Recipient is one addressable target of a notification. ID and Name are
// empty for recipients that are not users (literal emails, policy clients).
type Recipient struct {
	ID    ID     `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// ResolvedRecipients is the result of one resolution. Invariants: no two
// entries share an ID or a case-insensitively equal email, and the length
// never exceeds the spec's recipient cap. Truncated reports whether the
// cap discarded anyone.
type ResolvedRecipients struct {
	Recipients []Recipient `json:"recipients"`
	Truncated  bool        `json:"truncated"`
}

// Empty returns a zero-recipient result. This is the value every strategy
// falls back to; it is deliberately not an error.
func Empty() ResolvedRecipients {
	return ResolvedRecipients{Recipients: []Recipient{}}
}

// Single wraps one recipient as a result.
func Single(r Recipient) ResolvedRecipients {
	return ResolvedRecipients{Recipients: []Recipient{r}}
}

// PipelinePhase is a stage in the recruiting/onboarding sequence. External
// reference data, used only to filter agents by phase and status.
type PipelinePhase struct {
	ID    ID     `json:"id" yaml:"id"`
	Order int    `json:"order" yaml:"order"`
	Name  string `json:"name" yaml:"name"`
}

// ProductionMetrics aggregates an agent's book of business for org chart
// annotation.
type ProductionMetrics struct {
	PoliciesWritten int     `json:"policiesWritten"`
	PoliciesActive  int     `json:"policiesActive"`
	TotalPremium    float64 `json:"totalPremium"`
	TotalCommission float64 `json:"totalCommission"`
}

// NormalizeEmail lowercases an email for case-insensitive identity
// comparison. Dedup keys use this; stored recipient emails keep their
// original casing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
