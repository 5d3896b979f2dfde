package recipient

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nneessen/commissionTracker-sub026/internal/config"
	"github.com/nneessen/commissionTracker-sub026/internal/directory"
	"github.com/nneessen/commissionTracker-sub026/internal/hierarchy"
	"github.com/nneessen/commissionTracker-sub026/internal/observability"
	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

// Resolver dispatches a recipient spec to its strategy. Stateless across
// calls; concurrent resolutions are fully independent.
type Resolver struct {
	dir    directory.AgentDirectory
	refs   directory.ReferenceDirectory
	graph  *hierarchy.Graph
	cfg    config.EngineConfig
	logger *observability.Logger
	tracer trace.Tracer
}

// Option is a functional option for configuring a Resolver.
type Option func(*Resolver)

// WithLogger configures the resolver's structured logger.
func WithLogger(logger *observability.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithTracer configures an OpenTelemetry tracer for resolution spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Resolver) { r.tracer = tracer }
}

// WithEngineConfig overrides the default fan-out and traversal bounds.
func WithEngineConfig(cfg config.EngineConfig) Option {
	return func(r *Resolver) { r.cfg = cfg }
}

// NewResolver creates a Resolver over the given directories. refs may be
// nil when no workflow uses the policy/commission strategies.
func NewResolver(dir directory.AgentDirectory, refs directory.ReferenceDirectory, opts ...Option) *Resolver {
	r := &Resolver{
		dir:  dir,
		refs: refs,
		cfg:  config.DefaultConfig().Engine,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = observability.Default("recipient")
	}
	r.graph = hierarchy.NewGraph(dir, r.logger)
	return r
}

// Resolve turns (spec, context) into a deduplicated, capped recipient
// list. Strategy failures are swallowed into an empty result plus a
// logged warning; the only error Resolve returns is
// DIRECTORY_UNAVAILABLE, when the directory cannot be reached at all and
// no meaningful partial answer exists.
func (r *Resolver) Resolve(ctx context.Context, spec Spec, evctx EventContext) (types.ResolvedRecipients, error) {
	var span trace.Span
	if r.tracer != nil {
		ctx, span = r.tracer.Start(ctx, "recipient.resolve",
			trace.WithAttributes(attribute.String("recipient.spec_type", string(spec.Type))),
		)
		defer span.End()
	}

	max := spec.MaxRecipients
	if max <= 0 {
		max = r.cfg.DefaultMaxRecipients
	}

	result, err := r.dispatch(ctx, spec, evctx, max)
	if err != nil {
		if types.IsCode(err, types.DIRECTORY_UNAVAILABLE) {
			return types.Empty(), err
		}
		r.logger.Warn(ctx, "recipient strategy failed",
			"spec_type", spec.Type, "error", err)
		return types.Empty(), nil
	}

	if span != nil {
		span.SetAttributes(
			attribute.Int("recipient.count", len(result.Recipients)),
			attribute.Bool("recipient.truncated", result.Truncated),
		)
	}

	return result, nil
}

// dispatch selects the strategy for the normalized spec type. The default
// arm is the unknown-type case: empty result, logged warning, no error.
func (r *Resolver) dispatch(ctx context.Context, spec Spec, evctx EventContext, max int) (types.ResolvedRecipients, error) {
	switch spec.Normalize() {
	case TypeDirectUpline, TypePipelineUpline:
		return r.resolveDirectUpline(ctx, evctx, max)
	case TypeDirectDownline:
		return r.resolveDirectDownline(ctx, evctx, max)
	case TypeEntireDownline:
		return r.resolveEntireDownline(ctx, evctx, max)
	case TypeUplineChain:
		return r.resolveUplineChain(ctx, evctx, max)

	case TypeRole:
		return r.resolveByRoles(ctx, spec.Roles, max)
	case TypeAllAgents:
		return r.resolveByRoles(ctx, []string{string(types.RoleAgent)}, max)
	case TypeAllManagers:
		return r.resolveByRoles(ctx, []string{string(types.RoleManager)}, max)
	case TypeAllTrainers:
		return r.resolveByRoles(ctx, []string{string(types.RoleTrainer)}, max)
	case TypeAdmins:
		return r.resolveByRoles(ctx, []string{string(types.RoleAdmin)}, max)

	case TypePolicyAgent:
		return r.resolvePolicyAgent(ctx, evctx.PolicyID, max)
	case TypePolicyClient:
		return r.resolvePolicyClient(ctx, evctx, max)
	case TypeCommissionRecipient:
		return r.resolveCommissionRecipient(ctx, evctx, max)
	case TypeEventUser:
		return r.resolveEventUser(ctx, evctx, max)

	case TypePipelinePhase:
		return r.resolvePipelinePhase(ctx, spec, max)
	case TypePipelineRecruiter:
		return r.resolvePipelineRecruiter(ctx, evctx, max)

	case TypeSpecificEmail:
		return r.resolveSpecificEmail(spec, max)
	case TypeEmailList:
		return r.resolveEmailList(spec, max)
	case TypeDynamicField:
		return r.resolveDynamicField(ctx, spec, evctx, max)
	case TypeTriggerUser:
		return r.resolveTriggerUser(evctx, max)

	default:
		r.logger.Warn(ctx, "unknown recipient type",
			"code", types.UNKNOWN_SPEC_TYPE, "spec_type", spec.Type)
		return types.Empty(), nil
	}
}

// resolveDirectUpline resolves the subject's immediate upline: 0 or 1
// recipients, never more.
func (r *Resolver) resolveDirectUpline(ctx context.Context, evctx EventContext, max int) (types.ResolvedRecipients, error) {
	subjectID := evctx.SubjectID()
	if subjectID == "" {
		r.logger.Debug(ctx, "direct_upline: no subject in event context",
			"code", types.MISSING_CONTEXT_FIELD)
		return types.Empty(), nil
	}

	subject, err := r.dir.GetByID(ctx, subjectID)
	if err != nil {
		return types.Empty(), err
	}
	if subject == nil || subject.UplineID == "" {
		return types.Empty(), nil
	}

	upline, err := r.dir.GetByID(ctx, subject.UplineID)
	if err != nil {
		return types.Empty(), err
	}
	if upline == nil || !upline.Addressable() {
		return types.Empty(), nil
	}

	return finalize([]types.Recipient{upline.Recipient()}, max), nil
}

func (r *Resolver) resolveDirectDownline(ctx context.Context, evctx EventContext, max int) (types.ResolvedRecipients, error) {
	subjectID := evctx.SubjectID()
	if subjectID == "" {
		return types.Empty(), nil
	}

	reports := r.graph.Descend(ctx, subjectID, 1, 0)
	return finalize(agentsToRecipients(reports), max), nil
}

func (r *Resolver) resolveEntireDownline(ctx context.Context, evctx EventContext, max int) (types.ResolvedRecipients, error) {
	subjectID := evctx.SubjectID()
	if subjectID == "" {
		return types.Empty(), nil
	}

	// Collect one past the cap so truncation is observable.
	subtree := r.graph.Descend(ctx, subjectID, r.cfg.MaxDownlineDepth, max+1)
	return finalize(agentsToRecipients(subtree), max), nil
}

func (r *Resolver) resolveUplineChain(ctx context.Context, evctx EventContext, max int) (types.ResolvedRecipients, error) {
	subjectID := evctx.SubjectID()
	if subjectID == "" {
		return types.Empty(), nil
	}

	chain := r.graph.Ascend(ctx, subjectID, min(max, r.cfg.MaxUplineDepth))
	return finalize(agentsToRecipients(chain), max), nil
}

func (r *Resolver) resolveByRoles(ctx context.Context, roles []string, max int) (types.ResolvedRecipients, error) {
	if len(roles) == 0 {
		return types.Empty(), nil
	}

	agents, err := r.dir.GetByRole(ctx, roles, max+1)
	if err != nil {
		return types.Empty(), err
	}
	return finalize(agentsToRecipients(agents), max), nil
}

func (r *Resolver) resolvePolicyAgent(ctx context.Context, policyID types.ID, max int) (types.ResolvedRecipients, error) {
	if policyID == "" {
		r.logger.Debug(ctx, "policy_agent: no policy in event context",
			"code", types.MISSING_CONTEXT_FIELD)
		return types.Empty(), nil
	}
	if r.refs == nil {
		return types.Empty(), types.NewError(types.DIRECTORY_READ_FAILED, "no reference directory configured")
	}

	agent, err := r.refs.PolicyAgent(ctx, policyID)
	if err != nil {
		return types.Empty(), err
	}
	if agent == nil || !agent.Addressable() {
		return types.Empty(), nil
	}
	return finalize([]types.Recipient{agent.Recipient()}, max), nil
}

func (r *Resolver) resolvePolicyClient(ctx context.Context, evctx EventContext, max int) (types.ResolvedRecipients, error) {
	if evctx.PolicyID == "" {
		return types.Empty(), nil
	}
	if r.refs == nil {
		return types.Empty(), types.NewError(types.DIRECTORY_READ_FAILED, "no reference directory configured")
	}

	client, err := r.refs.PolicyClient(ctx, evctx.PolicyID)
	if err != nil {
		return types.Empty(), err
	}
	if client == nil || client.Email == "" {
		return types.Empty(), nil
	}
	return finalize([]types.Recipient{*client}, max), nil
}

// resolveCommissionRecipient resolves the agent behind a commission's
// policy, falling back to the context's policy when no commission id is
// present.
func (r *Resolver) resolveCommissionRecipient(ctx context.Context, evctx EventContext, max int) (types.ResolvedRecipients, error) {
	if evctx.CommissionID == "" {
		return r.resolvePolicyAgent(ctx, evctx.PolicyID, max)
	}
	if r.refs == nil {
		return types.Empty(), types.NewError(types.DIRECTORY_READ_FAILED, "no reference directory configured")
	}

	policyID, err := r.refs.CommissionPolicyID(ctx, evctx.CommissionID)
	if err != nil {
		return types.Empty(), err
	}
	if policyID == "" {
		return types.Empty(), nil
	}
	return r.resolvePolicyAgent(ctx, policyID, max)
}

func (r *Resolver) resolveEventUser(ctx context.Context, evctx EventContext, max int) (types.ResolvedRecipients, error) {
	userID := evctx.EventUser()
	if userID == "" {
		return types.Empty(), nil
	}

	agent, err := r.dir.GetByID(ctx, userID)
	if err != nil {
		return types.Empty(), err
	}
	if agent == nil || !agent.Addressable() {
		return types.Empty(), nil
	}
	return finalize([]types.Recipient{agent.Recipient()}, max), nil
}

func (r *Resolver) resolvePipelinePhase(ctx context.Context, spec Spec, max int) (types.ResolvedRecipients, error) {
	if len(spec.PhaseIDs) == 0 {
		return types.Empty(), nil
	}

	agents, err := r.dir.GetByPipelinePhase(ctx, spec.PhaseIDs, spec.PhaseStatuses, max+1)
	if err != nil {
		return types.Empty(), err
	}
	return finalize(agentsToRecipients(agents), max), nil
}

func (r *Resolver) resolvePipelineRecruiter(ctx context.Context, evctx EventContext, max int) (types.ResolvedRecipients, error) {
	subjectID := evctx.SubjectID()
	if subjectID == "" {
		return types.Empty(), nil
	}

	subject, err := r.dir.GetByID(ctx, subjectID)
	if err != nil {
		return types.Empty(), err
	}
	if subject == nil || subject.RecruiterID == "" {
		return types.Empty(), nil
	}

	recruiter, err := r.dir.GetByID(ctx, subject.RecruiterID)
	if err != nil {
		return types.Empty(), err
	}
	if recruiter == nil || !recruiter.Addressable() {
		return types.Empty(), nil
	}
	return finalize([]types.Recipient{recruiter.Recipient()}, max), nil
}

func (r *Resolver) resolveSpecificEmail(spec Spec, max int) (types.ResolvedRecipients, error) {
	if len(spec.Emails) == 0 || !ValidEmail(spec.Emails[0]) {
		return types.Empty(), nil
	}
	// A literal address is not a user: no id, no name.
	return finalize([]types.Recipient{{Email: spec.Emails[0]}}, max), nil
}

func (r *Resolver) resolveEmailList(spec Spec, max int) (types.ResolvedRecipients, error) {
	recipients := make([]types.Recipient, 0, len(spec.Emails))
	for _, email := range spec.Emails {
		if ValidEmail(email) {
			recipients = append(recipients, types.Recipient{Email: email})
		}
	}
	return finalize(recipients, max), nil
}

func (r *Resolver) resolveDynamicField(ctx context.Context, spec Spec, evctx EventContext, max int) (types.ResolvedRecipients, error) {
	if spec.FieldPath == "" {
		return types.Empty(), nil
	}

	value, ok := evctx.Lookup(spec.FieldPath)
	if !ok {
		r.logger.Debug(ctx, "dynamic_field: path did not resolve", "field_path", spec.FieldPath)
		return types.Empty(), nil
	}

	email, ok := value.(string)
	if !ok || !ValidEmail(email) {
		r.logger.Debug(ctx, "dynamic_field: value is not an email", "field_path", spec.FieldPath)
		return types.Empty(), nil
	}
	return finalize([]types.Recipient{{Email: email}}, max), nil
}

func (r *Resolver) resolveTriggerUser(evctx EventContext, max int) (types.ResolvedRecipients, error) {
	email := evctx.SubjectEmail()
	if email == "" {
		return types.Empty(), nil
	}
	return finalize([]types.Recipient{{ID: evctx.SubjectID(), Email: email}}, max), nil
}
