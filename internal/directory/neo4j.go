package directory

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

// Neo4jDirectory is an AgentDirectory over a Neo4j mirror of the
// hierarchy: (:Agent)-[:REPORTS_TO]->(:Agent) edges follow the upline
// pointer. Reference data (policies, clients, commissions) stays in the
// relational store, so this backend implements AgentDirectory only.
type Neo4jDirectory struct {
	config Neo4jConfig
	driver neo4j.DriverWithContext
}

// Neo4jConfig holds connection settings for the Neo4j backend.
type Neo4jConfig struct {
	URI                   string
	Username              string
	Password              string
	Database              string
	MaxConnectionPoolSize int
	ConnectionTimeout     time.Duration
}

// DefaultNeo4jConfig returns connection defaults for a local instance.
func DefaultNeo4jConfig() Neo4jConfig {
	return Neo4jConfig{
		URI:                   "bolt://localhost:7687",
		Username:              "neo4j",
		MaxConnectionPoolSize: 50,
		ConnectionTimeout:     30 * time.Second,
	}
}

// NewNeo4jDirectory creates an unconnected Neo4j directory. Call Connect
// before use.
func NewNeo4jDirectory(cfg Neo4jConfig) (*Neo4jDirectory, error) {
	if cfg.URI == "" {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "neo4j URI cannot be empty")
	}
	return &Neo4jDirectory{config: cfg}, nil
}

// Connect establishes the driver connection with exponential backoff. A
// store that never becomes reachable reports DIRECTORY_UNAVAILABLE.
func (d *Neo4jDirectory) Connect(ctx context.Context) error {
	auth := neo4j.BasicAuth(d.config.Username, d.config.Password, "")

	driverConfig := func(config *neo4j.Config) {
		config.MaxConnectionPoolSize = d.config.MaxConnectionPoolSize
		config.ConnectionAcquisitionTimeout = d.config.ConnectionTimeout
	}

	var lastErr error
	maxRetries := 5
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		driver, err := neo4j.NewDriverWithContext(d.config.URI, auth, driverConfig)
		if err == nil {
			if err = driver.VerifyConnectivity(ctx); err == nil {
				d.driver = driver
				return nil
			}
		}
		lastErr = err

		if ctx.Err() != nil {
			return types.WrapRetryableError(types.DIRECTORY_UNAVAILABLE,
				"connection attempt cancelled", ctx.Err())
		}

		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > d.config.ConnectionTimeout {
			delay = d.config.ConnectionTimeout
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return types.WrapRetryableError(types.DIRECTORY_UNAVAILABLE,
				"connection attempt cancelled", ctx.Err())
		}
	}

	return types.WrapRetryableError(types.DIRECTORY_UNAVAILABLE,
		fmt.Sprintf("failed to connect after %d attempts", maxRetries), lastErr)
}

// Close releases the driver.
func (d *Neo4jDirectory) Close(ctx context.Context) error {
	if d.driver == nil {
		return nil
	}
	if err := d.driver.Close(ctx); err != nil {
		return types.WrapError(types.DIRECTORY_READ_FAILED, "failed to close driver", err)
	}
	d.driver = nil
	return nil
}

// GetByID implements AgentDirectory.
func (d *Neo4jDirectory) GetByID(ctx context.Context, id types.ID) (*types.AgentNode, error) {
	records, err := d.read(ctx,
		`MATCH (a:Agent {id: $id}) RETURN a`,
		map[string]any{"id": id.String()})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return agentFromRecord(records[0])
}

// GetChildrenOf implements AgentDirectory; the whole frontier goes to the
// store in one query.
func (d *Neo4jDirectory) GetChildrenOf(ctx context.Context, ids []types.ID) ([]*types.AgentNode, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, err := d.read(ctx,
		`MATCH (a:Agent)-[:REPORTS_TO]->(parent:Agent)
		 WHERE parent.id IN $ids
		 RETURN a ORDER BY parent.id, a.id`,
		map[string]any{"ids": idStrings(ids)})
	if err != nil {
		return nil, err
	}
	return agentsFromRecords(records)
}

// GetByRole implements AgentDirectory.
func (d *Neo4jDirectory) GetByRole(ctx context.Context, roles []string, limit int) ([]*types.AgentNode, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	cypher := `MATCH (a:Agent)
		WHERE a.isActive AND a.email <> ''
		AND any(r IN a.roles WHERE r IN $roles)
		RETURN a ORDER BY a.id`
	params := map[string]any{"roles": roles}
	if limit > 0 {
		cypher += ` LIMIT $limit`
		params["limit"] = limit
	}

	records, err := d.read(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return agentsFromRecords(records)
}

// GetByPipelinePhase implements AgentDirectory.
func (d *Neo4jDirectory) GetByPipelinePhase(ctx context.Context, phaseIDs []types.ID, statuses []string, limit int) ([]*types.AgentNode, error) {
	if len(phaseIDs) == 0 {
		return nil, nil
	}
	cypher := `MATCH (a:Agent)
		WHERE a.isActive AND a.email <> ''
		AND a.pipelinePhaseId IN $phaseIds`
	params := map[string]any{"phaseIds": idStrings(phaseIDs)}
	if len(statuses) > 0 {
		cypher += ` AND a.pipelineStatus IN $statuses`
		params["statuses"] = statuses
	}
	cypher += ` RETURN a ORDER BY a.id`
	if limit > 0 {
		cypher += ` LIMIT $limit`
		params["limit"] = limit
	}

	records, err := d.read(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return agentsFromRecords(records)
}

// GetRoots implements AgentDirectory.
func (d *Neo4jDirectory) GetRoots(ctx context.Context) ([]*types.AgentNode, error) {
	records, err := d.read(ctx,
		`MATCH (a:Agent)
		 WHERE NOT (a)-[:REPORTS_TO]->(:Agent)
		 RETURN a ORDER BY a.id`, nil)
	if err != nil {
		return nil, err
	}
	return agentsFromRecords(records)
}

// read executes a Cypher query in a read transaction and returns the "a"
// column of each record as a property map.
func (d *Neo4jDirectory) read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	if d.driver == nil {
		return nil, types.NewRetryableError(types.DIRECTORY_UNAVAILABLE, "driver not connected")
	}

	session := d.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: d.config.Database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]map[string]any, 0, len(records))
		for _, record := range records {
			value, ok := record.Get("a")
			if !ok {
				continue
			}
			node, ok := value.(neo4j.Node)
			if !ok {
				continue
			}
			out = append(out, node.Props)
		}
		return out, nil
	})
	if err != nil {
		return nil, types.WrapError(types.DIRECTORY_READ_FAILED, "query execution failed", err)
	}

	return result.([]map[string]any), nil
}

func agentFromRecord(props map[string]any) (*types.AgentNode, error) {
	agent := &types.AgentNode{
		ID:              types.ID(stringProp(props, "id")),
		UplineID:        types.ID(stringProp(props, "uplineId")),
		RecruiterID:     types.ID(stringProp(props, "recruiterId")),
		PipelinePhaseID: types.ID(stringProp(props, "pipelinePhaseId")),
		PipelineStatus:  stringProp(props, "pipelineStatus"),
		Email:           stringProp(props, "email"),
		DisplayName:     stringProp(props, "displayName"),
	}
	if active, ok := props["isActive"].(bool); ok {
		agent.IsActive = active
	}
	if roles, ok := props["roles"].([]any); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok {
				agent.Roles = append(agent.Roles, s)
			}
		}
	}
	if agent.ID == "" {
		return nil, types.NewError(types.DIRECTORY_READ_FAILED, "agent node missing id property")
	}
	return agent, nil
}

func agentsFromRecords(records []map[string]any) ([]*types.AgentNode, error) {
	out := make([]*types.AgentNode, 0, len(records))
	for _, props := range records {
		agent, err := agentFromRecord(props)
		if err != nil {
			return nil, err
		}
		out = append(out, agent)
	}
	return out, nil
}

func stringProp(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}
