package directory

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	// SQLite driver; the product database ships with the JSON1 extension
	// enabled, which the role queries rely on.
	_ "github.com/mattn/go-sqlite3"

	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

// SQLiteDirectory is an AgentDirectory and ReferenceDirectory over the
// product's SQLite database.
type SQLiteDirectory struct {
	db *sql.DB
}

// SQLiteConfig holds connection settings for the SQLite backend.
type SQLiteConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration
}

// DefaultSQLiteConfig returns sensible connection defaults for path.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		Path:            path,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
	}
}

// OpenSQLite opens the database in WAL mode with foreign keys on and
// verifies connectivity. An unreachable database reports
// DIRECTORY_UNAVAILABLE.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteDirectory, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d",
		cfg.Path,
		int(cfg.BusyTimeout.Milliseconds()),
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.DB_OPEN_FAILED, "failed to open database", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, types.WrapRetryableError(types.DIRECTORY_UNAVAILABLE, "failed to ping database", err)
	}

	return &SQLiteDirectory{db: db}, nil
}

// Close closes the database connection.
func (d *SQLiteDirectory) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// InitSchema creates the tables the directory reads. The production
// database is migrated externally; this exists for fixtures and local use.
func (d *SQLiteDirectory) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS agents (
			id                TEXT PRIMARY KEY,
			upline_id         TEXT REFERENCES agents(id),
			recruiter_id      TEXT REFERENCES agents(id),
			roles             TEXT NOT NULL DEFAULT '[]',
			pipeline_phase_id TEXT,
			pipeline_status   TEXT,
			email             TEXT NOT NULL DEFAULT '',
			display_name      TEXT NOT NULL DEFAULT '',
			is_active         INTEGER NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_agents_upline ON agents(upline_id);
		CREATE INDEX IF NOT EXISTS idx_agents_phase ON agents(pipeline_phase_id);

		CREATE TABLE IF NOT EXISTS clients (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS policies (
			id             TEXT PRIMARY KEY,
			agent_id       TEXT REFERENCES agents(id),
			client_id      TEXT REFERENCES clients(id),
			status         TEXT NOT NULL DEFAULT '',
			annual_premium REAL NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_policies_agent ON policies(agent_id);

		CREATE TABLE IF NOT EXISTS commissions (
			id        TEXT PRIMARY KEY,
			policy_id TEXT REFERENCES policies(id),
			agent_id  TEXT REFERENCES agents(id),
			amount    REAL NOT NULL DEFAULT 0,
			status    TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_commissions_agent ON commissions(agent_id);
	`
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return types.WrapError(types.DB_OPEN_FAILED, "failed to initialize schema", err)
	}
	return nil
}

const agentColumns = `id, upline_id, recruiter_id, roles, pipeline_phase_id, pipeline_status, email, display_name, is_active`

// GetByID implements AgentDirectory.
func (d *SQLiteDirectory) GetByID(ctx context.Context, id types.ID) (*types.AgentNode, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = ?`
	agent, err := scanAgent(d.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		return nil, wrapReadError("get agent by id", err)
	}
	return agent, nil
}

// GetChildrenOf implements AgentDirectory. The whole frontier is fetched
// in one query.
func (d *SQLiteDirectory) GetChildrenOf(ctx context.Context, ids []types.ID) ([]*types.AgentNode, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + agentColumns + ` FROM agents WHERE upline_id IN (` + placeholders(len(ids)) + `) ORDER BY upline_id, id`
	rows, err := d.db.QueryContext(ctx, query, toArgs(idStrings(ids))...)
	if err != nil {
		return nil, wrapReadError("get children", err)
	}
	defer rows.Close()

	return collectAgents(rows, "get children")
}

// GetByRole implements AgentDirectory. Role intersection uses json_each
// over the roles array column.
func (d *SQLiteDirectory) GetByRole(ctx context.Context, roles []string, limit int) ([]*types.AgentNode, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + agentColumns + ` FROM agents
		WHERE is_active = 1 AND email != ''
		AND EXISTS (
			SELECT 1 FROM json_each(agents.roles)
			WHERE json_each.value IN (` + placeholders(len(roles)) + `)
		)
		ORDER BY id`
	args := toArgs(roles)
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapReadError("get by role", err)
	}
	defer rows.Close()

	return collectAgents(rows, "get by role")
}

// GetByPipelinePhase implements AgentDirectory.
func (d *SQLiteDirectory) GetByPipelinePhase(ctx context.Context, phaseIDs []types.ID, statuses []string, limit int) ([]*types.AgentNode, error) {
	if len(phaseIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + agentColumns + ` FROM agents
		WHERE is_active = 1 AND email != ''
		AND pipeline_phase_id IN (` + placeholders(len(phaseIDs)) + `)`
	args := toArgs(idStrings(phaseIDs))

	if len(statuses) > 0 {
		query += ` AND pipeline_status IN (` + placeholders(len(statuses)) + `)`
		args = append(args, toArgs(statuses)...)
	}

	query += ` ORDER BY id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapReadError("get by pipeline phase", err)
	}
	defer rows.Close()

	return collectAgents(rows, "get by pipeline phase")
}

// GetRoots implements AgentDirectory.
func (d *SQLiteDirectory) GetRoots(ctx context.Context) ([]*types.AgentNode, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE upline_id IS NULL OR upline_id = '' ORDER BY id`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapReadError("get roots", err)
	}
	defer rows.Close()

	return collectAgents(rows, "get roots")
}

// PolicyAgent implements ReferenceDirectory.
func (d *SQLiteDirectory) PolicyAgent(ctx context.Context, policyID types.ID) (*types.AgentNode, error) {
	query := `
		SELECT ` + qualify(agentColumns, "a") + `
		FROM policies p JOIN agents a ON a.id = p.agent_id
		WHERE p.id = ?`
	agent, err := scanAgent(d.db.QueryRowContext(ctx, query, policyID.String()))
	if err != nil {
		return nil, wrapReadError("get policy agent", err)
	}
	return agent, nil
}

// PolicyClient implements ReferenceDirectory.
func (d *SQLiteDirectory) PolicyClient(ctx context.Context, policyID types.ID) (*types.Recipient, error) {
	query := `
		SELECT c.name, c.email
		FROM policies p JOIN clients c ON c.id = p.client_id
		WHERE p.id = ? AND c.email != ''`

	var name, email string
	err := d.db.QueryRowContext(ctx, query, policyID.String()).Scan(&name, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapReadError("get policy client", err)
	}
	return &types.Recipient{Email: email, Name: name}, nil
}

// CommissionPolicyID implements ReferenceDirectory.
func (d *SQLiteDirectory) CommissionPolicyID(ctx context.Context, commissionID types.ID) (types.ID, error) {
	var policyID sql.NullString
	err := d.db.QueryRowContext(ctx,
		`SELECT policy_id FROM commissions WHERE id = ?`, commissionID.String()).Scan(&policyID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", wrapReadError("get commission policy", err)
	}
	return types.ID(policyID.String), nil
}

// ProductionMetrics implements ReferenceDirectory. Both aggregates are
// computed in single grouped queries over the id set.
func (d *SQLiteDirectory) ProductionMetrics(ctx context.Context, agentIDs []types.ID) (map[types.ID]types.ProductionMetrics, error) {
	out := make(map[types.ID]types.ProductionMetrics)
	if len(agentIDs) == 0 {
		return out, nil
	}

	policyQuery := `
		SELECT agent_id,
			COUNT(*),
			SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'active' THEN annual_premium ELSE 0 END)
		FROM policies
		WHERE agent_id IN (` + placeholders(len(agentIDs)) + `)
		GROUP BY agent_id`
	rows, err := d.db.QueryContext(ctx, policyQuery, toArgs(idStrings(agentIDs))...)
	if err != nil {
		return nil, wrapReadError("get production metrics", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var m types.ProductionMetrics
		if err := rows.Scan(&id, &m.PoliciesWritten, &m.PoliciesActive, &m.TotalPremium); err != nil {
			return nil, wrapReadError("scan production metrics", err)
		}
		out[types.ID(id)] = m
	}
	if err := rows.Err(); err != nil {
		return nil, wrapReadError("get production metrics", err)
	}

	commissionQuery := `
		SELECT agent_id, SUM(amount)
		FROM commissions
		WHERE agent_id IN (` + placeholders(len(agentIDs)) + `)
		GROUP BY agent_id`
	crows, err := d.db.QueryContext(ctx, commissionQuery, toArgs(idStrings(agentIDs))...)
	if err != nil {
		return nil, wrapReadError("get commission metrics", err)
	}
	defer crows.Close()

	for crows.Next() {
		var id string
		var total float64
		if err := crows.Scan(&id, &total); err != nil {
			return nil, wrapReadError("scan commission metrics", err)
		}
		m := out[types.ID(id)]
		m.TotalCommission = total
		out[types.ID(id)] = m
	}
	if err := crows.Err(); err != nil {
		return nil, wrapReadError("get commission metrics", err)
	}

	return out, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*types.AgentNode, error) {
	var agent types.AgentNode
	var id string
	var uplineID, recruiterID, phaseID, phaseStatus sql.NullString
	var rolesJSON string
	var isActive int

	err := row.Scan(
		&id,
		&uplineID,
		&recruiterID,
		&rolesJSON,
		&phaseID,
		&phaseStatus,
		&agent.Email,
		&agent.DisplayName,
		&isActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	agent.ID = types.ID(id)
	agent.UplineID = types.ID(uplineID.String)
	agent.RecruiterID = types.ID(recruiterID.String)
	agent.PipelinePhaseID = types.ID(phaseID.String)
	agent.PipelineStatus = phaseStatus.String
	agent.IsActive = isActive != 0

	if rolesJSON != "" {
		if err := json.Unmarshal([]byte(rolesJSON), &agent.Roles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal roles: %w", err)
		}
	}

	return &agent, nil
}

func collectAgents(rows *sql.Rows, op string) ([]*types.AgentNode, error) {
	var out []*types.AgentNode
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, wrapReadError(op, err)
		}
		out = append(out, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapReadError(op, err)
	}
	return out, nil
}

// wrapReadError classifies a backend failure: dead connections surface as
// DIRECTORY_UNAVAILABLE (the one error Resolve propagates), everything
// else as DIRECTORY_READ_FAILED.
func wrapReadError(op string, err error) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return types.WrapRetryableError(types.DIRECTORY_UNAVAILABLE, op+" failed", err)
	}
	return types.WrapError(types.DIRECTORY_READ_FAILED, op+" failed", err)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// qualify prefixes each column in a comma-separated list with a table
// alias.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
