package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// PostgresStore implements capability.Store on top of a pgxpool.Pool.
// Grounded on rakunlabs-at's postgres-backed store (same
// connect-once/reuse-pool shape, JSON columns for opaque config blobs), but
// built directly on pgx/v5 rather than database/sql + goqu since this
// package's query surface is small enough not to need a builder.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and pings it; it does not check that
// the schema created by Migrate exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Migrate creates the tables PostgresStore needs if they don't already
// exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS credentials (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	provider   TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS mcp_servers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	transport  TEXT NOT NULL,
	endpoint   TEXT,
	command    TEXT,
	args       JSONB,
	env        JSONB,
	headers    JSONB,
	auto_start BOOLEAN NOT NULL DEFAULT FALSE,
	status     TEXT NOT NULL DEFAULT 'unknown'
);

CREATE TABLE IF NOT EXISTS executions (
	id            TEXT PRIMARY KEY,
	workflow_id   TEXT NOT NULL,
	workflow_name TEXT NOT NULL,
	start_time    TIMESTAMPTZ NOT NULL,
	end_time      TIMESTAMPTZ,
	status        TEXT NOT NULL,
	results       JSONB NOT NULL DEFAULT '[]',
	snapshot      JSONB
);
`)
	if err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}

// GetCredential implements capability.Store.
func (s *PostgresStore) GetCredential(ctx context.Context, id string) (*types.Credential, error) {
	var cred types.Credential
	var data []byte
	row := s.pool.QueryRow(ctx, `SELECT id, name, provider, data, created_at FROM credentials WHERE id = $1`, id)
	if err := row.Scan(&cred.ID, &cred.Name, &cred.Provider, &data, &cred.CreatedAt); err != nil {
		return nil, fmt.Errorf("storage: credential %q: %w", id, err)
	}
	parsed, err := jsonToValue(data)
	if err != nil {
		return nil, err
	}
	cred.Data = parsed
	return &cred, nil
}

// GetMcpServer implements capability.Store.
func (s *PostgresStore) GetMcpServer(ctx context.Context, id string) (*types.McpServer, error) {
	var server types.McpServer
	var args, env, headers []byte
	row := s.pool.QueryRow(ctx, `
SELECT id, name, transport, endpoint, command, args, env, headers, auto_start, status
FROM mcp_servers WHERE id = $1`, id)
	if err := row.Scan(&server.ID, &server.Name, &server.Transport, &server.Endpoint, &server.Command,
		&args, &env, &headers, &server.AutoStart, &server.Status); err != nil {
		return nil, fmt.Errorf("storage: mcp server %q: %w", id, err)
	}

	var err error
	if server.Args, err = jsonToValue(args); err != nil {
		return nil, err
	}
	if server.Env, err = jsonToValue(env); err != nil {
		return nil, err
	}
	if server.Headers, err = jsonToValue(headers); err != nil {
		return nil, err
	}
	return &server, nil
}

// SaveExecution implements capability.Store.
func (s *PostgresStore) SaveExecution(ctx context.Context, record *types.ExecutionRecord) error {
	resultsJSON, err := json.Marshal(record.Results)
	if err != nil {
		return fmt.Errorf("storage: marshal results: %w", err)
	}
	snapshotJSON, err := marshalSnapshot(record.Snapshot)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO executions (id, workflow_id, workflow_name, start_time, end_time, status, results, snapshot)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	workflow_id = EXCLUDED.workflow_id, workflow_name = EXCLUDED.workflow_name,
	start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
	status = EXCLUDED.status, results = EXCLUDED.results, snapshot = EXCLUDED.snapshot`,
		record.ID, record.WorkflowID, record.WorkflowName, record.StartTime, record.EndTime,
		record.Status, resultsJSON, snapshotJSON)
	if err != nil {
		return fmt.Errorf("storage: save execution %q: %w", record.ID, err)
	}
	return nil
}

// UpdateExecutionStatus implements capability.Store.
func (s *PostgresStore) UpdateExecutionStatus(ctx context.Context, id string, status types.Status, results []types.NodeResult, endTime *time.Time, snapshot *types.Snapshot) error {
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("storage: marshal results: %w", err)
	}
	snapshotJSON, err := marshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
UPDATE executions SET status = $2, results = $3, end_time = $4, snapshot = $5 WHERE id = $1`,
		id, status, resultsJSON, endTime, snapshotJSON)
	if err != nil {
		return fmt.Errorf("storage: update execution %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: execution %q not found", id)
	}
	return nil
}

// GetExecution implements capability.Store.
func (s *PostgresStore) GetExecution(ctx context.Context, id string) (*types.ExecutionRecord, error) {
	var record types.ExecutionRecord
	var resultsJSON, snapshotJSON []byte
	row := s.pool.QueryRow(ctx, `
SELECT id, workflow_id, workflow_name, start_time, end_time, status, results, snapshot
FROM executions WHERE id = $1`, id)
	if err := row.Scan(&record.ID, &record.WorkflowID, &record.WorkflowName, &record.StartTime,
		&record.EndTime, &record.Status, &resultsJSON, &snapshotJSON); err != nil {
		return nil, fmt.Errorf("storage: execution %q: %w", id, err)
	}

	if err := json.Unmarshal(resultsJSON, &record.Results); err != nil {
		return nil, fmt.Errorf("storage: decode results: %w", err)
	}
	snapshot, err := unmarshalSnapshot(snapshotJSON)
	if err != nil {
		return nil, err
	}
	record.Snapshot = snapshot
	return &record, nil
}

// FindWaitingBySlackTimestamp implements capability.Store.
func (s *PostgresStore) FindWaitingBySlackTimestamp(ctx context.Context, ts string) (*types.ExecutionRecord, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, workflow_id, workflow_name, start_time, end_time, status, results, snapshot
FROM executions WHERE status = 'waiting' AND snapshot->'waitInfo'->>'ts' = $1 LIMIT 1`, ts)
	if err != nil {
		return nil, fmt.Errorf("storage: find waiting execution: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("storage: no waiting execution for slack timestamp %q", ts)
	}

	var record types.ExecutionRecord
	var resultsJSON, snapshotJSON []byte
	if err := rows.Scan(&record.ID, &record.WorkflowID, &record.WorkflowName, &record.StartTime,
		&record.EndTime, &record.Status, &resultsJSON, &snapshotJSON); err != nil {
		return nil, fmt.Errorf("storage: scan waiting execution: %w", err)
	}
	if err := json.Unmarshal(resultsJSON, &record.Results); err != nil {
		return nil, fmt.Errorf("storage: decode results: %w", err)
	}
	snapshot, err := unmarshalSnapshot(snapshotJSON)
	if err != nil {
		return nil, err
	}
	record.Snapshot = snapshot
	return &record, nil
}

func marshalSnapshot(snapshot *types.Snapshot) ([]byte, error) {
	if snapshot == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("storage: marshal snapshot: %w", err)
	}
	return data, nil
}

func unmarshalSnapshot(data []byte) (*types.Snapshot, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var snapshot types.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("storage: decode snapshot: %w", err)
	}
	return &snapshot, nil
}

func jsonToValue(data []byte) (value.Value, error) {
	if len(data) == 0 || string(data) == "null" {
		return value.Null(), nil
	}
	parsed, err := value.Parse(data)
	if err != nil {
		return value.Null(), fmt.Errorf("storage: decode json column: %w", err)
	}
	return parsed, nil
}
