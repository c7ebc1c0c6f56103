package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowloom/engine/internal/types"
)

// MemoryStore implements capability.Store over in-process maps, guarded by
// a single RWMutex. Grounded on the teacher's InMemoryStore: read accessors
// return copies so callers cannot mutate stored state through the pointer
// they receive.
type MemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]types.Credential
	mcpServers  map[string]types.McpServer
	executions  map[string]types.ExecutionRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		credentials: make(map[string]types.Credential),
		mcpServers:  make(map[string]types.McpServer),
		executions:  make(map[string]types.ExecutionRecord),
	}
}

// SeedCredential inserts or replaces a credential; used by hosts populating
// the store outside the engine's own write path (the engine only reads
// credentials).
func (s *MemoryStore) SeedCredential(cred types.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[cred.ID] = cred
}

// SeedMcpServer inserts or replaces an MCP server registration.
func (s *MemoryStore) SeedMcpServer(server types.McpServer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mcpServers[server.ID] = server
}

// GetCredential implements capability.Store.
func (s *MemoryStore) GetCredential(ctx context.Context, id string) (*types.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[id]
	if !ok {
		return nil, fmt.Errorf("storage: credential %q not found", id)
	}
	out := cred
	return &out, nil
}

// GetMcpServer implements capability.Store.
func (s *MemoryStore) GetMcpServer(ctx context.Context, id string) (*types.McpServer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	server, ok := s.mcpServers[id]
	if !ok {
		return nil, fmt.Errorf("storage: MCP server %q not found", id)
	}
	out := server
	return &out, nil
}

// SaveExecution implements capability.Store.
func (s *MemoryStore) SaveExecution(ctx context.Context, record *types.ExecutionRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("storage: execution record requires an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[record.ID] = *record
	return nil
}

// UpdateExecutionStatus implements capability.Store.
func (s *MemoryStore) UpdateExecutionStatus(ctx context.Context, id string, status types.Status, results []types.NodeResult, endTime *time.Time, snapshot *types.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.executions[id]
	if !ok {
		return fmt.Errorf("storage: execution %q not found", id)
	}
	record.Status = status
	record.Results = results
	record.EndTime = endTime
	record.Snapshot = snapshot
	s.executions[id] = record
	return nil
}

// GetExecution implements capability.Store.
func (s *MemoryStore) GetExecution(ctx context.Context, id string) (*types.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.executions[id]
	if !ok {
		return nil, fmt.Errorf("storage: execution %q not found", id)
	}
	out := record
	return &out, nil
}

// FindWaitingBySlackTimestamp implements capability.Store.
func (s *MemoryStore) FindWaitingBySlackTimestamp(ctx context.Context, ts string) (*types.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.executions {
		if record.Status != types.StatusWaiting || record.Snapshot == nil {
			continue
		}
		waitTs, ok := record.Snapshot.WaitInfo.Get("ts")
		if ok && waitTs.IsString() && waitTs.Str() == ts {
			out := record
			return &out, nil
		}
	}
	return nil, fmt.Errorf("storage: no waiting execution for slack timestamp %q", ts)
}
