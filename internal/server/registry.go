package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowloom/engine/internal/types"
)

// WorkflowMeta is a stored workflow definition plus registry bookkeeping.
// Adapted from the teacher's WorkflowRegistry: where the teacher stores an
// opaque json.RawMessage blob per entry, this registry stores the typed
// types.Workflow directly so Validate can run at save time rather than at
// every subsequent execute.
type WorkflowMeta struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Workflow    types.Workflow `json:"workflow"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// WorkflowSummary is the lightweight entry returned by List.
type WorkflowSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WorkflowRegistry holds workflow definitions server-side. Workflow CRUD
// lives entirely at this HTTP layer (spec.md §1 scopes transport as
// out-of-scope core): capability.Store only persists credentials, MCP
// registrations, and executions, never workflow definitions themselves.
type WorkflowRegistry struct {
	mu        sync.RWMutex
	workflows map[string]*WorkflowMeta
}

// NewWorkflowRegistry returns an empty registry.
func NewWorkflowRegistry() *WorkflowRegistry {
	return &WorkflowRegistry{workflows: make(map[string]*WorkflowMeta)}
}

// Register validates and stores workflow under a freshly minted ID.
func (r *WorkflowRegistry) Register(name, description string, workflow types.Workflow) (string, error) {
	if name == "" {
		return "", fmt.Errorf("workflow name is required")
	}
	if err := workflow.Validate(); err != nil {
		return "", fmt.Errorf("invalid workflow: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	workflow.ID = id
	now := time.Now().UTC()
	r.workflows[id] = &WorkflowMeta{
		ID:          id,
		Name:        name,
		Description: description,
		Workflow:    workflow,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return id, nil
}

// Update replaces an existing workflow's name, description, and definition.
func (r *WorkflowRegistry) Update(id, name, description string, workflow types.Workflow) error {
	if err := workflow.Validate(); err != nil {
		return fmt.Errorf("invalid workflow: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.workflows[id]
	if !ok {
		return fmt.Errorf("workflow %q not found", id)
	}
	workflow.ID = id
	existing.Name = name
	existing.Description = description
	existing.Workflow = workflow
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

// Get returns a copy of the workflow meta stored under id.
func (r *WorkflowRegistry) Get(id string) (*WorkflowMeta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.workflows[id]
	if !ok {
		return nil, fmt.Errorf("workflow %q not found", id)
	}
	out := *meta
	return &out, nil
}

// Unregister removes a workflow by ID.
func (r *WorkflowRegistry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workflows[id]; !ok {
		return fmt.Errorf("workflow %q not found", id)
	}
	delete(r.workflows, id)
	return nil
}

// List returns every stored workflow's summary.
func (r *WorkflowRegistry) List() []WorkflowSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]WorkflowSummary, 0, len(r.workflows))
	for _, meta := range r.workflows {
		out = append(out, WorkflowSummary{
			ID:          meta.ID,
			Name:        meta.Name,
			Description: meta.Description,
			CreatedAt:   meta.CreatedAt,
			UpdatedAt:   meta.UpdatedAt,
		})
	}
	return out
}
