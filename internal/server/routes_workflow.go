package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/flowloom/engine/internal/driver"
	"github.com/flowloom/engine/internal/types"
)

type createWorkflowRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Workflow    types.Workflow `json:"workflow"`
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, s.config.MaxRequestBodySize)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	var req createWorkflowRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "failed to parse request", err)
		return
	}

	id, err := s.registry.Register(req.Name, req.Description, req.Workflow)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "failed to save workflow", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "id": id})
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	summaries := s.registry.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "workflows": summaries, "count": len(summaries)})
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	meta, err := s.registry.Get(id)
	if err != nil {
		writeError(w, s.logger, http.StatusNotFound, "workflow not found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "workflow": meta})
}

func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, err := readBody(w, r, s.config.MaxRequestBodySize)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	var req createWorkflowRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "failed to parse request", err)
		return
	}
	if err := s.registry.Update(id, req.Name, req.Description, req.Workflow); err != nil {
		writeError(w, s.logger, http.StatusNotFound, "failed to update workflow", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.registry.Unregister(id); err != nil {
		writeError(w, s.logger, http.StatusNotFound, "workflow not found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleExecuteByID runs a stored workflow, optionally overriding its entry
// node via the "triggerNodeId" request field.
func (s *Server) handleExecuteByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	meta, err := s.registry.Get(id)
	if err != nil {
		writeError(w, s.logger, http.StatusNotFound, "workflow not found", err)
		return
	}

	var req struct {
		TriggerNodeID *string `json:"triggerNodeId,omitempty"`
	}
	if body, err := readBody(w, r, s.config.MaxRequestBodySize); err == nil && len(body) > 0 {
		json.Unmarshal(body, &req)
	}

	executionID := uuid.New().String()
	submitExecution(r.Context(), w, s, executionID, meta.Workflow, req.TriggerNodeID)
}

// handleExecuteInline runs an ad-hoc workflow definition sent directly in
// the request body without first registering it (matches the teacher's
// single-shot execute endpoint).
func (s *Server) handleExecuteInline(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, s.config.MaxRequestBodySize)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	var req struct {
		Workflow      types.Workflow `json:"workflow"`
		TriggerNodeID *string        `json:"triggerNodeId,omitempty"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "failed to parse request", err)
		return
	}
	if err := req.Workflow.Validate(); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid workflow", err)
		return
	}

	executionID := uuid.New().String()
	submitExecution(r.Context(), w, s, executionID, req.Workflow, req.TriggerNodeID)
}

// submitExecution runs workflow synchronously through the pool and writes
// the resulting Envelope (spec §7 "User-visible behaviour").
func submitExecution(ctx context.Context, w http.ResponseWriter, s *Server, executionID string, workflow types.Workflow, triggerNodeID *string) {
	var env driver.Envelope
	if s.pool != nil {
		env = <-s.pool.Submit(ctx, executionID, workflow, triggerNodeID)
	} else {
		record, err := s.driver.Run(ctx, executionID, workflow, triggerNodeID)
		env = envelopeFromRecord(record, err)
	}

	code := http.StatusOK
	if !env.Success {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, env)
}

func envelopeFromRecord(record *types.ExecutionRecord, err error) driver.Envelope {
	env := driver.Envelope{ExecutionID: record.ID, Results: record.Results}
	switch {
	case err == nil:
		env.Success = true
	case err == driver.ErrPaused:
		env.Success = true
		env.Error = driver.ErrPaused.Error()
	default:
		env.Success = false
		env.Error = "Workflow execution failed"
	}
	return env
}
