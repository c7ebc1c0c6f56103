package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/flowloom/engine/internal/driver"
	"github.com/flowloom/engine/internal/value"
)

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := s.driver.Store.GetExecution(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, http.StatusNotFound, "execution not found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "execution": record})
}

// handleResumeExecution resumes a waiting execution. The request body
// becomes resumeInput verbatim (spec §4.6 Resume); the workflow definition
// is looked up from the registry by the execution's persisted workflowId.
func (s *Server) handleResumeExecution(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := s.driver.Store.GetExecution(r.Context(), id)
	if err != nil || record == nil {
		writeError(w, s.logger, http.StatusNotFound, "execution not found", err)
		return
	}

	meta, err := s.registry.Get(record.WorkflowID)
	if err != nil {
		writeError(w, s.logger, http.StatusNotFound, "workflow not found for execution", err)
		return
	}

	body, err := readBody(w, r, s.config.MaxRequestBodySize)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	resumeInput := value.NewObject()
	if len(body) > 0 {
		var raw interface{}
		if jsonErr := json.Unmarshal(body, &raw); jsonErr != nil {
			writeError(w, s.logger, http.StatusBadRequest, "failed to parse resume payload", jsonErr)
			return
		}
		resumeInput = value.FromRaw(raw)
	}

	var env driver.Envelope
	if s.pool != nil {
		env = <-s.pool.SubmitResume(r.Context(), record, meta.Workflow, resumeInput)
	} else {
		resumed, runErr := s.driver.Resume(r.Context(), record, meta.Workflow, resumeInput)
		env = envelopeFromRecord(resumed, runErr)
	}

	code := http.StatusOK
	if !env.Success {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, env)
}

// slackInteractionPayload captures only the fields the resume webhook
// needs from Slack's interactive-message callback. Parsed directly against
// Slack's documented wire shape rather than through slack-go's API client
// types, since this is inbound payload decoding, not an outbound Slack API
// call (the slack-go dependency is already exercised by handler/slack.go's
// sendAndWait, which produced the ts this payload echoes back).
type slackInteractionPayload struct {
	Container struct {
		MessageTs string `json:"message_ts"`
	} `json:"container"`
	Actions []struct {
		Value string `json:"value"`
	} `json:"actions"`
}

// handleSlackInteractive resumes the execution a Slack sendAndWait node
// suspended on, once a user acts on the interactive message (spec §4.7,
// end-to-end scenario S4's external-signal path).
func (s *Server) handleSlackInteractive(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, s.config.MaxRequestBodySize)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "failed to parse webhook body", err)
		return
	}
	payloadJSON := form.Get("payload")
	if payloadJSON == "" {
		writeError(w, s.logger, http.StatusBadRequest, "missing payload field", nil)
		return
	}

	var payload slackInteractionPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "failed to parse interactive payload", err)
		return
	}
	if payload.Container.MessageTs == "" {
		writeError(w, s.logger, http.StatusBadRequest, "payload missing container.message_ts", nil)
		return
	}

	record, err := s.driver.Store.FindWaitingBySlackTimestamp(r.Context(), payload.Container.MessageTs)
	if err != nil || record == nil {
		writeError(w, s.logger, http.StatusNotFound, "no waiting execution for that message", err)
		return
	}
	meta, err := s.registry.Get(record.WorkflowID)
	if err != nil {
		writeError(w, s.logger, http.StatusNotFound, "workflow not found for execution", err)
		return
	}

	resumeInput := value.NewObject()
	if len(payload.Actions) > 0 {
		resumeInput.Set("action", value.String(payload.Actions[0].Value))
	}

	var env driver.Envelope
	if s.pool != nil {
		env = <-s.pool.SubmitResume(r.Context(), record, meta.Workflow, resumeInput)
	} else {
		resumed, runErr := s.driver.Resume(r.Context(), record, meta.Workflow, resumeInput)
		env = envelopeFromRecord(resumed, runErr)
	}

	code := http.StatusOK
	if !env.Success {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, env)
}
