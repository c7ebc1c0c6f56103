package handler

import (
	"github.com/flowloom/engine/internal/agent"
	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// aiAgentHandler implements the ai-agent kind by collecting its attached
// tool nodes (edges with toPort=types.ToolPort) and delegating the bounded
// tool-calling loop to internal/agent (spec §4.4).
type aiAgentHandler struct{}

func (aiAgentHandler) Kind() string { return "ai-agent" }

func (h aiAgentHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	provider := configStringDefault(node.Config, "provider", "openai")
	envVar := "OPENAI_API_KEY"
	if provider == "openrouter" {
		envVar = "OPENROUTER_API_KEY"
	}

	apiKey, err := resolveAPIKey(ectx, node.Config, envVar)
	if err != nil {
		return value.Null(), err
	}

	model, ok := configString(node.Config, "model")
	if !ok {
		return value.Null(), engineerr.MissingField("model")
	}

	promptTemplate, ok := configString(node.Config, "prompt")
	if !ok {
		return value.Null(), engineerr.MissingField("prompt")
	}
	prompt := value.Interpolate(promptTemplate, input)

	systemMessage := value.Interpolate(configStringDefault(node.Config, "systemMessage", ""), input)

	if ectx.Capabilities.LlmClient == nil {
		return value.Null(), engineerr.Config("no LlmClient capability configured")
	}

	tools := h.collectToolNodes(ectx, node)

	req := agent.Request{
		Provider:      provider,
		APIKey:        apiKey,
		Model:         model,
		Prompt:        prompt,
		SystemMessage: systemMessage,
		Tools:         tools,
		NodeID:        node.ID,
		ExecutionID:   ectx.ExecutionID,
	}
	deps := agent.Dependencies{
		LlmClient:  ectx.Capabilities.LlmClient,
		McpClient:  ectx.Capabilities.McpClient,
		HTTPClient: ectx.Capabilities.HTTPClient,
		FeedParser: ectx.Capabilities.FeedParser,
		Store:      ectx.Capabilities.Store,
	}
	tel := agent.Telemetry{Observers: ectx.Observers, Metrics: ectx.Metrics}

	return agent.Run(ectx.Context(), deps, tel, req)
}

// collectToolNodes walks the owning workflow's edges for those arriving at
// node.ID on the reserved "tools" port, returning their source nodes of
// kind "tool" or "rss-read-tool" as agent.ToolNode entries (spec §4.4).
func (aiAgentHandler) collectToolNodes(ectx EngineContext, node types.Node) []agent.ToolNode {
	var tools []agent.ToolNode
	for _, edge := range ectx.Workflow.Edges {
		if edge.To != node.ID || edge.ToPort != types.ToolPort {
			continue
		}
		toolNode := ectx.Workflow.NodeByID(edge.From)
		if toolNode == nil {
			continue
		}
		if toolNode.Kind != "tool" && toolNode.Kind != "rss-read-tool" {
			continue
		}
		tools = append(tools, agent.ToolNode{
			NodeID: toolNode.ID,
			Kind:   toolNode.Kind,
			Config: toolNode.Config,
		})
	}
	return tools
}
