// Package agent implements the bounded tool-calling loop that backs the
// ai-agent node kind (spec §4.4): it sends the conversation to an
// OpenAI-compatible provider, resolves any requested tool calls (MCP tools,
// the inline rss-read-tool, or a canned fallback), and repeats until the
// model stops calling tools or the iteration bound is hit. Grounded on the
// teacher's executor.Registry dispatch style, generalised from a
// single-shot node execution into a multi-turn loop.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowloom/engine/internal/capability"
	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/metrics"
	"github.com/flowloom/engine/internal/observer"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// maxIterations bounds the tool-calling loop (spec §4.4).
const maxIterations = 10

// ToolNode describes one edge-attached tool the agent may call: a node of
// kind "tool" (optionally wired to an MCP server) or "rss-read-tool".
type ToolNode struct {
	NodeID string
	Kind   string
	Config value.Value
}

// Dependencies bundles the capabilities the loop needs, kept separate from
// handler.Capabilities since the agent loop is a reusable component, not a
// Handler itself.
type Dependencies struct {
	LlmClient  capability.LlmClient
	McpClient  capability.McpClient
	HTTPClient capability.HttpClient
	FeedParser capability.FeedParser
	Store      capability.Store
}

// Request carries one ai-agent invocation's parameters.
type Request struct {
	Provider      string // "openai" | "openrouter"
	APIKey        string
	Model         string
	Prompt        string
	SystemMessage string
	Tools         []ToolNode
	NodeID        string
	ExecutionID   string
}

// Observers and Metrics are supplied separately from Dependencies so tests
// exercising the loop's conversation mechanics don't need a telemetry
// fixture.
type Telemetry struct {
	Observers *observer.Manager
	Metrics   *metrics.Provider
}

type resolvedTool struct {
	schemaName  string
	description string
	schema      value.Value
	kind        string // "mcp" | "rss" | "generic"
	mcpServer   types.McpServer
	mcpToolName string
	rssConfig   value.Value
}

// Run executes the bounded agent loop against ctx-scoped deps and returns
// {text: <final content>} or an AgentError once the iteration bound is
// exceeded.
func Run(ctx context.Context, deps Dependencies, tel Telemetry, req Request) (value.Value, error) {
	tools, resolved, err := buildTools(ctx, deps, req.Tools)
	if err != nil {
		return value.Null(), err
	}

	var messages []capability.ChatMessage
	if req.SystemMessage != "" {
		messages = append(messages, capability.ChatMessage{Role: "system", Content: req.SystemMessage})
	}
	messages = append(messages, capability.ChatMessage{Role: "user", Content: req.Prompt})

	for iteration := 0; iteration < maxIterations; iteration++ {
		chatReq := capability.ChatRequest{
			Model:    req.Model,
			Messages: messages,
			Tools:    tools,
		}

		var resp capability.ChatResponse
		var callErr error
		if req.Provider == "openrouter" {
			resp, callErr = deps.LlmClient.OpenRouterChat(ctx, req.APIKey, chatReq)
		} else {
			resp, callErr = deps.LlmClient.OpenAIChat(ctx, req.APIKey, chatReq)
		}
		if callErr != nil {
			return value.Null(), engineerr.Agent(callErr.Error())
		}

		emitIteration(ctx, tel, req, len(resp.ToolCalls))

		if len(resp.ToolCalls) == 0 {
			out := value.NewObject()
			out.Set("text", value.String(resp.Content))
			return out, nil
		}

		messages = append(messages, capability.ChatMessage{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result := invokeTool(ctx, deps, resolved, call)
			messages = append(messages, capability.ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
	}

	return value.Null(), engineerr.Agent("Agent reached maximum iterations")
}

func emitIteration(ctx context.Context, tel Telemetry, req Request, toolCalls int) {
	if tel.Observers != nil {
		tel.Observers.Emit(ctx, observer.AuditEvent{
			Type:        observer.EventAgentIteration,
			ExecutionID: req.ExecutionID,
			NodeID:      req.NodeID,
			NodeKind:    "ai-agent",
			Metadata:    map[string]interface{}{"toolCalls": toolCalls},
		})
	}
	if tel.Metrics != nil {
		tel.Metrics.RecordAgentIteration(ctx, req.NodeID, toolCalls)
	}
}

func buildTools(ctx context.Context, deps Dependencies, nodes []ToolNode) ([]capability.ToolSchema, map[string]resolvedTool, error) {
	schemas := make([]capability.ToolSchema, 0, len(nodes))
	resolved := make(map[string]resolvedTool, len(nodes))

	for _, n := range nodes {
		if n.Kind == "rss-read-tool" {
			name := configStringDefault(n.Config, "toolName", "rss-read-tool")
			description := configStringDefault(n.Config, "description", "Fetch and search an RSS feed")
			params := value.NewObject()
			props := value.NewObject()
			queryProp := value.NewObject()
			queryProp.Set("type", value.String("string"))
			props.Set("query", queryProp)
			params.Set("type", value.String("object"))
			params.Set("properties", props)

			schemas = append(schemas, capability.ToolSchema{Name: name, Description: description, Parameters: params})
			resolved[name] = resolvedTool{schemaName: name, description: description, kind: "rss", rssConfig: n.Config}
			continue
		}

		serverID, hasServer := n.Config.Get("mcpServerId")
		toolName := configStringDefault(n.Config, "toolName", "")

		if hasServer && serverID.IsString() && serverID.Str() != "" {
			server, err := deps.Store.GetMcpServer(ctx, serverID.Str())
			if err != nil || server == nil {
				return nil, nil, engineerr.Config(fmt.Sprintf("mcp server %q not found", serverID.Str()))
			}
			mcpTools, err := deps.McpClient.ListTools(ctx, *server)
			if err != nil {
				return nil, nil, engineerr.External("MCP Error", err.Error(), err)
			}

			var matched *capability.McpTool
			for i := range mcpTools {
				if mcpTools[i].Name == toolName {
					matched = &mcpTools[i]
					break
				}
			}
			if matched == nil {
				return nil, nil, engineerr.Config(fmt.Sprintf("mcp tool %q not found on server %q", toolName, server.Name))
			}

			name := fmt.Sprintf("%s__%s", server.Name, matched.Name)
			schemas = append(schemas, capability.ToolSchema{Name: name, Description: matched.Description, Parameters: matched.InputSchema})
			resolved[name] = resolvedTool{
				schemaName:  name,
				description: matched.Description,
				schema:      matched.InputSchema,
				kind:        "mcp",
				mcpServer:   *server,
				mcpToolName: matched.Name,
			}
			continue
		}

		name := toolName
		if name == "" {
			name = n.NodeID
		}
		description := configStringDefault(n.Config, "description", "")
		params := value.NewObject()
		props := value.NewObject()
		queryProp := value.NewObject()
		queryProp.Set("type", value.String("string"))
		props.Set("query", queryProp)
		params.Set("type", value.String("object"))
		params.Set("properties", props)

		schemas = append(schemas, capability.ToolSchema{Name: name, Description: description, Parameters: params})
		resolved[name] = resolvedTool{schemaName: name, description: description, kind: "generic"}
	}

	return schemas, resolved, nil
}

// invokeTool runs the tool named by call.Function.Name and returns its
// result as a content string, capturing (not raising) any failure per spec
// §4.4/§4.5 "tool errors are captured, not raised".
func invokeTool(ctx context.Context, deps Dependencies, resolved map[string]resolvedTool, call capability.ToolCall) string {
	tool, ok := resolved[call.Function.Name]
	if !ok {
		return fmt.Sprintf("tool error: unknown tool %q", call.Function.Name)
	}

	args, err := value.Parse([]byte(call.Function.Arguments))
	if err != nil {
		args = value.NewObject()
	}

	switch tool.kind {
	case "mcp":
		if !tool.schema.IsNull() {
			if verr := validateAgainstSchema(tool.schema, args); verr != nil {
				return fmt.Sprintf("tool error: %s", verr.Error())
			}
		}
		result, err := deps.McpClient.CallTool(ctx, tool.mcpServer, tool.mcpToolName, args)
		if err != nil {
			return fmt.Sprintf("tool error: %s", err.Error())
		}
		return result.JSON()

	case "rss":
		return invokeRSSTool(ctx, deps, tool, args)

	default:
		return fmt.Sprintf("Tool %s executed successfully", call.Function.Name)
	}
}

func invokeRSSTool(ctx context.Context, deps Dependencies, tool resolvedTool, args value.Value) string {
	if deps.HTTPClient == nil || deps.FeedParser == nil {
		return "tool error: no feed capability configured"
	}

	url := configStringDefault(tool.rssConfig, "url", "")
	if url == "" {
		return "tool error: rss-read-tool missing url"
	}

	status, _, body, err := deps.HTTPClient.Send(ctx, "GET", url, nil, nil, nil)
	if err != nil {
		return fmt.Sprintf("tool error: %s", err.Error())
	}
	if status >= 400 {
		return fmt.Sprintf("tool error: feed request returned status %d", status)
	}

	feed, err := deps.FeedParser.Parse(body)
	if err != nil {
		return fmt.Sprintf("tool error: %s", err.Error())
	}

	query := ""
	if q, ok := args.Get("query"); ok && q.IsString() {
		query = strings.ToLower(q.Str())
	}

	items := make([]value.Value, 0, len(feed.Items))
	for _, it := range feed.Items {
		if query != "" && !strings.Contains(strings.ToLower(it.Title), query) {
			continue
		}
		obj := value.NewObject()
		obj.Set("title", value.String(it.Title))
		obj.Set("link", value.String(it.Link))
		obj.Set("summary", value.String(it.Summary))
		items = append(items, obj)
	}

	result := value.Array(items...)
	return result.JSON()
}

func validateAgainstSchema(schema, input value.Value) error {
	schemaBytes, err := json.Marshal(schema.Raw())
	if err != nil {
		return err
	}
	inputBytes, err := json.Marshal(input.Raw())
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(inputBytes))
	if err != nil {
		return err
	}
	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			descriptions = append(descriptions, e.String())
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(descriptions, "; "))
	}
	return nil
}

func configStringDefault(cfg value.Value, key, def string) string {
	if v, ok := cfg.Get(key); ok && v.IsString() {
		return v.Str()
	}
	return def
}
