package capability

import (
	"context"
	"time"

	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// Store persists workflows, credentials, MCP registrations, and executions.
// The engine only needs the slice below (spec §6); CRUD over workflows
// themselves lives entirely at the host's HTTP layer.
type Store interface {
	GetCredential(ctx context.Context, id string) (*types.Credential, error)
	GetMcpServer(ctx context.Context, id string) (*types.McpServer, error)
	SaveExecution(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecutionStatus(ctx context.Context, id string, status types.Status, results []types.NodeResult, endTime *time.Time, snapshot *types.Snapshot) error
	GetExecution(ctx context.Context, id string) (*types.ExecutionRecord, error)
	// FindWaitingBySlackTimestamp locates the single waiting execution whose
	// snapshot.waitInfo.ts equals ts, used by the Slack resume webhook.
	FindWaitingBySlackTimestamp(ctx context.Context, ts string) (*types.ExecutionRecord, error)
}

// BasicAuth carries HTTP Basic credentials.
type BasicAuth struct {
	User     string
	Password string
}

// HttpClient sends a single outbound HTTP request.
type HttpClient interface {
	Send(ctx context.Context, method, url string, headers map[string]string, basicAuth *BasicAuth, body []byte) (statusCode int, respHeaders map[string]string, respBody []byte, err error)
}

// ChatMessage is one turn of an LLM conversation, shaped to carry tool
// calls/results in both directions.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the tool and carries its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSchema describes one callable tool to the model.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  value.Value
}

// ChatRequest is a provider-agnostic chat-completions request.
type ChatRequest struct {
	Model            string
	Messages         []ChatMessage
	Tools            []ToolSchema
	Temperature      *float64
	MaxTokens        *int
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
}

// ChatResponse is the normalised reply: either Content is set (final text)
// or ToolCalls is non-empty (the model wants to call tools). Raw preserves
// the provider's full JSON payload for handlers that return it verbatim.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
	Raw       value.Value
}

// ImageRequest describes an image-generation call.
type ImageRequest struct {
	Prompt string
	Size   string
	Model  string
	Count  int
}

// ImageResponse carries the provider's raw JSON payload.
type ImageResponse struct {
	Raw value.Value
}

// LlmClient talks to OpenAI-compatible chat/image APIs. OpenRouter and the
// "llm" convenience node both route through Chat/OpenRouter's shared wire
// shape (see DESIGN.md).
type LlmClient interface {
	OpenAIChat(ctx context.Context, apiKey string, req ChatRequest) (ChatResponse, error)
	OpenAIImage(ctx context.Context, apiKey string, req ImageRequest) (ImageResponse, error)
	OpenRouterChat(ctx context.Context, apiKey string, req ChatRequest) (ChatResponse, error)
}

// McpTool describes one tool offered by an MCP server.
type McpTool struct {
	Name        string
	Description string
	InputSchema value.Value
}

// McpClient is a stateless, per-call client to a single MCP server.
type McpClient interface {
	ListTools(ctx context.Context, server types.McpServer) ([]McpTool, error)
	CallTool(ctx context.Context, server types.McpServer, name string, args value.Value) (value.Value, error)
}

// JsRunner executes sandboxed JavaScript. Implementations must isolate
// untrusted code.
type JsRunner interface {
	Run(ctx context.Context, code string, input value.Value) (value.Value, error)
}

// PyRunner executes sandboxed Python. Implementations must isolate
// untrusted code.
type PyRunner interface {
	Run(ctx context.Context, code string, input value.Value) (value.Value, error)
}

// Clock abstracts time so the "wait" node's sleep is cancellable and
// testable.
type Clock interface {
	NowUTC() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// FeedItem is one parsed RSS/Atom entry.
type FeedItem struct {
	ID        string
	Title     string
	Link      string
	Summary   string
	Content   string
	Published string
	Updated   string
	Author    string
}

// Feed is a parsed RSS/Atom document.
type Feed struct {
	Items []FeedItem
}

// FeedParser parses RSS/Atom bytes into a Feed.
type FeedParser interface {
	Parse(data []byte) (Feed, error)
}

// FileEntry is one file matched by FileIO.ReadGlob.
type FileEntry struct {
	Path string
	Data []byte
}

// FileIO abstracts local file access so tests can mock it.
type FileIO interface {
	ReadGlob(pattern string) ([]FileEntry, error)
	WriteFile(path string, data []byte, append bool) error
}
