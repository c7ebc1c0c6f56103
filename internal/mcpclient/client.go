package mcpclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/flowloom/engine/internal/capability"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

const transportStreamableHTTP = "streamable-http"

// StreamableHTTPClient implements capability.McpClient for the
// "streamable-http" transport; any other McpServer.Transport value yields an
// empty tool list from ListTools and an error from CallTool, per spec §6.
type StreamableHTTPClient struct {
	HTTPClient *http.Client

	nextID atomic.Int64
}

// NewStreamableHTTPClient wraps httpClient, defaulting to http.DefaultClient.
func NewStreamableHTTPClient(httpClient *http.Client) *StreamableHTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &StreamableHTTPClient{HTTPClient: httpClient}
}

// ListTools implements capability.McpClient.
func (c *StreamableHTTPClient) ListTools(ctx context.Context, server types.McpServer) ([]capability.McpTool, error) {
	if server.Transport != transportStreamableHTTP {
		return nil, nil
	}

	var result toolsListResult
	if err := c.call(ctx, server, "tools/list", nil, &result); err != nil {
		return nil, fmt.Errorf("mcpclient: tools/list: %w", err)
	}

	tools := make([]capability.McpTool, 0, len(result.Tools))
	for _, t := range result.Tools {
		schema := value.Null()
		if len(t.InputSchema) > 0 {
			parsed, err := value.Parse(t.InputSchema)
			if err == nil {
				schema = parsed
			}
		}
		tools = append(tools, capability.McpTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return tools, nil
}

// CallTool implements capability.McpClient.
func (c *StreamableHTTPClient) CallTool(ctx context.Context, server types.McpServer, name string, args value.Value) (value.Value, error) {
	if server.Transport != transportStreamableHTTP {
		return value.Null(), fmt.Errorf("mcpclient: unsupported transport %q", server.Transport)
	}

	params := toolsCallParams{Name: name, Arguments: args.Raw()}

	var result toolsCallResult
	if err := c.call(ctx, server, "tools/call", params, &result); err != nil {
		return value.Null(), fmt.Errorf("mcpclient: tools/call: %w", err)
	}

	if result.IsError {
		return value.Null(), fmt.Errorf("mcpclient: tool %q returned an error result", name)
	}

	if len(result.StructuredContent) > 0 {
		return value.Parse(result.StructuredContent)
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return value.String(text.String()), nil
}

func (c *StreamableHTTPClient) call(ctx context.Context, server types.McpServer, method string, params interface{}, out interface{}) error {
	id := c.nextID.Add(1)
	reqBody, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, server.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	applyHeaders(httpReq, server)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	contentType := resp.Header.Get("Content-Type")
	var rpcResp rpcResponse
	if strings.HasPrefix(contentType, "text/event-stream") {
		rpcResp, err = readSSEResponse(resp.Body)
	} else {
		err = json.NewDecoder(resp.Body).Decode(&rpcResp)
	}
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}

func applyHeaders(req *http.Request, server types.McpServer) {
	if !server.Headers.IsObject() {
		return
	}
	for _, key := range server.Headers.Keys() {
		v, _ := server.Headers.Get(key)
		if v.IsString() {
			req.Header.Set(key, v.Str())
		}
	}
}

// readSSEResponse reads an SSE stream until a "message" event carrying a
// JSON-RPC response is seen, per the MCP streamable-http transport spec.
func readSSEResponse(body io.Reader) (rpcResponse, error) {
	reader := bufio.NewReader(body)
	var data []byte
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && len(data) > 0 {
				break
			}
			return rpcResponse{}, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(data) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if after, ok := strings.CutPrefix(line, "data:"); ok {
			chunk := strings.TrimPrefix(after, " ")
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, chunk...)
		}
	}

	var resp rpcResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return rpcResponse{}, fmt.Errorf("decode sse payload: %w", err)
	}
	return resp, nil
}
