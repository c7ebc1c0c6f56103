package mcpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

func TestListToolsReturnsEmptyForUnsupportedTransport(t *testing.T) {
	client := NewStreamableHTTPClient(nil)
	tools, err := client.ListTools(context.Background(), types.McpServer{Transport: "stdio"})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if tools != nil {
		t.Errorf("tools = %v, want nil", tools)
	}
}

func TestListToolsParsesJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "tools/list" {
			t.Errorf("method = %q, want tools/list", req.Method)
		}
		resp := rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  json.RawMessage(`{"tools":[{"name":"search","description":"search the web","inputSchema":{"type":"object"}}]}`),
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewStreamableHTTPClient(server.Client())
	tools, err := client.ListTools(context.Background(), types.McpServer{Transport: transportStreamableHTTP, Endpoint: server.URL})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "search" {
		t.Fatalf("tools = %+v", tools)
	}
}

func TestCallToolReturnsStructuredContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  json.RawMessage(`{"structuredContent":{"ok":true}}`),
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewStreamableHTTPClient(server.Client())
	result, err := client.CallTool(context.Background(), types.McpServer{Transport: transportStreamableHTTP, Endpoint: server.URL}, "search", value.NewObject())
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	ok, _ := result.Get("ok")
	if !ok.Bool() {
		t.Errorf("result = %v, want {ok:true}", result.Raw())
	}
}

func TestCallToolReturnsErrorOnIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  json.RawMessage(`{"isError":true,"content":[{"type":"text","text":"boom"}]}`),
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewStreamableHTTPClient(server.Client())
	_, err := client.CallTool(context.Background(), types.McpServer{Transport: transportStreamableHTTP, Endpoint: server.URL}, "search", value.NewObject())
	if err == nil {
		t.Fatal("expected error for isError result")
	}
}

func TestCallToolRejectsUnsupportedTransport(t *testing.T) {
	client := NewStreamableHTTPClient(nil)
	_, err := client.CallTool(context.Background(), types.McpServer{Transport: "stdio"}, "search", value.NewObject())
	if err == nil {
		t.Fatal("expected error for unsupported transport")
	}
}
