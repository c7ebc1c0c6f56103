package mcpclient

import "encoding/json"

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return e.Message }

type toolsListResult struct {
	Tools []toolDescriptor `json:"tools"`
}

type toolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type toolsCallParams struct {
	Name      string      `json:"name"`
	Arguments interface{} `json:"arguments"`
}

type toolsCallResult struct {
	Content           []toolContentBlock `json:"content"`
	StructuredContent json.RawMessage    `json:"structuredContent"`
	IsError           bool               `json:"isError"`
}

type toolContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
