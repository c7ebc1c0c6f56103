package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

func TestHttpRequestHandler_InterpolatesURLAndDefaultsMethod(t *testing.T) {
	client := &fakeHTTPClient{statusCode: 200, respBody: []byte(`{"ok":true}`)}
	ectx := NewEngineContext(context.Background(), Capabilities{HTTPClient: client}, types.Workflow{}, nil)

	cfg := value.NewObject()
	cfg.Set("url", value.String("https://api.example.com/users/{{ $input.id }}"))

	input := value.NewObject()
	input.Set("id", value.String("42"))

	h := httpRequestHandler{}
	out, err := h.Execute(ectx, types.Node{Kind: "http-request", Config: cfg}, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.lastMethod != "GET" {
		t.Fatalf("expected default method GET, got %q", client.lastMethod)
	}
	if client.lastURL != "https://api.example.com/users/42" {
		t.Fatalf("expected interpolated URL, got %q", client.lastURL)
	}
	ok, _ := out.Get("ok")
	if !ok.IsBool() || !ok.Bool() {
		t.Fatalf("expected parsed JSON body, got %v", out.JSON())
	}
}

func TestHttpRequestHandler_RejectsUnsupportedMethod(t *testing.T) {
	client := &fakeHTTPClient{statusCode: 200}
	ectx := NewEngineContext(context.Background(), Capabilities{HTTPClient: client}, types.Workflow{}, nil)

	cfg := value.NewObject()
	cfg.Set("url", value.String("https://api.example.com"))
	cfg.Set("method", value.String("TRACE"))

	h := httpRequestHandler{}
	_, err := h.Execute(ectx, types.Node{Kind: "http-request", Config: cfg}, value.NewObject())
	if err == nil {
		t.Fatal("expected error for unsupported method")
	}
}

func TestHttpRequestHandler_MissingURL(t *testing.T) {
	client := &fakeHTTPClient{}
	ectx := NewEngineContext(context.Background(), Capabilities{HTTPClient: client}, types.Workflow{}, nil)

	h := httpRequestHandler{}
	_, err := h.Execute(ectx, types.Node{Kind: "http-request", Config: value.NewObject()}, value.NewObject())
	if err == nil {
		t.Fatal("expected MissingField error for url")
	}
}

func TestHttpRequestHandler_MissingHTTPClientCapability(t *testing.T) {
	ectx := NewEngineContext(context.Background(), Capabilities{}, types.Workflow{}, nil)
	cfg := value.NewObject()
	cfg.Set("url", value.String("https://api.example.com"))

	h := httpRequestHandler{}
	_, err := h.Execute(ectx, types.Node{Kind: "http-request", Config: cfg}, value.NewObject())
	if err == nil {
		t.Fatal("expected error for missing HTTPClient capability")
	}
}

func TestHttpRequestHandler_BasicAuthAndHeaders(t *testing.T) {
	client := &fakeHTTPClient{statusCode: 204, respBody: []byte("")}
	ectx := NewEngineContext(context.Background(), Capabilities{HTTPClient: client}, types.Workflow{}, nil)

	headers := value.NewObject()
	headers.Set("X-Trace-Id", value.String("{{ $input.trace }}"))

	cfg := value.NewObject()
	cfg.Set("url", value.String("https://api.example.com"))
	cfg.Set("authentication", value.String("basicAuth"))
	cfg.Set("user", value.String("alice"))
	cfg.Set("password", value.String("hunter2"))
	cfg.Set("headers", headers)

	input := value.NewObject()
	input.Set("trace", value.String("abc-123"))

	h := httpRequestHandler{}
	if _, err := h.Execute(ectx, types.Node{Kind: "http-request", Config: cfg}, input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.lastAuth == nil || client.lastAuth.User != "alice" || client.lastAuth.Password != "hunter2" {
		t.Fatalf("expected basic auth to be set, got %+v", client.lastAuth)
	}
	if client.lastHeaders["X-Trace-Id"] != "abc-123" {
		t.Fatalf("expected interpolated header, got %v", client.lastHeaders)
	}
}

func TestHttpRequestHandler_FullResponseWrapsStatusAndBody(t *testing.T) {
	client := &fakeHTTPClient{statusCode: 404, respBody: []byte("not json")}
	ectx := NewEngineContext(context.Background(), Capabilities{HTTPClient: client}, types.Workflow{}, nil)

	cfg := value.NewObject()
	cfg.Set("url", value.String("https://api.example.com"))
	cfg.Set("fullResponse", value.Bool(true))

	h := httpRequestHandler{}
	out, err := h.Execute(ectx, types.Node{Kind: "http-request", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status, ok := out.Get("status_code")
	if !ok || status.Number() != 404 {
		t.Fatalf("expected status_code 404, got %v", out.JSON())
	}
	body, ok := out.Get("body")
	if !ok || body.Str() != "not json" {
		t.Fatalf("expected raw-string fallback body, got %v", out.JSON())
	}
}

func TestHttpRequestHandler_WrapsTransportErrors(t *testing.T) {
	client := &fakeHTTPClient{err: errors.New("connection refused")}
	ectx := NewEngineContext(context.Background(), Capabilities{HTTPClient: client}, types.Workflow{}, nil)

	cfg := value.NewObject()
	cfg.Set("url", value.String("https://api.example.com"))

	h := httpRequestHandler{}
	_, err := h.Execute(ectx, types.Node{Kind: "http-request", Config: cfg}, value.NewObject())
	if err == nil {
		t.Fatal("expected wrapped transport error")
	}
	var engErr *engineerr.Error
	if !errors.As(err, &engErr) || engErr.Kind != engineerr.KindExternal {
		t.Fatalf("expected ExternalError, got %v", err)
	}
}
