package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/flowloom/engine/internal/capability"
	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

type fakeFeedParser struct {
	feed capability.Feed
	err  error
}

func (f *fakeFeedParser) Parse(data []byte) (capability.Feed, error) {
	if f.err != nil {
		return capability.Feed{}, f.err
	}
	return f.feed, nil
}

func TestRssFeedReadHandler_ReturnsParsedItems(t *testing.T) {
	httpClient := &fakeHTTPClient{statusCode: 200, respBody: []byte("<rss/>")}
	parser := &fakeFeedParser{feed: capability.Feed{Items: []capability.FeedItem{
		{ID: "1", Title: "First Post", Link: "https://example.com/1"},
	}}}
	ectx := NewEngineContext(context.Background(), Capabilities{HTTPClient: httpClient, FeedParser: parser}, types.Workflow{}, nil)

	cfg := value.NewObject()
	cfg.Set("url", value.String("https://example.com/feed.xml"))

	h := rssFeedReadHandler{}
	out, err := h.Execute(ectx, types.Node{Kind: "rss-feed-read", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("expected one item, got %v", out.JSON())
	}
	title, _ := out.Items()[0].Get("title")
	if title.Str() != "First Post" {
		t.Fatalf("expected title First Post, got %v", out.JSON())
	}
}

func TestRssFeedReadHandler_MissingCapabilities(t *testing.T) {
	h := rssFeedReadHandler{}
	cfg := value.NewObject()
	cfg.Set("url", value.String("https://example.com/feed.xml"))

	ectx := NewEngineContext(context.Background(), Capabilities{}, types.Workflow{}, nil)
	if _, err := h.Execute(ectx, types.Node{Kind: "rss-feed-read", Config: cfg}, value.NewObject()); err == nil {
		t.Fatal("expected error for missing HTTPClient capability")
	}

	ectx = NewEngineContext(context.Background(), Capabilities{HTTPClient: &fakeHTTPClient{}}, types.Workflow{}, nil)
	if _, err := h.Execute(ectx, types.Node{Kind: "rss-feed-read", Config: cfg}, value.NewObject()); err == nil {
		t.Fatal("expected error for missing FeedParser capability")
	}
}

func TestRssFeedReadHandler_HttpErrorStatus(t *testing.T) {
	httpClient := &fakeHTTPClient{statusCode: 404, respBody: []byte("not found")}
	parser := &fakeFeedParser{}
	ectx := NewEngineContext(context.Background(), Capabilities{HTTPClient: httpClient, FeedParser: parser}, types.Workflow{}, nil)

	cfg := value.NewObject()
	cfg.Set("url", value.String("https://example.com/feed.xml"))

	h := rssFeedReadHandler{}
	_, err := h.Execute(ectx, types.Node{Kind: "rss-feed-read", Config: cfg}, value.NewObject())
	if err == nil {
		t.Fatal("expected error for 4xx feed response")
	}
	var engErr *engineerr.Error
	if !errors.As(err, &engErr) || engErr.Kind != engineerr.KindExternal {
		t.Fatalf("expected ExternalError, got %v", err)
	}
}

func TestRssFeedReadHandler_WrapsParseErrors(t *testing.T) {
	httpClient := &fakeHTTPClient{statusCode: 200, respBody: []byte("garbage")}
	parser := &fakeFeedParser{err: errors.New("malformed xml")}
	ectx := NewEngineContext(context.Background(), Capabilities{HTTPClient: httpClient, FeedParser: parser}, types.Workflow{}, nil)

	cfg := value.NewObject()
	cfg.Set("url", value.String("https://example.com/feed.xml"))

	h := rssFeedReadHandler{}
	_, err := h.Execute(ectx, types.Node{Kind: "rss-feed-read", Config: cfg}, value.NewObject())
	if err == nil {
		t.Fatal("expected wrapped Feed Error")
	}
}

func TestRssFeedReadHandler_MissingURL(t *testing.T) {
	httpClient := &fakeHTTPClient{}
	parser := &fakeFeedParser{}
	ectx := NewEngineContext(context.Background(), Capabilities{HTTPClient: httpClient, FeedParser: parser}, types.Workflow{}, nil)

	h := rssFeedReadHandler{}
	_, err := h.Execute(ectx, types.Node{Kind: "rss-feed-read", Config: value.NewObject()}, value.NewObject())
	if err == nil {
		t.Fatal("expected MissingField error for url")
	}
}
