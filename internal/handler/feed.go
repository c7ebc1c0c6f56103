package handler

import (
	"strconv"

	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// rssFeedReadHandler implements rss-feed-read (spec §4.3): fetches the
// interpolated url via HttpClient and parses the body via FeedParser,
// returning one object per entry.
type rssFeedReadHandler struct{}

func (rssFeedReadHandler) Kind() string { return "rss-feed-read" }

func (rssFeedReadHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	if ectx.Capabilities.HTTPClient == nil {
		return value.Null(), engineerr.Config("no HttpClient capability configured")
	}
	if ectx.Capabilities.FeedParser == nil {
		return value.Null(), engineerr.Config("no FeedParser capability configured")
	}

	urlTemplate, ok := configString(node.Config, "url")
	if !ok {
		return value.Null(), engineerr.MissingField("url")
	}
	url := value.Interpolate(urlTemplate, input)

	status, _, body, err := ectx.Capabilities.HTTPClient.Send(ectx.Context(), "GET", url, nil, nil, nil)
	if err != nil {
		return value.Null(), engineerr.External("HTTP Error", err.Error(), err)
	}
	if status >= 400 {
		return value.Null(), engineerr.External("HTTP Error", urlForStatus(status), nil)
	}

	feed, err := ectx.Capabilities.FeedParser.Parse(body)
	if err != nil {
		return value.Null(), engineerr.External("Feed Error", err.Error(), err)
	}

	items := make([]value.Value, 0, len(feed.Items))
	for _, it := range feed.Items {
		obj := value.NewObject()
		obj.Set("id", value.String(it.ID))
		obj.Set("title", value.String(it.Title))
		obj.Set("link", value.String(it.Link))
		obj.Set("summary", value.String(it.Summary))
		obj.Set("content", value.String(it.Content))
		obj.Set("published", value.String(it.Published))
		obj.Set("updated", value.String(it.Updated))
		obj.Set("author", value.String(it.Author))
		items = append(items, obj)
	}
	return value.Array(items...), nil
}

func urlForStatus(status int) string {
	return "feed request returned status " + strconv.Itoa(status)
}
