package capability

import "testing"

func TestXMLFeedParserRSS(t *testing.T) {
	doc := []byte(`<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Example</title>
    <item>
      <title>First post</title>
      <link>https://example.com/1</link>
      <guid>1</guid>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
      <description>Body one</description>
    </item>
  </channel>
</rss>`)

	feed, err := (XMLFeedParser{}).Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(feed.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(feed.Items))
	}
	item := feed.Items[0]
	if item.Title != "First post" || item.Link != "https://example.com/1" || item.ID != "1" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestXMLFeedParserAtom(t *testing.T) {
	doc := []byte(`<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>tag:example.com,2006:1</id>
    <title>Atom entry</title>
    <link href="https://example.com/atom/1" rel="alternate"/>
    <summary>Summary text</summary>
    <updated>2006-01-02T15:04:05Z</updated>
  </entry>
</feed>`)

	feed, err := (XMLFeedParser{}).Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(feed.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(feed.Items))
	}
	item := feed.Items[0]
	if item.Title != "Atom entry" || item.Link != "https://example.com/atom/1" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestXMLFeedParserRejectsUnknownFormat(t *testing.T) {
	if _, err := (XMLFeedParser{}).Parse([]byte(`<not-a-feed/>`)); err == nil {
		t.Fatal("expected error for unrecognised format")
	}
}
