package capability

import (
	"encoding/xml"
	"fmt"
)

// XMLFeedParser implements FeedParser for RSS 2.0 and Atom feeds using the
// standard library's encoding/xml. No pack example vendors a feed parsing
// library, so this is a deliberate, minimal hand-rolled reader covering the
// fields rss-feed-read and the agent's inline rss-read-tool need.
type XMLFeedParser struct{}

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	GUID        string `xml:"guid"`
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Author      string `xml:"author"`
}

type atomDocument struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
	Content string `xml:"content"`
	Updated string `xml:"updated"`
	Author  struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href string `xml:"href,attr"`
		Rel  string `xml:"rel,attr"`
	} `xml:"link"`
}

// Parse decodes data as RSS 2.0 first, falling back to Atom if the root
// element isn't <rss>.
func (XMLFeedParser) Parse(data []byte) (Feed, error) {
	var rss rssDocument
	if err := xml.Unmarshal(data, &rss); err == nil && rss.XMLName.Local == "rss" {
		return rssToFeed(rss), nil
	}

	var atom atomDocument
	if err := xml.Unmarshal(data, &atom); err == nil && atom.XMLName.Local == "feed" {
		return atomToFeed(atom), nil
	}

	return Feed{}, fmt.Errorf("feed: unrecognised format, expected <rss> or <feed> root element")
}

func rssToFeed(doc rssDocument) Feed {
	items := make([]FeedItem, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		id := it.GUID
		if id == "" {
			id = it.Link
		}
		items = append(items, FeedItem{
			ID:        id,
			Title:     it.Title,
			Link:      it.Link,
			Summary:   it.Description,
			Published: it.PubDate,
			Author:    it.Author,
		})
	}
	return Feed{Items: items}
}

func atomToFeed(doc atomDocument) Feed {
	items := make([]FeedItem, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		link := ""
		for _, l := range e.Links {
			if l.Rel == "" || l.Rel == "alternate" {
				link = l.Href
				break
			}
		}
		items = append(items, FeedItem{
			ID:        e.ID,
			Title:     e.Title,
			Link:      link,
			Summary:   e.Summary,
			Content:   e.Content,
			Updated:   e.Updated,
			Author:    e.Author.Name,
		})
	}
	return Feed{Items: items}
}
