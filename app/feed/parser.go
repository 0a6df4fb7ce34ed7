package feed

import (
	"bytes"
	"cmp"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Parse turns a raw feed body into a Document. feedURL is the subscription
// URL; it is used for canonical link selection and error reporting.
// Malformed bodies surface as *ParseError.
func (p *Parser) Parse(data []byte, feedURL string) (*Document, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{URL: feedURL, Err: err}
	}

	doc := &Document{
		Title: parsed.Title,
		Link:  canonicalLink(parsed, feedURL),
	}

	doc.Entries = make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		doc.Entries = append(doc.Entries, normalizeEntry(item))
	}

	return doc, nil
}

// canonicalLink picks the first advertised link that differs from the
// subscription URL itself, falling back to the subscription URL.
func canonicalLink(parsed *gofeed.Feed, feedURL string) string {
	candidates := parsed.Links
	if len(candidates) == 0 && parsed.Link != "" {
		candidates = []string{parsed.Link}
	}

	for _, link := range candidates {
		if link != "" && link != feedURL {
			return link
		}
	}

	return feedURL
}

func normalizeEntry(item *gofeed.Item) Entry {
	entry := Entry{
		GUID:    cmp.Or(item.GUID, item.Link),
		Title:   item.Title,
		Link:    item.Link,
		Content: cmp.Or(item.Content, item.Description),
	}

	if item.PublishedParsed != nil {
		entry.PublishedAt = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		entry.PublishedAt = item.UpdatedParsed
	}

	return entry
}
