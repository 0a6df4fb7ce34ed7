package feed

import "context"

// Pipeline composes fetching and parsing: given a subscription URL it
// yields a Document, a *FetchError, or a *ParseError.
type Pipeline struct {
	fetcher *Fetcher
	parser  *Parser
}

func NewPipeline(fetcher *Fetcher, parser *Parser) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		parser:  parser,
	}
}

func (p *Pipeline) FetchParse(ctx context.Context, url string) (*Document, error) {
	data, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	return p.parser.Parse(data, url)
}
