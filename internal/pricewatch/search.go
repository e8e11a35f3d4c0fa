// Package pricewatch finds resellers of a product, screenshots their pages and reads
// the price off the screenshot with a vision model.
package pricewatch

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Searcher returns candidate store URLs for a query. offset is 0-based.
type Searcher interface {
	Links(ctx context.Context, query string, offset, n int) ([]string, error)
}

// GoogleSearch uses the Custom Search JSON API.
type GoogleSearch struct {
	svc *customsearch.Service
	cx  string
}

func NewGoogleSearch(ctx context.Context, apiKey, cx string) (*GoogleSearch, error) {
	if apiKey == "" || cx == "" {
		return nil, errors.New("custom search: api key and cx are required")
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleSearch{svc: svc, cx: cx}, nil
}

// The API serves at most 10 results per call and nothing past result 100.
const (
	searchPage  = 10
	searchLimit = 100
)

func (g *GoogleSearch) Links(ctx context.Context, query string, offset, n int) ([]string, error) {
	var out []string
	for len(out) < n && offset < searchLimit {
		num := n - len(out)
		if num > searchPage {
			num = searchPage
		}
		res, err := g.svc.Cse.List().
			Cx(g.cx).
			Q(query).
			Start(int64(offset + 1)).
			Num(int64(num)).
			Context(ctx).Do()
		if err != nil {
			return out, fmt.Errorf("custom search: %w", err)
		}
		for _, it := range res.Items {
			if it.Link != "" {
				out = append(out, it.Link)
			}
		}
		if len(res.Items) < num {
			break
		}
		offset += num
	}
	return out, nil
}
