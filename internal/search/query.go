package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/bookshareapp/bookshare-server/internal/normalize"
)

// Params configures a search query.
type Params struct {
	Query string // User's search query

	// Pagination
	Limit  int
	Offset int
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:  20,
		Offset: 0,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single search result.
type Hit struct {
	BookID     int64             `json:"book_id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Author     string            `json:"author"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// BookIDs returns the hit IDs in relevance order.
func (r *Result) BookIDs() []int64 {
	ids := make([]int64, len(r.Hits))
	for i, hit := range r.Hits {
		ids[i] = hit.BookID
	}
	return ids
}

// Search executes a search query against the book index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("title")
	searchRequest.Highlight.AddField("author")

	searchRequest.Fields = []string{"id", "title", "author"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := Hit{Score: hit.Score}

		bookID, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			// Stale document from an older mapping; skip it.
			continue
		}
		searchHit.BookID = bookID

		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if a, ok := hit.Fields["author"].(string); ok {
			searchHit.Author = a
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params Params) query.Query {
	if params.Query == "" {
		return bleve.NewMatchAllQuery()
	}

	var textQueries []query.Query

	// Title match with highest boost
	titleMatch := bleve.NewMatchQuery(params.Query)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)
	textQueries = append(textQueries, titleMatch)

	// Author match
	authorMatch := bleve.NewMatchQuery(params.Query)
	authorMatch.SetField("author")
	authorMatch.SetBoost(2.0)
	textQueries = append(textQueries, authorMatch)

	// Synopsis match, lowest weight
	synopsisMatch := bleve.NewMatchQuery(params.Query)
	synopsisMatch.SetField("synopsis")
	synopsisMatch.SetBoost(0.5)
	textQueries = append(textQueries, synopsisMatch)

	// Folded variants for diacritic-insensitive matching
	folded := normalize.Fold(params.Query)
	if folded != "" && folded != strings.ToLower(params.Query) {
		titleFoldMatch := bleve.NewMatchQuery(folded)
		titleFoldMatch.SetField("title_fold")
		titleFoldMatch.SetBoost(2.5)
		textQueries = append(textQueries, titleFoldMatch)

		authorFoldMatch := bleve.NewMatchQuery(folded)
		authorFoldMatch.SetField("author_fold")
		authorFoldMatch.SetBoost(1.5)
		textQueries = append(textQueries, authorFoldMatch)
	}

	// Exact ISBN lookup
	isbnTerm := bleve.NewTermQuery(params.Query)
	isbnTerm.SetField("isbn")
	isbnTerm.SetBoost(5.0)
	textQueries = append(textQueries, isbnTerm)

	// Fuzzy matching for typo tolerance on title
	fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
	fuzzyQuery.SetFuzziness(1)
	fuzzyQuery.SetField("title")
	fuzzyQuery.SetBoost(0.8)
	textQueries = append(textQueries, fuzzyQuery)

	// Prefix query for autocomplete (minimum 2 chars)
	if len(params.Query) >= 2 {
		prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
		prefixQuery.SetField("title")
		prefixQuery.SetBoost(0.5)
		textQueries = append(textQueries, prefixQuery)
	}

	return bleve.NewDisjunctionQuery(textQueries...)
}
