package antikvarium

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/otapi/antikvarium/internal/metadata"
)

// Fixed listing parameters the site expects on a free-text search:
// detailed list view, newest edition first, 60 rows per page.
const searchQuerySuffix = "&he=0&jk=0&reszletes=1&rend=kiadasevecsokk&oldaldb=60&kapelol=0&nezet=li&elist=egyebadat&interfaceid=102&oldalcount=1"

// Resolve turns a search request into an ordered list of candidate
// detail-page URLs. Strategy selection, first match wins:
//
//  1. antik_hu identifier: one candidate built directly from the id,
//     no network traffic.
//  2. checksum-valid ISBN: an ISBN-scoped search against the site,
//     which may legitimately come back empty.
//  3. free-text query from title and first author.
//
// A request with none of these fails with ErrInsufficientInput.
// Relevance is the position in discovery order and is final.
func (c *Client) Resolve(ctx context.Context, req metadata.SearchRequest, maxResults int) ([]metadata.Candidate, error) {
	if id := req.AntikID(); id != "" {
		return []metadata.Candidate{{URL: c.BookURL(id), Relevance: 0}}, nil
	}
	if isbn := metadata.ValidISBN(req.ISBN()); isbn != "" {
		return c.searchByISBN(ctx, isbn, maxResults)
	}
	return c.ResolveByText(ctx, req, maxResults)
}

// ResolveByText resolves using only the free-text fields of the request,
// ignoring identifiers entirely. This is both strategy 3 of Resolve and
// the single-shot fallback used when identifier resolution finds nothing.
func (c *Client) ResolveByText(ctx context.Context, req metadata.SearchRequest, maxResults int) ([]metadata.Candidate, error) {
	if req.Title == "" && len(req.Authors) == 0 {
		return nil, ErrInsufficientInput
	}

	query := c.textQueryURL(req)
	slog.Info("Querying antikvarium.hu", "url", query)
	return c.search(ctx, query, maxResults), nil
}

// textQueryURL builds the search URL from whatever subset of title and
// first author is present.
func (c *Client) textQueryURL(req metadata.SearchRequest) string {
	var author string
	if len(req.Authors) > 0 {
		author = req.Authors[0]
	}
	return fmt.Sprintf("%s/index.php?type=search&kc=%s&sz=%s%s",
		c.baseURL, url.QueryEscape(req.Title), url.QueryEscape(author), searchQuerySuffix)
}

// searchByISBN issues an ISBN-scoped search. A 404 from the site means no
// match for that ISBN; that is reported as zero candidates, not an error,
// so the caller can fall back to a title/author search.
func (c *Client) searchByISBN(ctx context.Context, isbn string, maxResults int) ([]metadata.Candidate, error) {
	query := fmt.Sprintf("%s/index.php?type=search&isbn=%s", c.baseURL, url.QueryEscape(isbn))
	slog.Info("Querying antikvarium.hu by ISBN", "isbn", isbn)
	return c.search(ctx, query, maxResults), nil
}

// search fetches a search-results page and parses the listing. A 404 and
// any transport or parse failure are logged and reported as zero
// candidates; the caller cannot tell them from a legitimately empty
// listing, which is what lets the fallback layer take over.
func (c *Client) search(ctx context.Context, query string, maxResults int) []metadata.Candidate {
	doc, err := c.getDocument(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Info("Search returned no results", "url", query)
		} else {
			slog.Error("Failed to make identify query", "url", query, "error", err)
		}
		return nil
	}
	return c.parseSearchResults(doc, maxResults)
}

// parseSearchResults extracts candidate detail-page links from a search
// listing in page order, capped at maxResults. The site tags every result
// title anchor with the same id.
func (c *Client) parseSearchResults(doc *goquery.Document, maxResults int) []metadata.Candidate {
	var cands []metadata.Candidate
	doc.Find(`a[id="searchResultKonyvCim-listas"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}
		bookURL := c.absoluteURL(href)
		slog.Info("Found candidate", "url", bookURL)
		cands = append(cands, metadata.Candidate{URL: bookURL, Relevance: len(cands)})
		return len(cands) < maxResults
	})
	return cands
}
