package antikvarium

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/PuerkitoBio/goquery"

	"github.com/otapi/antikvarium/internal/metadata"
)

// DetailFetcher turns one candidate detail page into a metadata record.
// Fetch never returns an error: every failure mode degrades to a nil
// record after logging, so one bad candidate costs nothing but itself.
type DetailFetcher struct {
	client *Client
	cache  *ResolutionCache
}

// NewDetailFetcher creates a fetcher writing recovered identifiers into
// the given resolution cache.
func NewDetailFetcher(client *Client, cache *ResolutionCache) *DetailFetcher {
	return &DetailFetcher{client: client, cache: cache}
}

// Fetch retrieves the candidate's page, extracts every field and applies
// the validity gate. Returns nil when the page cannot be fetched, parsed,
// or does not yield title, authors and the site identifier.
func (f *DetailFetcher) Fetch(ctx context.Context, cand metadata.Candidate) *metadata.Record {
	doc, err := f.client.getDocument(ctx, cand.URL)
	if err != nil {
		f.logFetchFailure(cand.URL, err)
		return nil
	}
	return f.parseDetails(doc, cand)
}

// logFetchFailure classifies a transport failure for the log. None of
// these escalate; the worker simply produces no record.
func (f *DetailFetcher) logFetchFailure(url string, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, ErrNotFound):
		slog.Error("URL malformed", "url", url)
	case errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, context.DeadlineExceeded):
		slog.Error("Antikvarium.hu timed out. Try again later.", "url", url)
	default:
		slog.Error("Failed to make details query", "url", url, "error", err)
	}
}

// parseDetails runs every field extractor over the parsed page. Each
// extractor is isolated: a failing field is logged and left unset, it
// never aborts extraction of the others. Only the validity gate can drop
// the record as a whole.
func (f *DetailFetcher) parseDetails(doc *goquery.Document, cand metadata.Candidate) *metadata.Record {
	rec := &metadata.Record{Relevance: cand.Relevance}

	if id, err := parseAntikID(doc); err != nil {
		slog.Warn("Error parsing antikvarium id", "url", cand.URL, "error", err)
	} else {
		slog.Debug("Parsed antikvarium id", "id", id)
		rec.AntikID = id
	}

	if title, err := parseTitle(doc); err != nil {
		slog.Warn("Error parsing title", "url", cand.URL, "error", err)
	} else {
		slog.Debug("Parsed title", "title", title)
		rec.Title = title
	}

	if authors, err := parseAuthors(doc); err != nil {
		slog.Warn("Error parsing authors", "url", cand.URL, "error", err)
	} else {
		slog.Debug("Parsed authors", "authors", authors)
		rec.Authors = authors
	}

	if !rec.Valid() {
		slog.Info("Could not find title/authors/antikvarium id, dropping record",
			"url", cand.URL, "id", rec.AntikID, "title", rec.Title, "authors", rec.Authors)
		return nil
	}

	if isbn, err := parseISBN(doc); err != nil {
		slog.Warn("Error parsing ISBN", "url", cand.URL, "error", err)
	} else {
		slog.Debug("Parsed ISBN", "isbn", isbn)
		rec.ISBN = isbn
	}

	if series, err := parseSeries(doc); err != nil {
		slog.Warn("Error parsing series", "url", cand.URL, "error", err)
	} else {
		rec.Series = series
	}

	if index, err := parseSeriesIndex(doc); err != nil {
		slog.Warn("Error parsing series index", "url", cand.URL, "error", err)
	} else {
		rec.SeriesIndex = index
	}

	if comments, err := parseComments(doc); err != nil {
		slog.Warn("Error parsing comments", "url", cand.URL, "error", err)
	} else {
		rec.Comments = comments
	}

	if cover, err := parseCover(doc); err != nil {
		slog.Warn("Error parsing cover", "url", cand.URL, "error", err)
	} else {
		rec.CoverURL = f.client.absoluteURL(cover)
		rec.HasCover = true
		f.cache.SetCoverURL(rec.AntikID, rec.CoverURL)
	}

	if publisher, err := parsePublisher(doc); err != nil {
		slog.Warn("Error parsing publisher", "url", cand.URL, "error", err)
	} else {
		rec.Publisher = publisher
	}

	if tags, err := parseTags(doc); err != nil {
		slog.Warn("Error parsing tags", "url", cand.URL, "error", err)
	} else {
		rec.Tags = tags
	}

	if pubDate, err := parsePubDate(doc); err != nil {
		slog.Warn("Error parsing published date", "url", cand.URL, "error", err)
	} else {
		rec.PubDate = &pubDate
	}

	if langs, err := parseLanguages(doc); err != nil {
		slog.Warn("Error parsing languages", "url", cand.URL, "error", err)
	} else {
		rec.Languages = langs
	}

	if rec.ISBN != "" {
		f.cache.SetIdentifier(rec.ISBN, rec.AntikID)
	}
	return rec
}
