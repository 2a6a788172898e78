// Package source exposes the metadata-source plugin surface the
// cataloguing host calls: Identify for metadata records and DownloadCover
// for cover images. One Source lives for one plugin-instance lifetime and
// owns the run-scoped resolution cache.
package source

import (
	"context"
	"log/slog"
	"sort"

	"github.com/otapi/antikvarium/internal/antikvarium"
	"github.com/otapi/antikvarium/internal/metadata"
)

// DefaultMaxResults is the default cap on candidate pages fetched per query.
const DefaultMaxResults = 3

// Source is the antikvarium.hu metadata source.
type Source struct {
	client     *antikvarium.Client
	cache      *antikvarium.ResolutionCache
	engine     *antikvarium.Engine
	maxResults int
}

// Option configures a Source.
type Option func(*Source)

// WithMaxResults caps the number of candidate pages fetched per query.
func WithMaxResults(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithClient supplies a pre-configured site client.
func WithClient(c *antikvarium.Client) Option {
	return func(s *Source) { s.client = c }
}

// New creates a Source with a fresh resolution cache. The host recreating
// the plugin instance is what resets the cache.
func New(opts ...Option) *Source {
	s := &Source{maxResults: DefaultMaxResults}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = antikvarium.NewClient()
	}
	s.cache = antikvarium.NewResolutionCache()
	s.engine = antikvarium.NewEngine(antikvarium.NewDetailFetcher(s.client, s.cache))
	return s
}

// Identify resolves the request into candidate pages and streams every
// successfully parsed metadata record into results. Zero matches is a
// legitimate outcome and returns nil; the only error surfaced is
// antikvarium.ErrInsufficientInput, when no query can be built at all.
//
// When identifier-based resolution comes up empty and the request also
// carries title and authors, resolution is retried exactly once using
// only the free-text fields. The retry uses no identifiers, so it can
// never trigger a second fallback.
func (s *Source) Identify(ctx context.Context, req metadata.SearchRequest, results chan<- *metadata.Record) error {
	slog.Info("Identify", "title", req.Title, "authors", req.Authors)

	cands, err := s.client.Resolve(ctx, req, s.maxResults)
	if err != nil {
		return err
	}

	identifiersUsed := req.AntikID() != "" || metadata.ValidISBN(req.ISBN()) != ""
	canFallBack := identifiersUsed && req.HasTitleAndAuthors()

	if len(cands) == 0 && canFallBack {
		slog.Info("No matches found with identifiers, retrying using only title and authors")
		canFallBack = false
		if cands, err = s.client.ResolveByText(ctx, req, s.maxResults); err != nil {
			return err
		}
	}
	if len(cands) == 0 {
		slog.Info("No matches found", "title", req.Title)
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	delivered := s.engine.Dispatch(ctx, cands, results)

	// An identifier can resolve to a candidate URL that turns out to be a
	// dead page (e.g. a stale antik_hu id). That surfaces as zero records
	// rather than zero candidates, so the one-shot fallback applies here
	// too, under the same ceiling.
	if delivered == 0 && canFallBack && ctx.Err() == nil {
		slog.Info("No records found with identifiers, retrying using only title and authors")
		cands, err = s.client.ResolveByText(ctx, req, s.maxResults)
		if err != nil {
			return err
		}
		if len(cands) > 0 {
			s.engine.Dispatch(ctx, cands, results)
		}
	}
	return nil
}

// CoverResult is the pair DownloadCover pushes on success.
type CoverResult struct {
	Source *Source
	Data   []byte
}

// CachedCoverURL resolves a cover URL from the resolution cache alone.
func (s *Source) CachedCoverURL(identifiers map[string]string) (string, bool) {
	return s.cache.CoverURL(identifiers)
}

// DownloadCover resolves a cover image for the request and pushes exactly
// one CoverResult into out, or nothing when no cover can be found. The
// cache is consulted first; otherwise a full identify runs and the fetched
// records are probed best-relevance first. Every failure degrades to "no
// cover" — the method never surfaces an error to the host.
func (s *Source) DownloadCover(ctx context.Context, req metadata.SearchRequest, out chan<- CoverResult) error {
	coverURL, ok := s.cache.CoverURL(req.Identifiers)
	if !ok {
		slog.Info("No cached cover found, running identify")
		coverURL, ok = s.coverURLViaIdentify(ctx, req)
	}
	if !ok {
		slog.Info("No cover found", "title", req.Title)
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	slog.Info("Downloading cover", "url", coverURL)
	data, err := s.client.GetImage(ctx, coverURL)
	if err != nil {
		slog.Error("Failed to download cover", "url", coverURL, "error", err)
		return nil
	}

	select {
	case out <- CoverResult{Source: s, Data: data}:
	case <-ctx.Done():
	}
	return nil
}

// coverURLViaIdentify runs a full identify and probes the cache with each
// record's identifiers, best relevance first. The detail workers populate
// the cache as a side effect, so a hit usually follows the first record.
func (s *Source) coverURLViaIdentify(ctx context.Context, req metadata.SearchRequest) (string, bool) {
	// Room for every worker of both the primary and the fallback dispatch.
	rq := make(chan *metadata.Record, 2*s.maxResults)
	if err := s.Identify(ctx, req, rq); err != nil {
		slog.Error("Identify for cover download failed", "error", err)
		return "", false
	}
	if ctx.Err() != nil {
		return "", false
	}

	var records []*metadata.Record
drain:
	for {
		select {
		case rec := <-rq:
			records = append(records, rec)
		default:
			break drain
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Relevance < records[j].Relevance
	})

	for _, rec := range records {
		if url, ok := s.cache.CoverURL(rec.Identifiers()); ok {
			return url, true
		}
	}
	return "", false
}
