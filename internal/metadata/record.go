// Package metadata defines the bibliographic data types exchanged between
// the resolution pipeline and its callers.
package metadata

import "time"

// Identifier keys recognized in a SearchRequest.
const (
	IDKeyAntik = "antik_hu"
	IDKeyISBN  = "isbn"
)

// SearchRequest is the read-only input to a lookup. Any subset of the
// fields may be present; the resolver decides which strategy applies.
type SearchRequest struct {
	Title       string
	Authors     []string
	Identifiers map[string]string
}

// AntikID returns the antikvarium.hu identifier from the request, if any.
func (r SearchRequest) AntikID() string {
	return r.Identifiers[IDKeyAntik]
}

// ISBN returns the raw ISBN from the request, if any. Callers that need a
// checksum-validated value should pass it through ValidISBN.
func (r SearchRequest) ISBN() string {
	return r.Identifiers[IDKeyISBN]
}

// HasTitleAndAuthors reports whether the request carries enough free-text
// data for a title/author search.
func (r SearchRequest) HasTitleAndAuthors() bool {
	return r.Title != "" && len(r.Authors) > 0
}

// Candidate is one detail-page URL discovered during resolution. Relevance
// is its position in discovery order (0 is best) and is assigned exactly
// once, at discovery time.
type Candidate struct {
	URL       string
	Relevance int
}

// Record is one normalized metadata record scraped from a detail page.
// A record is only emitted once it passes Valid; partially parsed pages
// that miss the required fields are dropped.
type Record struct {
	Title       string     `yaml:"title"`
	Authors     []string   `yaml:"authors"`
	AntikID     string     `yaml:"antik_hu"`
	ISBN        string     `yaml:"isbn,omitempty"`
	Series      string     `yaml:"series,omitempty"`
	SeriesIndex string     `yaml:"series_index,omitempty"`
	Publisher   string     `yaml:"publisher,omitempty"`
	Tags        []string   `yaml:"tags,omitempty"`
	Comments    string     `yaml:"comments,omitempty"`
	PubDate     *time.Time `yaml:"pubdate,omitempty"`
	Languages   []string   `yaml:"languages,omitempty"`
	CoverURL    string     `yaml:"cover_url,omitempty"`
	HasCover    bool       `yaml:"has_cover"`
	Relevance   int        `yaml:"-"`
}

// Valid reports whether the record carries the minimum fields required
// for emission: a title, at least one author and the site identifier.
func (r *Record) Valid() bool {
	return r.Title != "" && len(r.Authors) > 0 && r.AntikID != ""
}

// Identifiers returns the record's identifier map in SearchRequest form,
// used when probing the cover cache with a fetched record.
func (r *Record) Identifiers() map[string]string {
	ids := make(map[string]string, 2)
	if r.AntikID != "" {
		ids[IDKeyAntik] = r.AntikID
	}
	if r.ISBN != "" {
		ids[IDKeyISBN] = r.ISBN
	}
	return ids
}
