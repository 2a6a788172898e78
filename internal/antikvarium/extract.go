package antikvarium

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/otapi/antikvarium/internal/metadata"
)

// Labels of the two-column rows in the detail page's book-data table.
const (
	labelISBN        = "ISBN:"
	labelSeries      = "Sorozatcím:"
	labelSeriesIndex = "Kötetszám:"
	labelPublisher   = "Kiadó:"
	labelPubYear     = "Kiadás éve:"
	labelLanguage    = "Nyelv:"
)

// Tag-cloud headings the site mixes in with real topic tags.
var tagHeadings = map[string]struct{}{
	"Tartalom szerint":              {},
	"Egyéb":                    {},
	"Az író származása szerint": {},
}

var (
	errFieldMissing = errors.New("field not present on page")

	bookPathRe = regexp.MustCompile(`/konyv/(.+)`)
	yearRe     = regexp.MustCompile(`\b\d{4}\b`)
)

// trimText strips the whitespace the site pads its cells with.
func trimText(s string) string {
	return strings.Trim(s, " \r\n\t")
}

// textNodes returns the trimmed non-blank text nodes under sel, in
// document order. Field values sit in bare text nodes between markup, so
// extractors work on nodes rather than the joined text.
func textNodes(sel *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := trimText(n.Data); t != "" {
				out = append(out, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

// bookProperty finds the value cell of the labeled row in the detail
// page's data table. Returns errFieldMissing when the label is absent or
// its cell holds no text.
func bookProperty(doc *goquery.Document, label string) (string, error) {
	var value string
	doc.Find(".book-data-table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if trimText(row.Find("th").Text()) != label {
			return true
		}
		for _, t := range textNodes(row.Find("td")) {
			value = t
			return false
		}
		return false
	})
	if value == "" {
		return "", fmt.Errorf("%w: %s", errFieldMissing, label)
	}
	return value, nil
}

// parseAntikID recovers the site's identifier from the canonical link in
// the page head, which points at /konyv/<id>.
func parseAntikID(doc *goquery.Document) (string, error) {
	var id string
	doc.Find("head link").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		if m := bookPathRe.FindStringSubmatch(href); m != nil {
			id = m[1]
			return false
		}
		return true
	})
	if id == "" {
		return "", fmt.Errorf("%w: antikvarium id", errFieldMissing)
	}
	return id, nil
}

func parseTitle(doc *goquery.Document) (string, error) {
	for _, t := range textNodes(doc.Find(".book-data-title-height")) {
		return t, nil
	}
	return "", fmt.Errorf("%w: title", errFieldMissing)
}

func parseAuthors(doc *goquery.Document) ([]string, error) {
	authors := textNodes(doc.Find(".book-data-author"))
	if len(authors) == 0 {
		return nil, fmt.Errorf("%w: authors", errFieldMissing)
	}
	return authors, nil
}

func parseISBN(doc *goquery.Document) (string, error) {
	isbn, err := bookProperty(doc, labelISBN)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(isbn, "-", ""), nil
}

func parseSeries(doc *goquery.Document) (string, error) {
	return bookProperty(doc, labelSeries)
}

func parseSeriesIndex(doc *goquery.Document) (string, error) {
	return bookProperty(doc, labelSeriesIndex)
}

func parsePublisher(doc *goquery.Document) (string, error) {
	return bookProperty(doc, labelPublisher)
}

// parsePubDate reads the publication year row. The site prints a bare
// year; anything without a four-digit year is a parse failure.
func parsePubDate(doc *goquery.Document) (time.Time, error) {
	raw, err := bookProperty(doc, labelPubYear)
	if err != nil {
		return time.Time{}, err
	}
	yearStr := yearRe.FindString(raw)
	if yearStr == "" {
		return time.Time{}, fmt.Errorf("unparseable publication year %q", raw)
	}
	t, err := time.Parse("2006", yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable publication year %q: %w", raw, err)
	}
	return t, nil
}

// parseTags collects the topic tag cloud, dropping the grouping headings
// the site interleaves and de-duplicating.
func parseTags(doc *goquery.Document) ([]string, error) {
	var tags []string
	seen := make(map[string]struct{})
	doc.Find("#konyvAdatlapTemakorLink span").Each(func(_ int, span *goquery.Selection) {
		tag := trimText(span.Text())
		if tag == "" {
			return
		}
		if _, heading := tagHeadings[tag]; heading {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	})
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: tags", errFieldMissing)
	}
	return tags, nil
}

// parseComments returns the jacket blurb, preferring the short flap text
// over the full foreword block. The first text node in each block is its
// heading, so the value is the node after it.
func parseComments(doc *goquery.Document) (string, error) {
	for _, id := range []string{"#fulszovegShort", "#eloszoFull"} {
		nodes := textNodes(doc.Find(id))
		if len(nodes) > 1 {
			return nodes[1], nil
		}
	}
	return "", fmt.Errorf("%w: comments", errFieldMissing)
}

// parseLanguages reads the language row and translates each comma
// separated display name to an ISO-639-1 code. Names the table does not
// know become metadata.LangUnknown rather than failing the field.
func parseLanguages(doc *goquery.Document) ([]string, error) {
	raw, err := bookProperty(doc, labelLanguage)
	if err != nil {
		return nil, err
	}
	var langs []string
	for _, part := range strings.Split(raw, ",") {
		langs = append(langs, metadata.LanguageCode(part))
	}
	return langs, nil
}

// parseCover returns the cover image reference as emitted by the page,
// relative to the site root.
func parseCover(doc *goquery.Document) (string, error) {
	src, ok := doc.Find(".konyvadatlapfoto img").First().Attr("src")
	if !ok || src == "" {
		return "", fmt.Errorf("%w: cover", errFieldMissing)
	}
	return src, nil
}
