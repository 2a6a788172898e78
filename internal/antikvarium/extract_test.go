package antikvarium

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseAntikID(t *testing.T) {
	doc := parseFixture(t, detailPageHTML)
	id, err := parseAntikID(doc)
	require.NoError(t, err)
	require.Equal(t, "gardonyi-geza-egri-csillagok-123456", id)
}

func TestParseAntikIDMissing(t *testing.T) {
	doc := parseFixture(t, `<html><head><link href="/egyeb/oldal"></head><body></body></html>`)
	_, err := parseAntikID(doc)
	require.ErrorIs(t, err, errFieldMissing)
}

func TestParseTitle(t *testing.T) {
	doc := parseFixture(t, detailPageHTML)
	title, err := parseTitle(doc)
	require.NoError(t, err)
	require.Equal(t, "Egri csillagok", title)
}

func TestParseAuthors(t *testing.T) {
	doc := parseFixture(t, detailPageHTML)
	authors, err := parseAuthors(doc)
	require.NoError(t, err)
	require.Equal(t, []string{"Gárdonyi Géza"}, authors)
}

func TestBookPropertyRows(t *testing.T) {
	doc := parseFixture(t, detailPageHTML)

	isbn, err := parseISBN(doc)
	require.NoError(t, err)
	require.Equal(t, "9631152499", isbn, "hyphens are stripped")

	publisher, err := parsePublisher(doc)
	require.NoError(t, err)
	require.Equal(t, "Móra Ferenc Könyvkiadó", publisher)

	series, err := parseSeries(doc)
	require.NoError(t, err)
	require.Equal(t, "Diákkönyvtár", series)

	index, err := parseSeriesIndex(doc)
	require.NoError(t, err)
	require.Equal(t, "2", index)
}

func TestBookPropertyMissingLabel(t *testing.T) {
	doc := parseFixture(t, `<html><body><table class="book-data-table">
		<tr><th>ISBN:</th><td>963-11-5249-9</td></tr>
	</table></body></html>`)

	_, err := parsePublisher(doc)
	require.ErrorIs(t, err, errFieldMissing)
}

func TestParsePubDate(t *testing.T) {
	doc := parseFixture(t, detailPageHTML)
	date, err := parsePubDate(doc)
	require.NoError(t, err)
	require.Equal(t, 1987, date.Year())
}

func TestParsePubDateUnparseable(t *testing.T) {
	doc := parseFixture(t, `<html><body><table class="book-data-table">
		<tr><th>Kiad&aacute;s &eacute;ve:</th><td>ismeretlen</td></tr>
	</table></body></html>`)

	_, err := parsePubDate(doc)
	require.Error(t, err)
}

func TestParseTags(t *testing.T) {
	doc := parseFixture(t, detailPageHTML)
	tags, err := parseTags(doc)
	require.NoError(t, err)
	// Grouping headings are dropped, duplicates collapse, order is kept.
	require.Equal(t, []string{"Regény", "Történelmi regény"}, tags)
}

func TestParseComments(t *testing.T) {
	doc := parseFixture(t, detailPageHTML)
	comments, err := parseComments(doc)
	require.NoError(t, err)
	require.Contains(t, comments, "egri vár")
}

func TestParseCommentsFallsBackToForeword(t *testing.T) {
	doc := parseFixture(t, `<html><body>
		<div id="eloszoFull"><span>El&#337;sz&oacute;</span>Hossz&uacute; el&#337;sz&oacute;.</div>
	</body></html>`)

	comments, err := parseComments(doc)
	require.NoError(t, err)
	require.Equal(t, "Hosszú előszó.", comments)
}

func TestParseLanguages(t *testing.T) {
	doc := parseFixture(t, detailPageHTML)
	langs, err := parseLanguages(doc)
	require.NoError(t, err)
	require.Equal(t, []string{"hu"}, langs)
}

func TestParseLanguagesUnknownMapsToUnd(t *testing.T) {
	doc := parseFixture(t, `<html><body><table class="book-data-table">
		<tr><th>Nyelv:</th><td>magyar, eszperant&oacute;</td></tr>
	</table></body></html>`)

	langs, err := parseLanguages(doc)
	require.NoError(t, err)
	require.Equal(t, []string{"hu", "und"}, langs)
}

func TestParseCover(t *testing.T) {
	doc := parseFixture(t, detailPageHTML)
	src, err := parseCover(doc)
	require.NoError(t, err)
	require.Equal(t, "foto/egri-csillagok-123456.jpg", src)
}

func TestParseCoverMissing(t *testing.T) {
	doc := parseFixture(t, `<html><body><div class="konyvadatlapfoto"></div></body></html>`)
	_, err := parseCover(doc)
	require.ErrorIs(t, err, errFieldMissing)
}
