package antikvarium

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// detailPageHTML is a trimmed antikvarium.hu detail page carrying every
// field the extractors know about.
const detailPageHTML = `<!DOCTYPE html>
<html>
<head>
<title>G&aacute;rdonyi G&eacute;za: Egri csillagok</title>
<link rel="canonical" href="https://www.antikvarium.hu/konyv/gardonyi-geza-egri-csillagok-123456">
</head>
<body>
<div class="book-data-author"><a href="szerzo/gardonyi-geza">G&aacute;rdonyi G&eacute;za</a></div>
<h1 class="book-data-title-height">
	Egri csillagok
</h1>
<table class="book-data-table">
<tr><th>Kiad&oacute;:</th><td><a href="kiado/mora">M&oacute;ra Ferenc K&ouml;nyvkiad&oacute;</a></td></tr>
<tr><th>Kiad&aacute;s &eacute;ve:</th><td>1987</td></tr>
<tr><th>Sorozatc&iacute;m:</th><td>Di&aacute;kk&ouml;nyvt&aacute;r</td></tr>
<tr><th>K&ouml;tetsz&aacute;m:</th><td>2</td></tr>
<tr><th>ISBN:</th><td>963-11-5249-9</td></tr>
<tr><th>Nyelv:</th><td>magyar</td></tr>
</table>
<div id="konyvAdatlapTemakorLink">
<span>Tartalom szerint</span>
<span>Reg&eacute;ny</span>
<span>T&ouml;rt&eacute;nelmi reg&eacute;ny</span>
<span>Reg&eacute;ny</span>
</div>
<div id="fulszovegShort"><span>F&uuml;lsz&ouml;veg</span>Az egri v&aacute;r v&eacute;d&#337;inek t&ouml;rt&eacute;nete a t&ouml;r&ouml;k id&#337;kb&#337;l.</div>
<div class="konyvadatlapfoto"><img src="foto/egri-csillagok-123456.jpg" alt="Egri csillagok"></div>
</body>
</html>`

// searchListingHTML builds a search-results page with n candidate anchors,
// reproducing the site's habit of reusing one id on every result link.
func searchListingHTML(n int) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><div id="searchResult">`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<a id="searchResultKonyvCim-listas" href="konyv/talalat-%d">Tal&aacute;lat %d</a>`, i, i)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// newIPv4TestServer starts a test server bound to IPv4 loopback to avoid IPv6 listener issues.
func newIPv4TestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	server := httptest.NewUnstartedServer(handler)
	server.Listener = listener
	server.Start()

	t.Cleanup(server.Close)
	return server
}

// newTestClient wires a Client against a test server.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	return NewClient(
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
	)
}
