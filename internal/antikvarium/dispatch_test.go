package antikvarium

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/otapi/antikvarium/internal/metadata"
)

func detailHandlerForID(id string) http.HandlerFunc {
	page := detailPageForID(id)
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}
}

// detailPageForID rewrites the fixture so each candidate page carries a
// distinct antik id.
func detailPageForID(id string) string {
	return strings.ReplaceAll(detailPageHTML, "gardonyi-geza-egri-csillagok-123456", id)
}

func TestDispatchCollectsAllWorkers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/konyv/elso", detailHandlerForID("elso"))
	mux.HandleFunc("/konyv/masodik", detailHandlerForID("masodik"))
	mux.HandleFunc("/konyv/harmadik", detailHandlerForID("harmadik"))
	server := newIPv4TestServer(t, mux)
	client := newTestClient(t, server)
	engine := NewEngine(NewDetailFetcher(client, NewResolutionCache()))

	cands := []metadata.Candidate{
		{URL: server.URL + "/konyv/elso", Relevance: 0},
		{URL: server.URL + "/konyv/masodik", Relevance: 1},
		{URL: server.URL + "/konyv/harmadik", Relevance: 2},
	}

	results := make(chan *metadata.Record, len(cands))
	delivered := engine.Dispatch(context.Background(), cands, results)
	require.Equal(t, 3, delivered)
	require.Len(t, results, 3)

	var relevances []int
	for i := 0; i < 3; i++ {
		rec := <-results
		relevances = append(relevances, rec.Relevance)
	}
	sort.Ints(relevances)
	require.Equal(t, []int{0, 1, 2}, relevances)
}

func TestDispatchWorkerIsolation(t *testing.T) {
	// One candidate hangs past the client timeout; the other two must
	// still deliver their records.
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	mux := http.NewServeMux()
	mux.HandleFunc("/konyv/elso", detailHandlerForID("elso"))
	mux.HandleFunc("/konyv/lassu", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/konyv/harmadik", detailHandlerForID("harmadik"))
	server := newIPv4TestServer(t, mux)
	client := NewClient(
		WithBaseURL(server.URL),
		WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}),
	)
	engine := NewEngine(NewDetailFetcher(client, NewResolutionCache()))

	cands := []metadata.Candidate{
		{URL: server.URL + "/konyv/elso", Relevance: 0},
		{URL: server.URL + "/konyv/lassu", Relevance: 1},
		{URL: server.URL + "/konyv/harmadik", Relevance: 2},
	}

	results := make(chan *metadata.Record, len(cands))
	delivered := engine.Dispatch(context.Background(), cands, results)
	require.Equal(t, 2, delivered)

	got := map[int]bool{}
	for i := 0; i < 2; i++ {
		rec := <-results
		got[rec.Relevance] = true
	}
	require.True(t, got[0])
	require.True(t, got[2])
}

func TestDispatchFailuresYieldEmptyStream(t *testing.T) {
	mux := http.NewServeMux() // everything 404s
	server := newIPv4TestServer(t, mux)
	client := newTestClient(t, server)
	engine := NewEngine(NewDetailFetcher(client, NewResolutionCache()))

	cands := []metadata.Candidate{
		{URL: server.URL + "/konyv/egy", Relevance: 0},
		{URL: server.URL + "/konyv/ketto", Relevance: 1},
	}

	results := make(chan *metadata.Record, len(cands))
	delivered := engine.Dispatch(context.Background(), cands, results)
	require.Equal(t, 0, delivered)
	require.Empty(t, results)
}

func TestDispatchCancellationStopsWaiting(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	server := newIPv4TestServer(t, mux)
	client := newTestClient(t, server)
	engine := NewEngine(NewDetailFetcher(client, NewResolutionCache()))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	cands := []metadata.Candidate{
		{URL: server.URL + "/konyv/egy", Relevance: 0},
		{URL: server.URL + "/konyv/ketto", Relevance: 1},
	}

	results := make(chan *metadata.Record, len(cands))
	start := time.Now()
	engine.Dispatch(ctx, cands, results)
	require.Less(t, time.Since(start), 2*time.Second,
		"dispatch must return promptly once cancelled instead of waiting out the workers")
}

func TestDispatchStaggersWorkerStarts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", detailHandlerForID("x"))
	server := newIPv4TestServer(t, mux)
	client := newTestClient(t, server)
	engine := NewEngine(NewDetailFetcher(client, NewResolutionCache()))

	cands := []metadata.Candidate{
		{URL: server.URL + "/konyv/a", Relevance: 0},
		{URL: server.URL + "/konyv/b", Relevance: 1},
		{URL: server.URL + "/konyv/c", Relevance: 2},
	}

	results := make(chan *metadata.Record, len(cands))
	start := time.Now()
	engine.Dispatch(context.Background(), cands, results)
	// Worker 1 starts immediately, workers 2 and 3 each wait out the
	// stagger interval.
	require.GreaterOrEqual(t, time.Since(start), 2*startStagger)
}
