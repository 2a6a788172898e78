package antikvarium

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/otapi/antikvarium/internal/metadata"
	"github.com/otapi/antikvarium/internal/ratelimit"
)

// startStagger is the minimum delay between successive worker starts. It
// throttles start-up rate as a courtesy to the site; it is not a bound on
// how many workers run at once.
const startStagger = 100 * time.Millisecond

// Engine fans one detail fetch per candidate out to its own goroutine and
// funnels successful records into a shared result channel.
type Engine struct {
	fetcher *DetailFetcher
	stagger *ratelimit.Limiter
}

// NewEngine creates a dispatch engine around a detail fetcher.
func NewEngine(fetcher *DetailFetcher) *Engine {
	return &Engine{
		fetcher: fetcher,
		stagger: ratelimit.NewInterval("worker start", startStagger),
	}
}

// Dispatch starts one worker per candidate, in candidate order, and blocks
// until every worker has finished or ctx is cancelled. Each worker sends
// at most one record on results; failures send nothing, so a partially
// successful run is indistinguishable from a smaller result set.
//
// Cancellation is cooperative: no worker is killed mid-fetch, Dispatch
// just stops waiting and returns with whatever already reached the
// channel. No worker ever blocks a sibling. The channel stays open, the
// caller owns it.
//
// The return value is the number of records delivered so far; zero lets
// the caller decide whether a fallback search is warranted.
func (e *Engine) Dispatch(ctx context.Context, cands []metadata.Candidate, results chan<- *metadata.Record) int {
	var delivered atomic.Int32
	var wg sync.WaitGroup
	for _, cand := range cands {
		// Don't send all requests at the same time.
		if err := e.stagger.Wait(ctx); err != nil {
			break
		}
		wg.Add(1)
		go func(cand metadata.Candidate) {
			defer wg.Done()
			rec := e.fetcher.Fetch(ctx, cand)
			if rec == nil {
				return
			}
			select {
			case results <- rec:
				delivered.Add(1)
			case <-ctx.Done():
			}
		}(cand)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return int(delivered.Load())
}
