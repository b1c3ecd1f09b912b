package scraper

import (
	"context"
	"sync"
	"time"

	"vcptools/internal/domain/consts"
	"vcptools/internal/utils/logging"
)

// TitleFetcher fetches the display title for one page URL.
type TitleFetcher func(ctx context.Context, pageURL string) (string, error)

// Enricher resolves real page titles for a batch of URLs through a
// small fixed worker pool. Each worker runs on its own fetcher (and
// therefore its own HTTP session) with a mandatory pacing delay
// between requests to stay under the site's rate limits.
type Enricher struct {
	workers     int
	pacing      time.Duration
	joinTimeout time.Duration
	newFetcher  func() TitleFetcher
}

// EnricherOption tunes the pool (tests).
type EnricherOption func(*Enricher)

// WithPoolSize overrides the worker count.
func WithPoolSize(n int) EnricherOption {
	return func(e *Enricher) { e.workers = n }
}

// WithPacing overrides the per-request delay.
func WithPacing(d time.Duration) EnricherOption {
	return func(e *Enricher) { e.pacing = d }
}

// WithJoinTimeout overrides the bounded wait.
func WithJoinTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) { e.joinTimeout = d }
}

// NewEnricher returns a pool with the default bounds.
func NewEnricher(newFetcher func() TitleFetcher, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		workers:     consts.EnrichWorkers,
		pacing:      consts.EnrichPacing,
		joinTimeout: consts.EnrichJoinTimeout,
		newFetcher:  newFetcher,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type titleResult struct {
	url   string
	title string
}

// Titles fetches titles for the given URLs. The wait is bounded: a
// hang in one fetch cannot block overall completion, it just leaves
// that URL unenriched.
func (e *Enricher) Titles(ctx context.Context, urls []string) map[string]string {
	titles := make(map[string]string, len(urls))
	if len(urls) == 0 {
		return titles
	}

	work := make(chan string, len(urls))
	results := make(chan titleResult, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetch := e.newFetcher()
			for u := range work {
				title, err := fetch(ctx, u)
				if err != nil {
					logging.D(2, "Title enrichment failed for %q: %v", u, err)
				} else {
					results <- titleResult{url: u, title: title}
				}

				select {
				case <-time.After(e.pacing):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for _, u := range urls {
		work <- u
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	deadline := time.After(e.joinTimeout)
	for {
		select {
		case r, ok := <-results:
			if !ok {
				return titles
			}
			titles[r.url] = r.title
		case <-deadline:
			logging.W("Title enrichment timed out with %d/%d resolved", len(titles), len(urls))
			return titles
		case <-ctx.Done():
			return titles
		}
	}
}
