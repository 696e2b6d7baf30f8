package crawler

import (
	"net/url"
	"sync"
)

// Frontier is the crawl's pending-URL FIFO queue plus its visited-URL
// set. A URL enters the pending sequence at most once and is never
// re-enqueued after it has been visited, so every URL is processed at
// most once per run. URL identity is exact string equality after
// resolution against a base URL.
type Frontier struct {
	mu      sync.Mutex
	items   []*url.URL
	pending map[string]struct{}
	visited map[string]struct{}
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		pending: make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// Push adds a URL to the tail of the pending sequence. It is an
// idempotent no-op for URLs already pending or already visited.
// Returns true if the URL was added.
func (f *Frontier) Push(u *url.URL) bool {
	if u == nil {
		return false
	}
	key := u.String()

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[key]; ok {
		return false
	}
	if _, ok := f.pending[key]; ok {
		return false
	}
	f.pending[key] = struct{}{}
	f.items = append(f.items, u)
	return true
}

// Pop removes and returns the oldest pending URL. The second return
// value is false when the frontier is empty, which the crawl loop
// treats as a natural termination signal.
func (f *Frontier) Pop() (*url.URL, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.items) == 0 {
		return nil, false
	}
	u := f.items[0]
	f.items = f.items[1:]
	delete(f.pending, u.String())
	return u, true
}

// MarkVisited records a URL as visited. The crawl loop calls this
// exactly once per popped URL, regardless of fetch outcome.
func (f *Frontier) MarkVisited(u *url.URL) {
	if u == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited[u.String()] = struct{}{}
}

// IsVisited reports whether a URL has been visited.
func (f *Frontier) IsVisited(u *url.URL) bool {
	if u == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[u.String()]
	return ok
}

// Len returns the number of pending URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// VisitedCount returns the number of visited URLs.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
