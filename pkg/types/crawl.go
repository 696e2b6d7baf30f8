package types

import (
	"net/http"
	"net/url"
	"time"
)

// Page represents the fetched content of a single URL.
type Page struct {
	URL             *url.URL
	FinalURL        *url.URL
	Body            []byte
	ContentType     string
	StatusCode      int
	Headers         http.Header
	FetchedAt       time.Time
	ResponseLatency time.Duration
}

// PageRecord aggregates the outcome of processing one page: the cleaned
// text destined for the corpus plus the audit row for the optional
// record store.
type PageRecord struct {
	URL        string
	FinalURL   string
	StatusCode int
	Text       string
	TokenCount int
	LinkCount  int
	FetchedAt  time.Time
	Latency    time.Duration
}
