package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"corpuscrawler/internal/config"
)

func testConfig() config.RobotsConfig {
	return config.RobotsConfig{
		Respect:   true,
		UserAgent: "corpuscrawler-test/1.0",
	}
}

func pageURL(t *testing.T, base, path string) *url.URL {
	t.Helper()
	u, err := url.Parse(base + path)
	if err != nil {
		t.Fatalf("parse %s%s: %v", base, path, err)
	}
	return u
}

func TestAllowedFollowsDirectives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\nAllow: /private/open\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cache := NewCache(testConfig(), srv.Client())
	ctx := context.Background()

	if !cache.Allowed(ctx, pageURL(t, srv.URL, "/public/page")) {
		t.Fatal("path outside Disallow should be allowed")
	}
	if cache.Allowed(ctx, pageURL(t, srv.URL, "/private/page")) {
		t.Fatal("disallowed path should be blocked")
	}
	if !cache.Allowed(ctx, pageURL(t, srv.URL, "/private/open")) {
		t.Fatal("longer Allow rule should override the Disallow")
	}
}

func TestFailOpenOnFetchError(t *testing.T) {
	statuses := []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusForbidden}
	for _, status := range statuses {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		cache := NewCache(testConfig(), srv.Client())
		if !cache.Allowed(context.Background(), pageURL(t, srv.URL, "/anything")) {
			t.Errorf("status %d: unreachable robots.txt must fail open", status)
		}
		srv.Close()
	}
}

func TestFailOpenOnNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	cache := NewCache(testConfig(), http.DefaultClient)
	if !cache.Allowed(context.Background(), pageURL(t, srv.URL, "/page")) {
		t.Fatal("network error fetching robots.txt must fail open")
	}
}

func TestSingleFetchPerOrigin(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fetches.Add(1)
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
		}
	}))
	defer srv.Close()

	cache := NewCache(testConfig(), srv.Client())
	ctx := context.Background()
	for _, path := range []string{"/a", "/b", "/private/c", "/d"} {
		cache.Allowed(ctx, pageURL(t, srv.URL, path))
	}

	if got := fetches.Load(); got != 1 {
		t.Fatalf("expected exactly one robots.txt fetch per origin, got %d", got)
	}
}

func TestFailureMarkerIsCached(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := NewCache(testConfig(), srv.Client())
	ctx := context.Background()
	cache.Allowed(ctx, pageURL(t, srv.URL, "/a"))
	cache.Allowed(ctx, pageURL(t, srv.URL, "/b"))

	if got := fetches.Load(); got != 1 {
		t.Fatalf("failed robots.txt fetch should also be cached, got %d fetches", got)
	}
}

func TestOverridesSkipRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /\n"))
		}
	}))
	defer srv.Close()

	target := pageURL(t, srv.URL, "/blocked")

	cfg := testConfig()
	cfg.Overrides = []string{target.Hostname()}
	cache := NewCache(cfg, srv.Client())
	if !cache.Allowed(context.Background(), target) {
		t.Fatal("override host should bypass robots rules")
	}
}

func TestRespectDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Respect = false
	cache := NewCache(cfg, http.DefaultClient)

	if !cache.Allowed(context.Background(), pageURL(t, "http://unreachable.invalid", "/x")) {
		t.Fatal("respect=false should allow everything without fetching")
	}
}

func TestRejectsRelativeURL(t *testing.T) {
	cache := NewCache(testConfig(), http.DefaultClient)
	u := &url.URL{Path: "/relative"}
	if cache.Allowed(context.Background(), u) {
		t.Fatal("relative URLs have no origin and must be rejected")
	}
}
