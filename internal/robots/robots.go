package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"

	"corpuscrawler/internal/config"
)

// Cache evaluates robots.txt rules with per-origin caching. An origin
// (scheme://host[:port]) is resolved at most once per run: the first
// URL seen for it triggers the robots.txt fetch, and the resulting
// ruleset (or the fact that none could be retrieved) is cached for
// the lifetime of the cache. Rules are never refreshed mid-run.
type Cache struct {
	client    *http.Client
	userAgent string
	respect   bool

	mu        sync.RWMutex
	rulesets  map[string]*robotstxt.RobotsData // nil entry: fail-open, no enforceable ruleset
	overrides map[string]struct{}
}

// NewCache constructs a robots cache from configuration.
func NewCache(cfg config.RobotsConfig, client *http.Client) *Cache {
	if client == nil {
		client = http.DefaultClient
	}

	overrides := make(map[string]struct{}, len(cfg.Overrides))
	for _, host := range cfg.Overrides {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		overrides[host] = struct{}{}
	}

	return &Cache{
		client:    client,
		userAgent: cfg.UserAgent,
		respect:   cfg.Respect,
		rulesets:  make(map[string]*robotstxt.RobotsData),
		overrides: overrides,
	}
}

// Allowed reports whether the target URL is permitted. Retrieval
// failures (network error, non-200 status, malformed content) mark the
// origin as having no enforceable ruleset and fail open: an
// unreachable robots.txt must not silently block an entire domain.
func (c *Cache) Allowed(ctx context.Context, target *url.URL) bool {
	if target == nil || !target.IsAbs() {
		return false
	}

	if !c.respect {
		return true
	}

	if _, ok := c.overrides[strings.ToLower(target.Hostname())]; ok {
		return true
	}

	rules := c.rules(ctx, target)
	if rules == nil {
		return true
	}

	group := rules.FindGroup(c.userAgent)
	if group == nil {
		group = rules.FindGroup("*")
		if group == nil {
			return true
		}
	}
	return group.Test(target.Path)
}

// rules returns the cached ruleset for the target's origin, fetching
// it on first use. A nil return means no enforceable ruleset.
func (c *Cache) rules(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	origin := strings.ToLower(target.Scheme + "://" + target.Host)

	c.mu.RLock()
	rules, ok := c.rulesets[origin]
	c.mu.RUnlock()
	if ok {
		return rules
	}

	rules, err := c.fetch(ctx, origin)
	if err != nil {
		rules = nil
	}

	c.mu.Lock()
	// First writer wins so the ruleset stays immutable for the run.
	if existing, ok := c.rulesets[origin]; ok {
		rules = existing
	} else {
		c.rulesets[origin] = rules
	}
	c.mu.Unlock()

	return rules
}

func (c *Cache) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("robots returned status %d", resp.StatusCode)
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}
