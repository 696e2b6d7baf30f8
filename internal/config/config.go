package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full configuration required to run a crawl.
type Config struct {
	Crawl   CrawlConfig   `yaml:"crawl"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Extract ExtractConfig `yaml:"extract"`
	Robots  RobotsConfig  `yaml:"robots"`
	Output  OutputConfig  `yaml:"output"`
	Records RecordsConfig `yaml:"records"`
	Logging LoggingConfig `yaml:"logging"`
}

// CrawlConfig controls the crawl frontier, limits, and throttling.
type CrawlConfig struct {
	Seeds              []string        `yaml:"seeds"`
	MaxPages           int             `yaml:"max_pages"`
	MaxTokens          int             `yaml:"max_tokens"`
	Delay              Duration        `yaml:"delay"`
	AllowedDomains     []string        `yaml:"allowed_domains"`
	ExcludedDomains    []string        `yaml:"excluded_domains"`
	RateLimitPerDomain RateLimitConfig `yaml:"rate_limit_per_domain"`
	MaxLinksPerPage    int             `yaml:"max_links_per_page"`
}

// RateLimitConfig applies a token bucket per domain on top of the
// fixed inter-request delay.
type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

// FetchConfig controls the HTTP client used for page fetches.
type FetchConfig struct {
	UserAgent    string            `yaml:"user_agent"`
	Headers      map[string]string `yaml:"headers"`
	Timeout      Duration          `yaml:"timeout"`
	MaxBodyBytes int64             `yaml:"max_body_bytes"`
	ProxyURL     string            `yaml:"proxy_url"`
}

// ExtractConfig tunes text extraction from fetched pages.
type ExtractConfig struct {
	MinBlockLength int `yaml:"min_block_length"`
}

// RobotsConfig configures robots.txt handling.
type RobotsConfig struct {
	Respect   bool     `yaml:"respect"`
	Overrides []string `yaml:"overrides"`
	UserAgent string   `yaml:"user_agent"`
}

// OutputConfig locates the corpus sink. The file is opened in append
// mode and never truncated across runs.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// RecordsConfig enables the optional SQLite crawl-record store. An
// empty path disables it.
type RecordsConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Crawl: CrawlConfig{
			MaxPages:        100,
			Delay:           DurationFrom(time.Second),
			MaxLinksPerPage: 200,
		},
		Fetch: FetchConfig{
			UserAgent:    "corpuscrawler/1.0 (+https://corpuscrawler.dev)",
			Headers:      map[string]string{},
			Timeout:      DurationFrom(10 * time.Second),
			MaxBodyBytes: 5 * 1024 * 1024,
		},
		Extract: ExtractConfig{
			MinBlockLength: 50,
		},
		Robots: RobotsConfig{
			Respect:   true,
			Overrides: []string{},
		},
		Output: OutputConfig{
			Path: "corpus.txt",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: false,
		},
	}
}

// LoadPartial decodes a YAML file on top of the defaults without
// normalising or validating, for callers that overlay CLI flags before
// validation.
func LoadPartial(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()

	cfg := Default()
	if err := decodeYAML(fh, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decodeYAML(r, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate enforces required invariants for the crawl configuration.
// Any error here prevents the run from starting at all.
func (c Config) Validate() error {
	if len(c.Crawl.Seeds) == 0 {
		return errors.New("at least one seed URL must be configured")
	}
	for i, seed := range c.Crawl.Seeds {
		parsed, err := url.Parse(seed)
		if err != nil {
			return fmt.Errorf("seed %d (%q): %w", i, seed, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("seed %q must use http or https", seed)
		}
		if parsed.Host == "" {
			return fmt.Errorf("seed %q missing host", seed)
		}
	}
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be > 0 (got %d)", c.Crawl.MaxPages)
	}
	if c.Crawl.MaxTokens < 0 {
		return fmt.Errorf("crawl.max_tokens must be >= 0 (got %d)", c.Crawl.MaxTokens)
	}
	if c.Crawl.Delay.Duration < 0 {
		return fmt.Errorf("crawl.delay must be >= 0 (got %s)", c.Crawl.Delay)
	}
	if rl := c.Crawl.RateLimitPerDomain; rl.Requests < 0 {
		return fmt.Errorf("crawl.rate_limit_per_domain.requests must be >= 0 (got %d)", rl.Requests)
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0 (got %d)", c.Fetch.MaxBodyBytes)
	}
	if strings.TrimSpace(c.Fetch.UserAgent) == "" {
		return errors.New("fetch.user_agent must be set")
	}
	if c.Extract.MinBlockLength < 0 {
		return fmt.Errorf("extract.min_block_length must be >= 0 (got %d)", c.Extract.MinBlockLength)
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return errors.New("output.path must be set")
	}
	return nil
}

// Normalise trims and de-duplicates string-valued fields and fills
// derived defaults (robots user agent falls back to the fetch one).
func (c *Config) Normalise() {
	for i := range c.Crawl.Seeds {
		c.Crawl.Seeds[i] = strings.TrimSpace(c.Crawl.Seeds[i])
	}
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	c.Robots.UserAgent = strings.TrimSpace(c.Robots.UserAgent)
	if c.Robots.UserAgent == "" {
		c.Robots.UserAgent = c.Fetch.UserAgent
	}
	c.Output.Path = strings.TrimSpace(c.Output.Path)
	c.Records.Path = strings.TrimSpace(c.Records.Path)

	if len(c.Robots.Overrides) > 0 {
		c.Robots.Overrides = dedupeLower(c.Robots.Overrides)
	}
	if len(c.Crawl.AllowedDomains) > 0 {
		c.Crawl.AllowedDomains = dedupeLower(c.Crawl.AllowedDomains)
	}
	if len(c.Crawl.ExcludedDomains) > 0 {
		c.Crawl.ExcludedDomains = dedupeLower(c.Crawl.ExcludedDomains)
	}
}

func dedupeLower(values []string) []string {
	unique := make(map[string]struct{}, len(values))
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := unique[v]; ok {
			continue
		}
		unique[v] = struct{}{}
		cleaned = append(cleaned, v)
	}
	sort.Strings(cleaned)
	return cleaned
}

// Enabled reports whether per-domain rate limiting is active.
func (r RateLimitConfig) Enabled() bool {
	return r.Requests > 0 && !r.Window.IsZero()
}
