package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Default()
	cfg.Crawl.Seeds = []string{"https://example.com"}
	cfg.Normalise()
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Crawl.MaxPages != 100 {
		t.Errorf("expected default max_pages 100, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.Delay.Duration != time.Second {
		t.Errorf("expected default delay 1s, got %s", cfg.Crawl.Delay)
	}
	if cfg.Crawl.MaxTokens != 0 {
		t.Errorf("expected token budget unbounded by default, got %d", cfg.Crawl.MaxTokens)
	}
	if cfg.Output.Path != "corpus.txt" {
		t.Errorf("expected default output corpus.txt, got %s", cfg.Output.Path)
	}
	if !cfg.Robots.Respect {
		t.Error("robots.txt should be respected by default")
	}
}

func TestLoadFromReader(t *testing.T) {
	yaml := `
crawl:
  seeds:
    - https://example.com/start
  max_pages: 10
  max_tokens: 5000
  delay: 2.5
  allowed_domains: [Example.com, example.com, docs.example.com]
fetch:
  user_agent: "custom-bot/2.0"
  timeout: 5s
output:
  path: out.txt
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Crawl.MaxPages != 10 {
		t.Errorf("max_pages = %d, want 10", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.Delay.Duration != 2500*time.Millisecond {
		t.Errorf("numeric-seconds delay = %s, want 2.5s", cfg.Crawl.Delay)
	}
	if cfg.Fetch.Timeout.Duration != 5*time.Second {
		t.Errorf("string timeout = %s, want 5s", cfg.Fetch.Timeout)
	}
	if got := cfg.Crawl.AllowedDomains; len(got) != 2 {
		t.Errorf("allowed_domains should be deduped+lowercased, got %v", got)
	}
	// Robots UA falls back to the fetch UA.
	if cfg.Robots.UserAgent != "custom-bot/2.0" {
		t.Errorf("robots user agent = %q, want fetch fallback", cfg.Robots.UserAgent)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	yaml := `
crawl:
  seeds: [https://example.com]
  max_pgaes: 10
`
	if _, err := LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for misspelled field")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no seeds", func(c *Config) { c.Crawl.Seeds = nil }},
		{"seed without host", func(c *Config) { c.Crawl.Seeds = []string{"https://"} }},
		{"seed with bad scheme", func(c *Config) { c.Crawl.Seeds = []string{"ftp://example.com"} }},
		{"zero max_pages", func(c *Config) { c.Crawl.MaxPages = 0 }},
		{"negative max_tokens", func(c *Config) { c.Crawl.MaxTokens = -1 }},
		{"negative delay", func(c *Config) { c.Crawl.Delay = DurationFrom(-time.Second) }},
		{"empty user agent", func(c *Config) { c.Fetch.UserAgent = " " }},
		{"zero body cap", func(c *Config) { c.Fetch.MaxBodyBytes = 0 }},
		{"empty output path", func(c *Config) { c.Output.Path = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestDurationRejectsNonScalar(t *testing.T) {
	yaml := `
crawl:
  seeds: [https://example.com]
  delay: [1, 2]
`
	if _, err := LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for non-scalar duration")
	}
}

func TestRateLimitEnabled(t *testing.T) {
	cases := []struct {
		name string
		cfg  RateLimitConfig
		want bool
	}{
		{"unset", RateLimitConfig{}, false},
		{"requests only", RateLimitConfig{Requests: 5}, false},
		{"window only", RateLimitConfig{Window: DurationFrom(time.Second)}, false},
		{"both", RateLimitConfig{Requests: 5, Window: DurationFrom(time.Second)}, true},
	}

	for _, tc := range cases {
		if got := tc.cfg.Enabled(); got != tc.want {
			t.Errorf("%s: Enabled() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1500ms")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Duration != 1500*time.Millisecond {
		t.Errorf("got %s, want 1.5s", d.Duration)
	}
	if err := d.UnmarshalText([]byte("nonsense")); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
