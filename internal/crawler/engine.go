package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"

	"corpuscrawler/internal/config"
	"corpuscrawler/internal/extract"
	"corpuscrawler/internal/fetcher"
	"corpuscrawler/internal/robots"
	"corpuscrawler/internal/storage"
	"corpuscrawler/pkg/types"
)

// Termination reasons reported by Summary after a run ends.
const (
	ReasonFrontierExhausted = "frontier_exhausted"
	ReasonMaxPages          = "max_pages"
	ReasonMaxTokens         = "max_tokens"
	ReasonCancelled         = "cancelled"
)

// Engine orchestrates the crawl: it pops work from the frontier,
// consults the robots cache and the budget, fetches and extracts page
// text, feeds eligible links back into the frontier, and applies the
// fixed inter-request delay. Execution is strictly sequential, so all
// counters are mutated from a single call stack.
type Engine struct {
	cfg      config.Config
	fetcher  fetcher.Fetcher
	robots   *robots.Cache
	frontier *Frontier
	filter   *DomainFilter
	budget   *Budget
	limiter  *Limiter
	pipeline *storage.Pipeline
	logger   *slog.Logger

	seeds []*url.URL

	pagesVisited    int
	pagesStored     int
	tokensExtracted int
	reason          string

	closeOnce sync.Once
}

// Summary reports the final counters and termination reason of a run.
type Summary struct {
	PagesVisited    int
	PagesStored     int
	TokensExtracted int
	Reason          string
}

// NewEngine builds a crawler engine from configuration. Configuration
// errors surface here and prevent the run from starting; no error
// after this point aborts a crawl.
func NewEngine(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	httpFetcher, err := fetcher.NewHTTPFetcher(cfg.Fetch)
	if err != nil {
		return nil, fmt.Errorf("http fetcher: %w", err)
	}

	seeds := make([]*url.URL, 0, len(cfg.Crawl.Seeds))
	for _, seed := range cfg.Crawl.Seeds {
		parsed, err := url.Parse(seed)
		if err != nil {
			return nil, fmt.Errorf("parse seed %q: %w", seed, err)
		}
		seeds = append(seeds, parsed)
	}

	// The allow-set is fixed at start: explicit list, or the seed
	// hosts when none is given.
	allowed := cfg.Crawl.AllowedDomains
	if len(allowed) == 0 {
		for _, seed := range seeds {
			allowed = append(allowed, seed.Host)
		}
	}

	corpus, err := storage.NewCorpusWriter(cfg.Output.Path)
	if err != nil {
		return nil, err
	}

	var records storage.RecordStore
	if cfg.Records.Path != "" {
		store, err := storage.OpenSQLite(cfg.Records.Path)
		if err != nil {
			corpus.Close()
			return nil, err
		}
		records = store
	}

	var rateCfg RateLimiterSettings
	if cfg.Crawl.RateLimitPerDomain.Enabled() {
		rateCfg = RateLimiterSettings{
			Requests: cfg.Crawl.RateLimitPerDomain.Requests,
			Window:   cfg.Crawl.RateLimitPerDomain.Window.Duration,
		}
	}

	return &Engine{
		cfg:      cfg,
		fetcher:  httpFetcher,
		robots:   robots.NewCache(cfg.Robots, httpFetcher.Client()),
		frontier: NewFrontier(),
		filter:   NewDomainFilter(allowed, cfg.Crawl.ExcludedDomains),
		budget:   NewBudget(cfg.Crawl.MaxPages, cfg.Crawl.MaxTokens),
		limiter:  NewLimiter(cfg.Crawl.Delay.Duration, rateCfg),
		pipeline: storage.NewPipeline(corpus, records),
		logger:   logger,
		seeds:    seeds,
	}, nil
}

// Run executes the crawl until the frontier is exhausted, a budget
// limit is reached, or the context is cancelled. All budget-driven
// terminations are clean; only cancellation returns an error.
func (e *Engine) Run(ctx context.Context) error {
	defer e.Close()

	for _, seed := range e.seeds {
		e.frontier.Push(seed)
	}

	for {
		if ctx.Err() != nil {
			e.reason = ReasonCancelled
			e.logSummary()
			return ctx.Err()
		}
		if !e.budget.ShouldContinue(e.pagesVisited, e.tokensExtracted) {
			if e.budget.PagesExhausted(e.pagesVisited) {
				e.reason = ReasonMaxPages
			} else {
				e.reason = ReasonMaxTokens
			}
			break
		}

		target, ok := e.frontier.Pop()
		if !ok {
			e.reason = ReasonFrontierExhausted
			break
		}
		// Visited regardless of outcome; a URL is never retried.
		e.frontier.MarkVisited(target)
		e.pagesVisited++

		stop, err := e.process(ctx, target)
		if err != nil {
			e.reason = ReasonCancelled
			e.logSummary()
			return err
		}
		if stop {
			e.reason = ReasonMaxTokens
			break
		}
	}

	e.logSummary()
	return nil
}

// process handles one popped URL: authorize, fetch, extract, persist,
// discover. Per-URL failures are logged and isolated; they never
// unwind past this boundary. The returned stop flag requests immediate
// termination after a token-budget-exhausting write. The only error
// returned is context cancellation, observed while waiting out the
// inter-request delay.
func (e *Engine) process(ctx context.Context, target *url.URL) (bool, error) {
	if !e.robots.Allowed(ctx, target) {
		e.logger.Info("disallowed by robots.txt", "url", target.String())
		// The delay applies to every processed URL, robots-denied included.
		return false, e.limiter.Wait(ctx, target.Host)
	}

	e.logger.Info("fetching",
		"url", target.String(),
		"page", e.pagesVisited,
		"max_pages", e.budget.MaxPages())

	page, err := e.fetcher.Fetch(ctx, target)
	if err != nil {
		e.logger.Error("fetch failed", "url", target.String(), "error", err)
		return false, e.limiter.Wait(ctx, target.Host)
	}

	base := page.FinalURL
	if base == nil {
		base = target
	}

	text := extract.Text(page.Body, e.cfg.Extract.MinBlockLength)
	tokens := extract.TokenCount(text)
	links := extract.Links(page.Body, base, e.cfg.Crawl.MaxLinksPerPage)

	rec := types.PageRecord{
		URL:        target.String(),
		FinalURL:   base.String(),
		StatusCode: page.StatusCode,
		Text:       text,
		TokenCount: tokens,
		LinkCount:  len(links),
		FetchedAt:  page.FetchedAt,
		Latency:    page.ResponseLatency,
	}
	if err := e.pipeline.Persist(ctx, rec); err != nil {
		e.logger.Error("persist failed", "url", target.String(), "error", err)
	} else if text != "" {
		e.pagesStored++
	}

	if text != "" {
		e.tokensExtracted += tokens
		if e.cfg.Crawl.MaxTokens > 0 {
			e.logger.Info("extracted tokens",
				"tokens", tokens,
				"total", e.tokensExtracted,
				"max_tokens", e.cfg.Crawl.MaxTokens)
		}
		// Budget honored as soon as it is reached: stop right after
		// this write, before any further enqueue or fetch.
		if e.budget.TokensExhausted(e.tokensExtracted) {
			return true, nil
		}
	}

	for _, link := range links {
		if e.filter.Eligible(link) {
			e.frontier.Push(link)
		}
	}

	return false, e.limiter.Wait(ctx, target.Host)
}

// Summary returns the run's final counters.
func (e *Engine) Summary() Summary {
	return Summary{
		PagesVisited:    e.pagesVisited,
		PagesStored:     e.pagesStored,
		TokensExtracted: e.tokensExtracted,
		Reason:          e.reason,
	}
}

// Close releases the engine's sinks. Safe to call multiple times.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		err = e.pipeline.Close()
	})
	return err
}

func (e *Engine) logSummary() {
	e.logger.Info("crawl finished",
		"reason", e.reason,
		"pages_visited", e.pagesVisited,
		"pages_stored", e.pagesStored,
		"tokens", e.tokensExtracted)
}

func buildLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Structured {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler), nil
}
