package main

import (
	"time"

	"github.com/spf13/cobra"

	"corpuscrawler/internal/config"
	"corpuscrawler/internal/crawler"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpuscrawler [seed-url...]",
		Short: "Polite, self-bounded breadth-first corpus crawler",
		Long: `corpuscrawler discovers and fetches linked pages starting from one or
more seed URLs, staying inside an allow-list of domains, respecting each
origin's robots.txt, and pacing requests with a fixed delay. Cleaned,
deduplicated page text is appended to a plain-text corpus file until a
page-count or token budget is exhausted.

Examples:
  # Crawl a site with the defaults (100 pages, 1s delay, corpus.txt)
  corpuscrawler https://example.com

  # Bound the crawl by extracted tokens as well as pages
  corpuscrawler --max-pages 500 --max-tokens 200000 https://example.com

  # Restrict to explicit domains and keep a SQLite audit log
  corpuscrawler --allowed-domains example.com,docs.example.com \
    --records crawl.db https://example.com

  # Use a configuration file, overriding its output path
  corpuscrawler -c crawl.yaml -o corpus.txt`,
		Args:          cobra.ArbitraryArgs,
		RunE:          runCrawl,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("config", "c", "", "Path to a YAML configuration file")
	cmd.Flags().IntP("max-pages", "p", 100, "Maximum number of pages to crawl")
	cmd.Flags().Int("max-tokens", 0, "Maximum number of extracted tokens (0 = unbounded)")
	cmd.Flags().DurationP("delay", "d", time.Second, "Fixed delay between requests")
	cmd.Flags().StringP("output", "o", "corpus.txt", "Corpus output file (appended, never truncated)")
	cmd.Flags().StringSlice("allowed-domains", nil,
		"Domains to restrict crawling to (defaults to the seed hosts)")
	cmd.Flags().StringSlice("excluded-domains", nil, "Domains to skip even when allowed")
	cmd.Flags().String("user-agent", "", "Identifying User-Agent header")
	cmd.Flags().String("records", "", "Optional SQLite file recording one row per fetched page")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("json-logs", false, "Emit structured JSON logs")
	cmd.Flags().Bool("ignore-robots", false, "Do not consult robots.txt (use responsibly)")

	return cmd
}

// runCrawl assembles the run configuration (defaults, then the config
// file, then flags and positional seeds) and executes the crawl.
func runCrawl(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	cfg := config.Default()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.LoadPartial(path)
		if err != nil {
			return err
		}
		cfg = *loaded
	}

	if flags.Changed("max-pages") {
		cfg.Crawl.MaxPages, _ = flags.GetInt("max-pages")
	}
	if flags.Changed("max-tokens") {
		cfg.Crawl.MaxTokens, _ = flags.GetInt("max-tokens")
	}
	if flags.Changed("delay") {
		delay, _ := flags.GetDuration("delay")
		cfg.Crawl.Delay = config.DurationFrom(delay)
	}
	if flags.Changed("output") {
		cfg.Output.Path, _ = flags.GetString("output")
	}
	if flags.Changed("allowed-domains") {
		cfg.Crawl.AllowedDomains, _ = flags.GetStringSlice("allowed-domains")
	}
	if flags.Changed("excluded-domains") {
		cfg.Crawl.ExcludedDomains, _ = flags.GetStringSlice("excluded-domains")
	}
	if flags.Changed("user-agent") {
		cfg.Fetch.UserAgent, _ = flags.GetString("user-agent")
	}
	if flags.Changed("records") {
		cfg.Records.Path, _ = flags.GetString("records")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("json-logs") {
		cfg.Logging.Structured, _ = flags.GetBool("json-logs")
	}
	if flags.Changed("ignore-robots") {
		ignore, _ := flags.GetBool("ignore-robots")
		cfg.Robots.Respect = !ignore
	}

	cfg.Crawl.Seeds = append(cfg.Crawl.Seeds, args...)
	cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return err
	}

	engine, err := crawler.NewEngine(cfg)
	if err != nil {
		return err
	}
	return engine.Run(cmd.Context())
}
