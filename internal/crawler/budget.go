package crawler

// Budget is the crawl termination policy: a required page-count limit
// combined with an optional extracted-token limit. Tokens are
// whitespace-delimited words of the normalized text, not language-model
// subword units.
type Budget struct {
	maxPages  int
	maxTokens int // 0 means unbounded by tokens
}

// NewBudget creates a budget. maxPages must be positive; maxTokens of
// zero disables the token limit.
func NewBudget(maxPages, maxTokens int) *Budget {
	return &Budget{maxPages: maxPages, maxTokens: maxTokens}
}

// ShouldContinue reports whether another page may be processed given
// the current counters.
func (b *Budget) ShouldContinue(pagesVisited, tokensExtracted int) bool {
	if pagesVisited >= b.maxPages {
		return false
	}
	if b.maxTokens > 0 && tokensExtracted >= b.maxTokens {
		return false
	}
	return true
}

// PagesExhausted reports whether the page-count limit has been reached.
func (b *Budget) PagesExhausted(pagesVisited int) bool {
	return pagesVisited >= b.maxPages
}

// TokensExhausted reports whether the token budget has been met or
// exceeded. The crawl loop re-checks this immediately after each
// page's tokens are counted so no further fetch is issued once the
// budget is reached, though a single page may push the count over it.
func (b *Budget) TokensExhausted(tokensExtracted int) bool {
	return b.maxTokens > 0 && tokensExtracted >= b.maxTokens
}

// MaxPages returns the configured page limit.
func (b *Budget) MaxPages() int {
	return b.maxPages
}
