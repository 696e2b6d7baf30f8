package crawler

import (
	"net/url"
	"strings"
)

// DomainFilter decides whether a discovered link may enter the
// frontier. The allow-set is fixed for the run: either supplied
// explicitly or derived from the seed hosts. Membership is checked on
// the host[:port] form, so crawls scoped to a non-default port stay on
// that port.
type DomainFilter struct {
	allowed  map[string]struct{}
	excluded map[string]struct{}
}

// NewDomainFilter builds a filter from allow and exclude host lists.
// Hosts are matched case-insensitively.
func NewDomainFilter(allowed, excluded []string) *DomainFilter {
	f := &DomainFilter{
		allowed:  make(map[string]struct{}, len(allowed)),
		excluded: make(map[string]struct{}, len(excluded)),
	}
	for _, host := range allowed {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			f.allowed[host] = struct{}{}
		}
	}
	for _, host := range excluded {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			f.excluded[host] = struct{}{}
		}
	}
	return f
}

// Eligible reports whether the URL may be enqueued: http/https scheme
// and host inside the allow-set, outside the exclude-set. Malformed or
// relative URLs are ineligible, never errors.
func (f *DomainFilter) Eligible(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Host)
	if host == "" {
		return false
	}
	if _, denied := f.excluded[host]; denied {
		return false
	}
	if _, ok := f.allowed[host]; !ok {
		return false
	}
	return true
}
