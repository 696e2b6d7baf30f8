// Package extract derives cleaned text and outbound links from raw
// HTML. It is a stateless collaborator of the crawl loop: malformed
// markup yields empty results, never errors.
package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Tags whose subtrees never contribute corpus text.
const boilerplateSelector = "script,noscript,style,iframe,nav,footer,aside,form"

// Text strips boilerplate elements, concatenates paragraph blocks
// longer than minBlockLength bytes, and normalizes the result
// (case-folded, whitespace-collapsed, trimmed). It returns the empty
// string when nothing qualifies.
func Text(body []byte, minBlockLength int) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	doc.Find(boilerplateSelector).Remove()

	var blocks []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := nodeText(s)
		if len(text) > minBlockLength {
			blocks = append(blocks, text)
		}
	})

	return normalize(strings.Join(blocks, " "))
}

// TokenCount returns the number of whitespace-delimited segments in
// already-normalized text. This is a plain word count, not a
// language-model tokenizer count.
func TokenCount(text string) int {
	return len(strings.Fields(text))
}

// Links extracts anchor targets from the page, resolves each against
// base, and returns deduplicated absolute http/https URLs with
// fragments stripped. At most maxLinks are returned.
func Links(body []byte, base *url.URL, maxLinks int) []*url.URL {
	if base == nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	if maxLinks <= 0 {
		maxLinks = 200
	}
	seen := make(map[string]struct{})
	links := make([]*url.URL, 0, maxLinks)

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}
		if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return true
		}

		u, err := base.Parse(href)
		if err != nil {
			return true
		}
		u.Fragment = ""
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return true
		}
		key := u.String()
		if _, exists := seen[key]; exists {
			return true
		}
		seen[key] = struct{}{}
		links = append(links, u)
		return len(links) < maxLinks
	})

	return links
}

// nodeText flattens a selection's text nodes into a single
// space-separated string.
func nodeText(s *goquery.Selection) string {
	var b strings.Builder
	for _, node := range s.Nodes {
		accumulateText(node, &b)
	}
	return normalize(b.String())
}

func accumulateText(node *html.Node, b *strings.Builder) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		text := strings.TrimSpace(node.Data)
		if text != "" {
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString(text)
		}
	case html.ElementNode:
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			accumulateText(child, b)
		}
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
