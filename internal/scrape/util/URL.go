package util

import (
	"net/url"
	"strings"
)

// StripQuery returns the link without its query string or fragment.
// It works on the raw string so relative and malformed hrefs survive untouched.
func StripQuery(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// ResolveHref resolves href against the page URL the way a browser fills
// link.href, so protocol-relative and path-relative links come out absolute.
// A query- or fragment-only href names no page and is returned as is, as is
// any href when the page URL is not absolute.
func ResolveHref(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if StripQuery(href) == "" {
		return href
	}
	base, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || !base.IsAbs() || base.Host == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
