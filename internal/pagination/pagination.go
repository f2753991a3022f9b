// Package pagination computes the next results page from the current URL.
package pagination

import (
	"net/url"
	"strconv"
)

// PageParam is the query parameter carrying the 1-based page number
const PageParam = "page"

// CurrentPage returns the page number encoded in rawURL. A missing or
// unparsable page parameter means page 1. Like a lenient integer parse,
// only the leading digits count ("4abc" is page 4).
func CurrentPage(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 1
	}
	return pageOf(u)
}

// NextTarget returns the URL of the page after currentURL when that page
// does not exceed maxPages. Other query parameters are kept.
func NextTarget(currentURL string, maxPages int) (string, bool) {
	u, err := url.Parse(currentURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}

	next := pageOf(u) + 1
	if next > maxPages {
		return "", false
	}

	q := u.Query()
	q.Set(PageParam, strconv.Itoa(next))
	u.RawQuery = q.Encode()
	return u.String(), true
}

func pageOf(u *url.URL) int {
	raw := u.Query().Get(PageParam)
	n, ok := leadingInt(raw)
	if !ok {
		return 1
	}
	return n
}

// leadingInt parses an optionally signed run of leading digits after spaces
func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, false
	}
	return n, true
}
