package crawler

import "strings"

// blockIndicators mark a body text as a block or forbidden page
var blockIndicators = []string{"403", "Forbidden", "blocked", "Access Denied"}

// contentIndicators are checked against the raw HTML when the results table never appeared
var contentIndicators = []string{"403", "Forbidden"}

// detectBlock returns the first indicator found in text
func detectBlock(text string) (string, bool) {
	return firstIndicator(text, blockIndicators)
}

func detectBlockedContent(html string) (string, bool) {
	return firstIndicator(html, contentIndicators)
}

func firstIndicator(s string, indicators []string) (string, bool) {
	for _, ind := range indicators {
		if strings.Contains(s, ind) {
			return ind, true
		}
	}
	return "", false
}
