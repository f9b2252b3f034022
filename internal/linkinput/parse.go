// Package linkinput turns pasted free text into the list of profile links to analyze.
package linkinput

import (
	"regexp"
	"strings"
)

var separators = regexp.MustCompile(`[\n,]+`)

// Parse splits text on newlines and commas, trims each token and keeps those that look like
// links (prefix "http" or "www"). Everything else is dropped silently. Order and duplicates are
// preserved.
func Parse(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, tok := range separators.Split(text, -1) {
		tok = strings.TrimSpace(tok)
		if looksLikeLink(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// Clean applies the same filter to an already split list.
func Clean(urls []string) []string {
	var out []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if looksLikeLink(u) {
			out = append(out, u)
		}
	}
	return out
}

func looksLikeLink(tok string) bool {
	return tok != "" && (strings.HasPrefix(tok, "http") || strings.HasPrefix(tok, "www"))
}

var samples = []string{
	"https://www.youtube.com/@MrBeast",
	"https://www.instagram.com/nasa/",
	"https://www.tiktok.com/@khaby.lame",
}

// Samples returns the demo link set.
func Samples() []string {
	return append([]string(nil), samples...)
}
