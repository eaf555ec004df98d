package scraper

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer turns scraped HTML fragments into plain draft text.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return &Sanitizer{policy: p}
}

// Text strips every tag, decodes entities and collapses whitespace.
func (s *Sanitizer) Text(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	clean := html.UnescapeString(s.policy.Sanitize(fragment))
	return strings.Join(strings.Fields(clean), " ")
}

// Clip shortens text to at most n runes, ending on a word boundary when it can.
func Clip(text string, n int) string {
	r := []rune(text)
	if n <= 0 || len(r) <= n {
		return text
	}
	cut := string(r[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
