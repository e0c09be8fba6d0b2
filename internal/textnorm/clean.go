// Package textnorm cleans the free text that external catalogs ship
// (HTML-ish descriptions, crammed system requirement blocks) into plain
// text and canonical requirement templates.
//
// Nothing in this package returns an error: input that cannot be
// understood degrades to an empty string or map.
package textnorm

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	brTag        = regexp.MustCompile(`(?i)<\s*br\s*/?\s*>`)
	blockClose   = regexp.MustCompile(`(?i)</\s*(li|p|div|ul|ol|h[1-6])\s*>`)
	leadingLabel = regexp.MustCompile(`(?i)^\s*(minimum|recommended)(\s+requirements)?\s*:\s*`)

	// StrictPolicy drops every tag and keeps text nodes.
	stripPolicy = bluemonday.StrictPolicy()
)

// StripHTML converts line-break markup to newlines, removes all other tags,
// unescapes entities and normalizes line endings.
func StripHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = brTag.ReplaceAllString(s, "\n")
	s = blockClose.ReplaceAllString(s, "\n")
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// Clean turns a raw requirement block into plain text: HTML is stripped,
// a leading "Minimum:"/"Recommended:" label is dropped, and every
// recognized requirement key that appears mid-line is moved onto its own
// line.
func Clean(raw string) string {
	s := StripHTML(raw)
	if s == "" {
		return ""
	}
	s = leadingLabel.ReplaceAllString(s, "")
	s = splitKeys(s)

	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
