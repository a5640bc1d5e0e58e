// Package sanitize strips markup from free-text fields before they are stored.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// A tag opens with a letter, "/" or "!" right after "<". A bare "<"
	// followed by a space or digit is comparison text and stays.
	tagPattern     = regexp.MustCompile(`</?[A-Za-z!][^<>]*>`)
	entityReplacer = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&#39;", "'",
	)
)

// Text removes HTML tags, including ones hidden behind entity encoding, and
// trims surrounding whitespace.
func Text(s string) string {
	result := tagPattern.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	result = tagPattern.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// TextPtr sanitizes an optional field. A nil input stays nil so patch
// semantics are preserved.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

// OptionalText sanitizes an optional field and collapses a blank result to nil.
func OptionalText(s *string) *string {
	cleaned := TextPtr(s)
	if cleaned == nil || *cleaned == "" {
		return nil
	}
	return cleaned
}
