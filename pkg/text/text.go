// Package text provides filename sanitization and search-query
// normalization for track titles and artist names.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxFilenameLen = 120

var (
	forbiddenChars  = regexp.MustCompile(`[/\\<>:"|?*\x00-\x1f]`)
	dotSegments     = regexp.MustCompile(`^\.+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// SanitizeFilename turns a display title into a safe single path component.
// Path separators, traversal prefixes and platform-reserved characters are
// stripped; an empty result degrades to "Unknown" so callers always get a
// usable name.
func SanitizeFilename(name string) string {
	name = forbiddenChars.ReplaceAllString(name, "")
	name = dotSegments.ReplaceAllString(strings.TrimSpace(name), "")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if len([]rune(name)) > maxFilenameLen {
		name = string([]rune(name)[:maxFilenameLen])
		name = strings.TrimSpace(name)
	}
	if name == "" {
		return "Unknown"
	}
	return name
}

// NormalizeQuery flattens a title/artist pair into a plain search query:
// diacritics decomposed and dropped, punctuation collapsed to spaces,
// lowercased. Keeps video-host search behavior stable across catalog
// spelling variants.
func NormalizeQuery(parts ...string) string {
	joined := strings.Join(parts, " ")
	joined = norm.NFKD.String(joined)

	var b strings.Builder
	for _, r := range joined {
		if !unicode.IsMark(r) {
			b.WriteRune(r)
		}
	}

	q := punctRegex.ReplaceAllString(b.String(), " ")
	q = whitespaceRegex.ReplaceAllString(q, " ")
	return strings.ToLower(strings.TrimSpace(q))
}
