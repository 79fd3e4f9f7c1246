package persistence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonAlnumRuns   = regexp.MustCompile(`[^a-z0-9]+`)
	slugStripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// DeriveSlug converts a display name into its canonical URL slug: lowercase,
// diacritics stripped, non-alphanumeric runs collapsed to a single hyphen,
// leading and trailing hyphens trimmed. Deterministic for a given input.
func DeriveSlug(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", errors.New("name is required to derive a slug")
	}

	stripped, _, err := transform.String(slugStripMarks, trimmed)
	if err != nil {
		return "", fmt.Errorf("strip diacritics: %w", err)
	}

	slug := strings.ToLower(stripped)
	slug = nonAlnumRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "", fmt.Errorf("name %q yields an empty slug", name)
	}

	return slug, nil
}

// NormalizeSlug trims whitespace, lowercases the value, and ensures it
// matches the canonical slug pattern required for public identifiers.
func NormalizeSlug(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errors.New("slug is required")
	}

	normalized := strings.ToLower(trimmed)
	if !slugPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid slug %q: must match ^[a-z0-9]+(?:-[a-z0-9]+)*$", input)
	}

	return normalized, nil
}
