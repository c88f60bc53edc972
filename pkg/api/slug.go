package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const (
	slugSuffixLength = 6
	slugMaxLength    = 48
	slugCharset      = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	nonSlugRunes    = regexp.MustCompile(`[^a-z0-9]+`)
	collapseHyphens = regexp.MustCompile(`-{2,}`)
)

// NewSlug derives a URL-safe slug from a restaurant name: lowercase,
// non-alphanumeric runs become single hyphens, truncated to a bounded
// length. An empty or fully non-ASCII name falls back to a random slug.
func NewSlug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonSlugRunes.ReplaceAllString(s, "-")
	s = collapseHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > slugMaxLength {
		s = strings.Trim(s[:slugMaxLength], "-")
	}
	if s == "" {
		return "r-" + randomSlugSuffix(slugSuffixLength)
	}
	return s
}

// DisambiguateSlug appends a short random suffix. Used when the derived
// slug collides with an existing live tenant.
func DisambiguateSlug(slug string) string {
	return slug + "-" + randomSlugSuffix(slugSuffixLength)
}

// ValidateSlug checks whether the given string is a well-formed slug:
// lowercase alphanumeric segments separated by single hyphens.
func ValidateSlug(slug string) bool {
	return slug != "" && len(slug) <= slugMaxLength+slugSuffixLength+1 && slugPattern.MatchString(slug)
}

func randomSlugSuffix(n int) string {
	max := big.NewInt(int64(len(slugCharset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = slugCharset[idx.Int64()]
	}
	return string(b)
}
