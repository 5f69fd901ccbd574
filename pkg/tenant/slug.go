package tenant

import (
	"regexp"
	"strings"
)

const (
	minSlugLength = 3
	maxSlugLength = 63
)

// Lowercase letters, digits and single inner hyphens, DNS label compatible.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var reservedSlugs = map[string]struct{}{
	"admin": {}, "api": {}, "app": {}, "www": {}, "static": {}, "billing": {},
}

// NormalizeSlug lowercases s and trims surrounding whitespace.
func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateSlug reports whether s can be used as a tenant slug.
func ValidateSlug(s string) error {
	if len(s) < minSlugLength || len(s) > maxSlugLength {
		return ErrInvalidSlug
	}
	if !slugPattern.MatchString(s) {
		return ErrInvalidSlug
	}
	if _, reserved := reservedSlugs[s]; reserved {
		return ErrInvalidSlug
	}
	return nil
}
