package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	appErrors "github.com/noah-isme/biblioteca-api/pkg/errors"
)

// MaxQueryLength is the ceiling applied after trimming. Longer
// queries are rejected outright rather than truncated.
const MaxQueryLength = 500

// Patterns that make a query a hard validation failure, not a silent
// edit. Matching is case-insensitive against the raw input.
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)document\.`),
	regexp.MustCompile(`(?i)window\.`),
}

// SanitizerService validates and cleans raw user queries. It holds no
// mutable state; SanitizeQuery is a pure function of its input.
type SanitizerService struct {
	policy *bluemonday.Policy
}

// NewSanitizerService builds a sanitizer with a strict strip-all-tags
// policy.
func NewSanitizerService() *SanitizerService {
	return &SanitizerService{policy: bluemonday.StrictPolicy()}
}

// SanitizeQuery returns the cleaned query or a validation error.
// Order matters: length and denylist checks run against the raw
// (trimmed) input so nothing dangerous is silently stripped into a
// harmless-looking query.
func (s *SanitizerService) SanitizeQuery(raw string) (string, error) {
	query := strings.TrimSpace(raw)

	if query == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty search query")
	}

	if utf8.RuneCountInString(query) > MaxQueryLength {
		return "", appErrors.Clone(appErrors.ErrValidation, "query exceeds maximum length")
	}

	for _, pattern := range denyPatterns {
		if pattern.MatchString(query) {
			return "", appErrors.Clone(appErrors.ErrValidation, "query contains disallowed content")
		}
	}

	clean := strings.TrimSpace(s.policy.Sanitize(query))
	if clean == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "query is empty after sanitization")
	}

	return clean, nil
}
