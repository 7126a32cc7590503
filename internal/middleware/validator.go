package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MaxCodeBytes bounds the source text accepted for one analysis.
const MaxCodeBytes = 256 << 10

var (
	tenantPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	languagePattern = regexp.MustCompile(`^[a-zA-Z0-9_+#.-]{1,32}$`)
)

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	if !tenantPattern.MatchString(tenant) {
		return fmt.Errorf("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateAnalysisID accepts the UUIDs handed out for analyses.
func ValidateAnalysisID(id string) error {
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid analysis ID format")
	}
	return nil
}

// ValidateCode checks the submitted source text.
func ValidateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("code cannot be empty")
	}
	if len(code) > MaxCodeBytes {
		return fmt.Errorf("code exceeds %d bytes", MaxCodeBytes)
	}
	return nil
}

// ValidateLanguage checks the optional fence language tag. It ends up inside
// the prompt's code fence, so anything beyond a short identifier is refused.
func ValidateLanguage(lang string) error {
	if lang == "" {
		return nil
	}
	if !languagePattern.MatchString(lang) {
		return fmt.Errorf("invalid language tag %q", lang)
	}
	return nil
}

// SanitizeString removes null bytes and control characters
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit clamps a page size
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// ValidatePage clamps a 1-based page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
