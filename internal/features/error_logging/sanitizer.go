package error_logging

import "regexp"

const (
	emailPlaceholder = "[EMAIL]"
	phonePlaceholder = "[PHONE]"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// Domestic and mobile numbers: 03-1234-5678, 090-1234-5678, 0120-123-456.
	phonePattern = regexp.MustCompile(`\b\d{2,4}-\d{2,4}-\d{3,4}\b`)
)

// SanitizePII replaces email addresses and phone numbers with placeholders.
// Placeholders never match either pattern, so sanitizing twice is a no-op.
func SanitizePII(value string) string {
	if value == "" {
		return value
	}

	value = emailPattern.ReplaceAllString(value, emailPlaceholder)
	return phonePattern.ReplaceAllString(value, phonePlaceholder)
}
