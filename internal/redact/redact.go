// Package redact provides utilities for redacting sensitive information from
// strings before they are logged or returned in error responses. This package
// helps prevent the accidental leakage of credentials, connection strings, and
// other sensitive data that might be included in error messages.
package redact

import "regexp"

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

// Precompiled regex patterns
var (
	// Database connection strings
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|db|database|connection)://[^@\s]+@`)

	// Credentials and tokens
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)
	apiKeyRegex   = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
	// JWT token pattern - matches the standard three-part base64url-encoded JWT token format
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// Email addresses
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)

	// SQL queries and fragments
	sqlRegex = regexp.MustCompile(
		`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP|GRANT)[\s\w,*()]+(?:FROM|INTO|SET|TABLE|DATABASE|SCHEMA|VIEW)(?:[\s\w,*()='"]+)?`,
	)

	// Patterns applied in order, with their placeholders
	patterns = []*regexp.Regexp{
		dbConnRegex, passwordRegex, apiKeyRegex, jwtTokenRegex, emailRegex, sqlRegex,
	}

	patternPlaceholders = map[*regexp.Regexp]string{
		dbConnRegex:   RedactedCredentialPlaceholder,
		passwordRegex: RedactedCredentialPlaceholder,
		apiKeyRegex:   RedactedKeyPlaceholder,
		jwtTokenRegex: "[REDACTED_JWT]",
		emailRegex:    "[REDACTED_EMAIL]",
		sqlRegex:      "[REDACTED_SQL]",
	}
)

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, pattern := range patterns {
		placeholder := RedactionPlaceholder
		if ph, ok := patternPlaceholders[pattern]; ok {
			placeholder = ph
		}
		result = pattern.ReplaceAllString(result, placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
