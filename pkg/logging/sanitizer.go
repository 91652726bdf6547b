// Package logging redacts credentials and bounds the size of values before they are logged.
package logging

import (
	"regexp"
	"strings"
)

const (
	// MaxQueryLogLength is the maximum length of a query to log
	MaxQueryLogLength = 160
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

type redaction struct {
	pattern     *regexp.Regexp
	replacement string
}

var (
	// password=xxx, pwd=xxx, pass=xxx in key/value connection strings
	passwordRule = redaction{regexp.MustCompile(`(?i)\b(password|pwd|pass)=[^;&\s]+`), "${1}=" + RedactedText}

	// userinfo of URL style DSNs, including redis://:secret@host
	userInfoRule = redaction{regexp.MustCompile(`://[^/@\s]*@`), "://" + RedactedText + "@"}

	// bearer tokens, signed or not
	bearerRule = redaction{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`), "Bearer " + RedactedText}

	whitespace = regexp.MustCompile(`\s+`)
)

func redact(s string, rules ...redaction) string {
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return s
}

// SanitizeConnectionString removes credentials from Postgres and Redis connection strings.
func SanitizeConnectionString(connStr string) string {
	return redact(connStr, passwordRule, userInfoRule)
}

// SanitizeError removes credentials and tokens from an error message.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return redact(err.Error(), passwordRule, userInfoRule, bearerRule)
}

// SanitizeQuery collapses whitespace in a generated SQL query and truncates it.
func SanitizeQuery(query string) string {
	sanitized := strings.TrimSpace(whitespace.ReplaceAllString(query, " "))
	if len(sanitized) > MaxQueryLogLength {
		sanitized = sanitized[:MaxQueryLogLength] + "..."
	}
	return redact(sanitized, passwordRule)
}
