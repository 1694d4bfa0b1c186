package log

import (
	"strings"
)

// sensitiveKeywords are matched case-insensitively against log keys.
var sensitiveKeywords = []string{
	"password", "passwd", "token", "secret",
	"authorization", "credential", "dsn",
}

// SanitizeField masks the value when key looks like it carries a credential.
func SanitizeField(key, value string) string {
	if value == "" {
		return value
	}

	lowerKey := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			if keyword == "dsn" {
				return sanitizeDSN(value)
			}
			return sanitizeToken(value)
		}
	}
	return value
}

// sanitizeToken masks token/password values showing only first 4 and last 4 characters
func sanitizeToken(value string) string {
	if len(value) <= 8 {
		if len(value) <= 2 {
			return strings.Repeat("*", len(value))
		}
		return string(value[0]) + strings.Repeat("*", len(value)-2) + string(value[len(value)-1])
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// sanitizeDSN hides the password part of a MySQL DSN (user:pass@tcp(host)/db).
func sanitizeDSN(value string) string {
	at := strings.LastIndex(value, "@")
	if at < 0 {
		return value
	}
	cred := value[:at]
	colon := strings.Index(cred, ":")
	if colon < 0 {
		return value
	}
	return cred[:colon] + ":****" + value[at:]
}
