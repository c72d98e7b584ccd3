package core

import "strings"

const RedactedValue = "[REDACTED]"

// sensitiveKeyFragments name log fields that may carry the password, the
// stored cipher material, the handshake values or the session cookie.
var sensitiveKeyFragments = []string{
	"password",
	"encryption_key",
	"secret",
	"token",
	"cookie",
	"challenge",
	"response",
	"authorization",
}

// RedactFields returns a copy of fields with sensitive values masked. Nested
// maps and slices are walked.
func RedactFields(fields map[string]any) map[string]any {
	target := make(map[string]any, len(fields))
	for key, value := range fields {
		if isSensitiveKey(key) {
			target[key] = RedactedValue
			continue
		}
		target[key] = redactValue(value)
	}
	return target
}

func redactValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return RedactFields(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactValue(typed[i])
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}
