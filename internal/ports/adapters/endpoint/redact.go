package endpoint

import (
	"regexp"
	"strings"
)

// MaxDetail bounds provider text kept for logs.
const MaxDetail = 300

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
	openAIKeyRE   = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}\b`)
)

// Redact removes the given secrets and anything shaped like a credential.
func Redact(s string, secrets ...string) string {
	if s == "" {
		return s
	}
	out := s
	for _, sec := range secrets {
		if sec != "" {
			out = strings.ReplaceAll(out, sec, "[REDACTED]")
		}
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = openAIKeyRE.ReplaceAllString(out, "[REDACTED]")
	return out
}

func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Detail is Redact followed by Truncate to MaxDetail.
func Detail(s string, secrets ...string) string {
	return Truncate(strings.TrimSpace(Redact(s, secrets...)), MaxDetail)
}
