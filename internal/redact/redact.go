// Package redact scrubs credentials, tokens and host details from strings
// before they reach logs or error responses.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	Placeholder           = "[REDACTED]"
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	PathPlaceholder       = "[REDACTED_PATH]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	StackPlaceholder      = "[STACK_TRACE_REDACTED]"
)

// rule replaces every match of re with replacement, which may reference
// capture groups.
type rule struct {
	re          *regexp.Regexp
	replacement string
}

// rules run in order. Stack traces go first because they embed paths; URL
// credentials go before emails so user:pass@host is not read as an address.
var rules = []rule{
	{regexp.MustCompile(`goroutine \d+ \[[^\]]*\]:[\s\S]*`), StackPlaceholder},
	{regexp.MustCompile(`eyJ[\w-]+\.eyJ[\w-]+\.[\w-]+`), JWTPlaceholder},
	{regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9_\-.~+/=]+`), "${1}" + TokenPlaceholder},
	{regexp.MustCompile(`(?i)([?&](?:token|access_token|api_key|password)=)[^&\s"']+`), "${1}" + Placeholder},
	{regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)[^/@\s]+@`), "${1}" + CredentialPlaceholder + "@"},
	{
		regexp.MustCompile(`(?i)\b(jwt_secret|password|passwd|pwd|secret|api[_-]?key)(\s*[=:]\s*)['"]?[^'"&\s,]+['"]?`),
		"${1}${2}" + CredentialPlaceholder,
	},
	{regexp.MustCompile(`(/[\w.-]+){2,}`), PathPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},
	{regexp.MustCompile(`\b(VALUES|WHERE|SET)\s[^\n]*`), "${1} " + SQLPlaceholder},
}

// String returns input with sensitive fragments replaced.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.re.ReplaceAllString(input, r.replacement)
	}
	return input
}

// Error redacts err's message. A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
