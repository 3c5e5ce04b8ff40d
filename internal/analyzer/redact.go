package analyzer

import "regexp"

// secretAssignment matches quoted values assigned to credential-looking
// names so they can be masked before a snippet is stored
var secretAssignment = regexp.MustCompile(
	`(?i)((?:password|passwd|pwd|secret|api[_-]?key|token|credential|auth)\w*\s*[:=]\s*)(["'\x60])[^"'\x60]*(["'\x60])`)

// bearerToken matches inline bearer/basic authorization values
var bearerToken = regexp.MustCompile(`(?i)(bearer|basic)\s+[A-Za-z0-9+/=._-]{8,}`)

// RedactSecrets masks credential-looking literal values in a snippet.
// Redaction happens before storage so secrets never leave the process in
// reports or the finding store.
func RedactSecrets(snippet string) string {
	masked := secretAssignment.ReplaceAllString(snippet, `$1$2****$3`)
	masked = bearerToken.ReplaceAllString(masked, `$1 ****`)
	return masked
}
