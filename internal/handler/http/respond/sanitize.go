package respond

import (
	"regexp"
)

var (
	// apiKey query parameter as sent to top-headlines endpoints.
	apiKeyParamPattern = regexp.MustCompile(`(?i)(apiKey=)[^&\s"]+`)
	// X-Api-Key header echoed in transport errors.
	apiKeyHeaderPattern = regexp.MustCompile(`(?i)(x-api-key:\s*)\S+`)
	// Password inside a DSN.
	dbPasswordPattern = regexp.MustCompile(`://([^:/]+):([^@]+)@`)
)

// SanitizeError returns err's message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = apiKeyParamPattern.ReplaceAllString(msg, "${1}****")
	msg = apiKeyHeaderPattern.ReplaceAllString(msg, "${1}****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
