package amadeus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// maxDetailChars bounds how much of a non-JSON error body ends up in errors
const maxDetailChars = 500

// AuthError is returned when the token exchange fails. It is fatal for a scan.
type AuthError struct {
	StatusCode int
	URL        string
	Details    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("amadeus OAuth failed (%d) at %s: %s", e.StatusCode, e.URL, e.Details)
}

// HTTPError is returned for a non-success search response
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d error for url %s: %s", e.StatusCode, e.URL, e.Body)
}

// describeBody renders a response body as compact JSON when it parses,
// otherwise as its first maxDetailChars characters.
func describeBody(body []byte) string {
	var compact bytes.Buffer
	if json.Valid(body) {
		if err := json.Compact(&compact, body); err == nil {
			return compact.String()
		}
	}
	return truncate(string(body), maxDetailChars)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
