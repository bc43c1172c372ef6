package http

import (
	"errors"
	"net/url"
	"strconv"
)

// StatusError is returned when the upstream answers with a non-2xx status
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := e.Method + " " + e.URL + " returned HTTP " + strconv.Itoa(e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// StatusCode extracts the HTTP status from err, or 0 if err is not a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is an upstream 401.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == 401
}

// IsTransientStatus reports whether an HTTP status indicates a server-side
// condition rather than a wrong request: 408, 429, 5xx.
func IsTransientStatus(status int) bool {
	return status == 408 || status == 429 || (status >= 500 && status < 600)
}

// snippet keeps error messages short; upstream error pages can be large HTML.
func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}

func encodeForm(form map[string][]string) string {
	return url.Values(form).Encode()
}
