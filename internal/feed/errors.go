package feed

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// ErrTransport marks failures to obtain a response: connection errors,
	// timeouts and non-2xx statuses.
	ErrTransport = errors.New("feed: transport failure")
	// ErrParse marks responses that arrived but could not be decoded.
	ErrParse = errors.New("feed: malformed response")
	// ErrAPIKeyMissing indicates the client was built without credentials.
	ErrAPIKeyMissing = errors.New("feed: api key is required")
	// ErrStopIDMissing indicates an empty stop id.
	ErrStopIDMissing = errors.New("feed: stop id is required")
)

// APIError captures non-2xx responses.
type APIError struct {
	Source     string
	StatusCode int
	Message    string
	// RawBody keeps the original payload for debugging.
	RawBody []byte
}

func (e *APIError) Error() string {
	b := strings.Builder{}
	b.WriteString("feed: ")
	b.WriteString(e.Source)
	b.WriteString(" API error (status=")
	b.WriteString(strconv.Itoa(e.StatusCode))
	b.WriteString(")")
	if m := strings.TrimSpace(e.Message); m != "" {
		b.WriteString(": ")
		b.WriteString(m)
	}
	return b.String()
}

// Unwrap classifies every API error as a transport failure.
func (e *APIError) Unwrap() error { return ErrTransport }

// IsRateLimitError returns true if err is an APIError with HTTP status 429.
func IsRateLimitError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusTooManyRequests
}

// IsAuthError returns true if err is an APIError with HTTP status 401 or 403.
func IsAuthError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && (ae.StatusCode == http.StatusUnauthorized || ae.StatusCode == http.StatusForbidden)
}

// Kind names the error class for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "other"
	}
}

const maxErrorMessage = 200

func buildAPIError(source string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		cut := maxErrorMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return &APIError{Source: source, StatusCode: status, Message: msg, RawBody: body}
}
