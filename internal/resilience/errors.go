package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Kind classifies a collaborator failure.
type Kind string

const (
	KindUnknown   Kind = "unknown"
	KindConfig    Kind = "config"    // missing credentials or settings
	KindTransport Kind = "transport" // network failure, non-2xx, timeout
	KindParse     Kind = "parse"     // malformed response, unparseable URL
	KindData      Kind = "data"      // row not found, write rejected
)

// Error tags an underlying error with its Kind. StatusCode is set for
// transport errors caused by an HTTP response.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConfigError marks err as a configuration failure.
func ConfigError(err error) error { return &Error{Kind: KindConfig, Err: err} }

// TransportError marks err as a transport failure with an optional status.
func TransportError(err error, statusCode int) error {
	return &Error{Kind: KindTransport, StatusCode: statusCode, Err: err}
}

// ParseError marks err as a parse failure.
func ParseError(err error) error { return &Error{Kind: KindParse, Err: err} }

// DataError marks err as a data failure.
func DataError(err error) error { return &Error{Kind: KindData, Err: err} }

// Classify returns the Kind of err. Untagged network errors are reported as
// transport failures.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if isNetworkError(err) {
		return KindTransport
	}
	return KindUnknown
}

// Describe renders err for an audit log detail, prefixed by its kind.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", Classify(err), err.Error())
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsServerStatus reports whether an HTTP status points at the remote side
// (throttling or a 5xx) rather than at the request.
func IsServerStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
