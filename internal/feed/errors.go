package feed

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a FeedError per the taxonomy in SPEC_FULL §7.
type ErrorKind int

const (
	// KindConfig covers invalid/missing configuration and duplicate feed
	// registration.
	KindConfig ErrorKind = iota
	// KindArgument covers invalid per_page/page, nil user_id, empty user list.
	KindArgument
	// KindTransport covers connection acquisition and network I/O failures.
	KindTransport
	// KindTimeout covers deadline-exceeded sub-operations.
	KindTimeout
	// KindProvider covers unexpected backend replies.
	KindProvider
	// KindNotFound covers operations that semantically require existing
	// per-user state.
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "ConfigError"
	case KindArgument:
		return "ArgumentError"
	case KindTransport:
		return "TransportError"
	case KindTimeout:
		return "Timeout"
	case KindProvider:
		return "ProviderError"
	case KindNotFound:
		return "NotFound"
	default:
		return "UnknownError"
	}
}

// FeedError is the single error type the package raises or captures into a
// Response. Kind is comparable with errors.Is against the Err* sentinels
// below; Cause wraps whatever underlying error (if any) triggered it.
type FeedError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *FeedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FeedError) Unwrap() error {
	return e.Cause
}

// Is reports kind-equality so errors.Is(err, ErrConfig) works regardless of
// Message/Cause.
func (e *FeedError) Is(target error) bool {
	t, ok := target.(*FeedError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel kind markers for use with errors.Is. These carry no message and
// are never returned directly; construct a real *FeedError via the
// ConfigErrorf/ArgumentErrorf/TransportError/TimeoutError/ProviderErrorf/
// NotFoundErrorf helpers below instead.
var (
	ErrConfig    = &FeedError{Kind: KindConfig}
	ErrArgument  = &FeedError{Kind: KindArgument}
	ErrTransport = &FeedError{Kind: KindTransport}
	ErrTimeout   = &FeedError{Kind: KindTimeout}
	ErrProvider  = &FeedError{Kind: KindProvider}
	ErrNotFound  = &FeedError{Kind: KindNotFound}
)

func newErr(kind ErrorKind, msg string, cause error) *FeedError {
	return &FeedError{Kind: kind, Message: msg, Cause: cause}
}

func ConfigErrorf(format string, args ...any) *FeedError {
	return newErr(KindConfig, fmt.Sprintf(format, args...), nil)
}

func ArgumentErrorf(format string, args ...any) *FeedError {
	return newErr(KindArgument, fmt.Sprintf(format, args...), nil)
}

func TransportError(msg string, cause error) *FeedError {
	return newErr(KindTransport, msg, cause)
}

func TimeoutError(msg string) *FeedError {
	return newErr(KindTimeout, msg, nil)
}

func ProviderErrorf(cause error, format string, args ...any) *FeedError {
	return newErr(KindProvider, fmt.Sprintf(format, args...), cause)
}

func NotFoundErrorf(format string, args ...any) *FeedError {
	return newErr(KindNotFound, fmt.Sprintf(format, args...), nil)
}

// IsTransient reports whether a FeedError is worth retrying per §4.9: only
// transport-class failures on idempotent operations are retried.
func IsTransient(err error) bool {
	var fe *FeedError
	if errors.As(err, &fe) {
		return fe.Kind == KindTransport
	}
	return false
}
