// Package simerr provides the structured error type used across the
// simulation. Errors carry a kind and a severity so callers can tell
// a bad parameter value apart from a broken scenario file or an
// inconsistent internal state.
package simerr

import (
	"fmt"
	"strings"
)

// Kind categorizes an error.
type Kind int

const (
	// KindInvalidArgument - unknown parameter key, or a value that does
	// not parse as the expected type.
	KindInvalidArgument Kind = iota
	// KindConfig - missing or invalid configuration.
	KindConfig
	// KindScenario - scenario file cannot be loaded or is inconsistent.
	KindScenario
	// KindTopology - network topology queries that cannot be answered.
	KindTopology
	// KindModel - an operation the active vehicle model does not support.
	KindModel
	// KindIO - file or store I/O failures.
	KindIO
	// KindInternal - unexpected internal state.
	KindInternal
)

// Severity represents how critical an error is.
type Severity int

const (
	// SeverityLow - can continue with degraded behavior.
	SeverityLow Severity = iota
	// SeverityMedium - should be addressed but not fatal.
	SeverityMedium
	// SeverityHigh - significant issue, may impact results.
	SeverityHigh
	// SeverityCritical - stops the run.
	SeverityCritical
)

// Error is a structured error with kind, severity and context.
type Error struct {
	Kind     Kind
	Severity Severity
	Message  string
	Cause    error
	Context  map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Is matches errors by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// DetailedString renders the error with severity, kind and context.
func (e *Error) DetailedString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] [%s] %s", severityString(e.Severity), kindString(e.Kind), e.Message))
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(" (caused by: %v)", e.Cause))
	}
	for k, v := range e.Context {
		sb.WriteString(fmt.Sprintf("\n  %s: %v", k, v))
	}
	return sb.String()
}

func kindString(k Kind) string {
	switch k {
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindConfig:
		return "CONFIG"
	case KindScenario:
		return "SCENARIO"
	case KindTopology:
		return "TOPOLOGY"
	case KindModel:
		return "MODEL"
	case KindIO:
		return "IO"
	case KindInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

func severityString(s Severity) string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// New creates a new error with the given kind, severity and message.
func New(kind Kind, severity Severity, message string) *Error {
	return &Error{Kind: kind, Severity: severity, Message: message}
}

// Wrap wraps an existing error. Returns nil if err is nil.
func Wrap(err error, kind Kind, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Severity: severity, Message: message, Cause: err}
}

// InvalidArgument creates an invalid-argument error.
func InvalidArgument(message string) *Error {
	return New(KindInvalidArgument, SeverityHigh, message)
}

// InvalidArgumentf creates an invalid-argument error with formatting.
func InvalidArgumentf(format string, args ...any) *Error {
	return New(KindInvalidArgument, SeverityHigh, fmt.Sprintf(format, args...))
}

// ConfigError creates a configuration error.
func ConfigError(message string) *Error {
	return New(KindConfig, SeverityCritical, message)
}

// ConfigErrorf creates a configuration error with formatting.
func ConfigErrorf(format string, args ...any) *Error {
	return New(KindConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

// ScenarioError wraps a scenario loading error.
func ScenarioError(err error, message string) *Error {
	return Wrap(err, KindScenario, SeverityCritical, message)
}

// ScenarioErrorf wraps a scenario loading error with formatting.
func ScenarioErrorf(err error, format string, args ...any) *Error {
	return Wrap(err, KindScenario, SeverityCritical, fmt.Sprintf(format, args...))
}

// TopologyErrorf creates a topology error with formatting.
func TopologyErrorf(format string, args ...any) *Error {
	return New(KindTopology, SeverityHigh, fmt.Sprintf(format, args...))
}

// ModelUnsupportedf creates a model-capability error with formatting.
// These are expected variability across pluggable models and are
// usually swallowed at the call site.
func ModelUnsupportedf(format string, args ...any) *Error {
	return New(KindModel, SeverityLow, fmt.Sprintf(format, args...))
}

// IOError wraps an I/O error.
func IOError(err error, message string) *Error {
	return Wrap(err, KindIO, SeverityHigh, message)
}

// Internalf creates an internal error with formatting.
func Internalf(format string, args ...any) *Error {
	return New(KindInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// GetSeverity returns the severity of an error, defaulting to medium
// for foreign error types.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityLow
	}
	if e, ok := err.(*Error); ok {
		return e.Severity
	}
	return SeverityMedium
}
