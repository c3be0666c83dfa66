package simerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{"plain message", New(KindConfig, SeverityHigh, "bad config"), "bad config"},
		{"wrapped cause", Wrap(fmt.Errorf("no such file"), KindIO, SeverityHigh, "cannot read"), "cannot read: no such file"},
		{"formatted", InvalidArgumentf("parameter '%s' unknown", "foo"), "parameter 'foo' unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, KindIO, SeverityHigh, "ignored"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := InvalidArgumentf("bad value")
	if !errors.Is(err, &Error{Kind: KindInvalidArgument}) {
		t.Error("expected match on KindInvalidArgument")
	}
	if errors.Is(err, &Error{Kind: KindIO}) {
		t.Error("unexpected match on KindIO")
	}
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{"matching kind", ModelUnsupportedf("nope"), KindModel, true},
		{"other kind", ModelUnsupportedf("nope"), KindIO, false},
		{"foreign error", fmt.Errorf("plain"), KindIO, false},
		{"nil", nil, KindIO, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKind(tt.err, tt.kind); got != tt.expected {
				t.Errorf("IsKind() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := IOError(cause, "outer")
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Severity
	}{
		{"nil is low", nil, SeverityLow},
		{"structured", ConfigError("x"), SeverityCritical},
		{"foreign defaults to medium", fmt.Errorf("plain"), SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.expected {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDetailedStringIncludesContext(t *testing.T) {
	err := Internalf("state mismatch").WithContext("vehicle", "v1")
	s := err.DetailedString()
	for _, want := range []string{"CRITICAL", "INTERNAL", "state mismatch", "vehicle: v1"} {
		if !strings.Contains(s, want) {
			t.Errorf("DetailedString() = %q, missing %q", s, want)
		}
	}
}
