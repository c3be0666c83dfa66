// Package output renders trip summaries and archives run results.
// The trip writer produces the self-describing XML-style tag stream
// consumed by downstream tooling; the archive persists per-run
// aggregates in a local bolt store.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Attr is one key="value" attribute of a tag.
type Attr struct {
	Key   string
	Value string
}

// FloatAttr formats a float attribute with stable precision.
func FloatAttr(key string, v float64) Attr {
	return Attr{Key: key, Value: fmt.Sprintf("%.2f", v)}
}

// TripWriter emits nested tags with attributes. Tags opened must be
// closed in reverse order; Close drains the stack.
type TripWriter struct {
	w     io.Writer
	stack []string
	err   error
}

// NewTripWriter creates a writer emitting to w.
func NewTripWriter(w io.Writer) *TripWriter {
	return &TripWriter{w: w}
}

func (t *TripWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *TripWriter) indent() string {
	return strings.Repeat("    ", len(t.stack))
}

// OpenTag opens a tag with the given attributes.
func (t *TripWriter) OpenTag(name string, attrs ...Attr) {
	t.printf("%s<%s", t.indent(), name)
	for _, a := range attrs {
		t.printf(" %s=\"%s\"", a.Key, a.Value)
	}
	t.printf(">\n")
	t.stack = append(t.stack, name)
}

// EmptyTag writes a self-closing tag.
func (t *TripWriter) EmptyTag(name string, attrs ...Attr) {
	t.printf("%s<%s", t.indent(), name)
	for _, a := range attrs {
		t.printf(" %s=\"%s\"", a.Key, a.Value)
	}
	t.printf("/>\n")
}

// CloseTag closes the innermost open tag.
func (t *TripWriter) CloseTag() {
	if len(t.stack) == 0 {
		return
	}
	name := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	t.printf("%s</%s>\n", t.indent(), name)
}

// Close closes all remaining open tags and returns the first write
// error encountered.
func (t *TripWriter) Close() error {
	for len(t.stack) > 0 {
		t.CloseTag()
	}
	return t.err
}

// SortedAttrs turns a string map into attributes sorted by key for
// deterministic output.
func SortedAttrs(m map[string]string) []Attr {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, Attr{Key: k, Value: m[k]})
	}
	return attrs
}
