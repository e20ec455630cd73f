// Package directive defines the parsed document model: directives, spans,
// fragments, and documents. Everything here is immutable once constructed;
// option normalization always produces a new Directive.
package directive

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/embedm/internal/status"
)

// Option is a single key/value pair carried by a directive. Options keep
// their original document order; duplicate keys resolve to last-wins.
type Option struct {
	Key   string
	Value string
}

// Directive is one parsed instruction from a fenced embedm block.
type Directive struct {
	// Type is the capability identifier ("file", "toc", "recall", ...).
	Type string

	// Source is the absolute path of the referenced file, or empty when the
	// directive operates on the enclosing document (e.g. toc). Relative
	// paths are resolved against BaseDir at parse time, never later.
	Source string

	// BaseDir is the absolute directory of the document that declared the
	// directive, used to resolve Source.
	BaseDir string

	// Options holds the remaining keys of the block, in document order.
	Options []Option
}

// Option returns the raw string value for key and whether it was present.
// With duplicate keys the last occurrence wins.
func (d *Directive) Option(key string) (string, bool) {
	value, found := "", false
	for _, o := range d.Options {
		if o.Key == key {
			value, found = o.Value, true
		}
	}
	return value, found
}

// StringOption returns the option value or def when absent.
func (d *Directive) StringOption(key, def string) string {
	if v, ok := d.Option(key); ok {
		return v
	}
	return def
}

// IntOption returns the option parsed as an integer, or def when absent.
// A present but unparseable value is an input error, reported as a Status.
func (d *Directive) IntOption(key string, def int) (int, *status.Status) {
	v, ok := d.Option(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		s := status.Errorf("option %q: cannot parse %q as an integer", key, v)
		return def, &s
	}
	return n, nil
}

// BoolOption returns the option parsed as a boolean, or def when absent.
// Only the literals true/false (case-insensitive) are accepted; the stored
// value stays a string so round-tripping is lossless.
func (d *Directive) BoolOption(key string, def bool) (bool, *status.Status) {
	v, ok := d.Option(key)
	if !ok {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		s := status.Errorf("option %q: cannot parse %q as a boolean", key, v)
		return def, &s
	}
}

// OptionsWithPrefix returns the options whose keys start with prefix + ".",
// with the prefix stripped, in document order. Nested YAML mappings in a
// directive block flatten to dotted keys, so this reads them back out.
func (d *Directive) OptionsWithPrefix(prefix string) []Option {
	var out []Option
	p := prefix + "."
	for _, o := range d.Options {
		if strings.HasPrefix(o.Key, p) {
			out = append(out, Option{Key: strings.TrimPrefix(o.Key, p), Value: o.Value})
		}
	}
	return out
}

// Fragment is one unit of a Document: a literal text run, an unresolved
// span into the original source, or a directive.
type Fragment interface {
	isFragment()
}

// Text is a literal string fragment. The compiler produces these when it
// resolves spans and directive results.
type Text string

func (Text) isFragment() {}

// Span references a byte range of the original source text. Spans are
// resolved to strings exactly once, at the start of compilation.
type Span struct {
	Offset int
	Length int
}

func (Span) isFragment() {}

// Directives appear in fragment lists by pointer so that a planned child
// node can be matched back to the exact fragment that produced it.
func (*Directive) isFragment() {}

// Document is an ordered sequence of fragments parsed from one source file.
type Document struct {
	FileName  string
	Fragments []Fragment
}

// Directives returns the directive fragments in document order.
func (d *Document) Directives() []*Directive {
	var out []*Directive
	for _, f := range d.Fragments {
		if dir, ok := f.(*Directive); ok {
			out = append(out, dir)
		}
	}
	return out
}
