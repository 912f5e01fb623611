package sql

import "strings"

// Fragment is an immutable tree of literal SQL text interleaved with
// parameter values and nested fragments (§3.1, C1). Construction never
// mutates an existing Fragment: every combinator returns a new value.
//
// A Fragment's internal representation is a flat slice of parts
// alternating with a slice of values, the representation spec.md §9
// recommends ("a flat struct{parts, values} with a single rendering pass")
// to avoid pre-concatenating strings or parameterizing by interpolation.
type Fragment struct {
	parts  []string
	values []any // each entry is either a parameterizable value, or a Fragment to splice
}

// Raw returns a Fragment that renders s verbatim, with no parameter slot.
// Used for identifiers, operators, and other text that must never be
// parameterized (§3.1 "A raw constructor marks a string as verbatim").
func Raw(s string) Fragment {
	return Fragment{parts: []string{s}}
}

// Empty returns the zero Fragment, which renders to the empty string with
// no params. Logical builders that elide (an empty AND group, an absent
// WHERE) return Empty rather than a special sentinel.
func Empty() Fragment { return Fragment{} }

// IsEmpty reports whether the fragment renders to nothing.
func (f Fragment) IsEmpty() bool {
	for _, p := range f.parts {
		if p != "" {
			return false
		}
	}
	return len(f.values) == 0
}

// Param returns a Fragment holding a single value to be parameterized.
func Param(v any) Fragment {
	return Fragment{parts: []string{"", ""}, values: []any{v}}
}

// Join concatenates fragments with sep between them (not around them),
// e.g. Join(", ", a, b, c) -> "a, b, c". Empty fragments are skipped so a
// caller can build a list with optional members without hand-filtering.
func Join(sep string, frags ...Fragment) Fragment {
	var nonEmpty []Fragment
	for _, f := range frags {
		if !f.IsEmpty() {
			nonEmpty = append(nonEmpty, f)
		}
	}
	if len(nonEmpty) == 0 {
		return Empty()
	}
	out := nonEmpty[0]
	for _, f := range nonEmpty[1:] {
		out = Concat(out, Raw(sep), f)
	}
	return out
}

// Concat splices fragments back-to-back with no separator.
func Concat(frags ...Fragment) Fragment {
	var parts []string
	var values []any
	for i, f := range frags {
		if i == 0 {
			parts = append(parts, f.parts...)
		} else if len(parts) > 0 && len(f.parts) > 0 {
			parts[len(parts)-1] += f.parts[0]
			parts = append(parts, f.parts[1:]...)
		} else {
			parts = append(parts, f.parts...)
		}
		values = append(values, f.values...)
	}
	if len(parts) == 0 {
		parts = []string{""}
	}
	return Fragment{parts: parts, values: values}
}

// Wrap parenthesizes a fragment: "(" + f + ")".
func Wrap(f Fragment) Fragment {
	if f.IsEmpty() {
		return f
	}
	return Concat(Raw("("), f, Raw(")"))
}

// Render walks the fragment tree once, producing SQL text with
// dialect-appropriate placeholders and the flat parameter list in
// left-to-right depth-first order (§3.1 invariants). style selects the
// placeholder form.
func (f Fragment) Render(style PlaceholderStyle) (string, []any) {
	var sb strings.Builder
	var args []any
	render(f, style, &sb, &args)
	return sb.String(), args
}

func render(f Fragment, style PlaceholderStyle, sb *strings.Builder, args *[]any) {
	for i, part := range f.parts {
		sb.WriteString(part)
		if i < len(f.values) {
			switch v := f.values[i].(type) {
			case Fragment:
				render(v, style, sb, args)
			default:
				*args = append(*args, v)
				sb.WriteString(style.Placeholder(len(*args)))
			}
		}
	}
}

// PlaceholderStyle renders the Nth (1-indexed) parameter marker for a
// dialect (§6 "Placeholder encodings").
type PlaceholderStyle interface {
	Placeholder(n int) string
}

type (
	// DollarStyle renders PostgreSQL-style $1, $2, ...
	DollarStyle struct{}
	// QuestionStyle renders MySQL-style ? for every parameter.
	QuestionStyle struct{}
	// SQLitePositionalStyle renders SQLite-style ?1, ?2, ...
	SQLitePositionalStyle struct{}
)

func (DollarStyle) Placeholder(n int) string           { return "$" + itoa(n) }
func (QuestionStyle) Placeholder(int) string           { return "?" }
func (SQLitePositionalStyle) Placeholder(n int) string { return "?" + itoa(n) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
