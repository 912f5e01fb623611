package sql

import "strings"

// quotedIdentifiers implements Identifiers for any dialect whose quote
// character is a single byte repeated to escape itself (both "..." and
// `...` work this way), parameterized by that byte.
type quotedIdentifiers struct{ quote byte }

func (q quotedIdentifiers) Escape(name string) string {
	esc := string(q.quote) + string(q.quote)
	var sb strings.Builder
	sb.WriteByte(q.quote)
	sb.WriteString(strings.ReplaceAll(name, string(q.quote), esc))
	sb.WriteByte(q.quote)
	return sb.String()
}

func (q quotedIdentifiers) Column(alias, field string) Fragment {
	if alias == "" {
		return Raw(q.Escape(field))
	}
	return Raw(q.Escape(alias) + "." + q.Escape(field))
}

func (q quotedIdentifiers) Table(name, alias string) Fragment {
	if alias == "" {
		return Raw(q.Escape(name))
	}
	return Raw(q.Escape(name) + " " + q.Escape(alias))
}
