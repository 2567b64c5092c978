// Package fields maps recognized lines onto key/value data with simple
// line-matching heuristics.
//
// Matching is literal: a field matches the first line that contains its name
// anywhere, case-insensitively. A name that also occurs inside an earlier,
// unrelated line therefore picks up that line. Callers rely on this exact
// behavior, so it is kept as is.
package fields

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry is one extracted field. A nil Value means the field was not found.
type Entry struct {
	Name  string
	Value *string
}

// Fields is an ordered set of entries keyed by name.
type Fields struct {
	entries []Entry
	index   map[string]int
}

func newFields(capacity int) Fields {
	return Fields{entries: make([]Entry, 0, capacity), index: make(map[string]int, capacity)}
}

// set adds name at the end or, when it already exists, replaces its value in place.
func (f *Fields) set(name string, value *string) {
	if i, ok := f.index[name]; ok {
		f.entries[i].Value = value
		return
	}
	f.index[name] = len(f.entries)
	f.entries = append(f.entries, Entry{Name: name, Value: value})
}

// Entries returns the entries in insertion order.
func (f Fields) Entries() []Entry {
	return f.entries
}

func (f Fields) Len() int { return len(f.entries) }

// Get returns the value for name and whether name is present at all.
func (f Fields) Get(name string) (*string, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.entries[i].Value, true
}

// Map returns a plain map; absent values map to nil.
func (f Fields) Map() map[string]any {
	m := make(map[string]any, len(f.entries))
	for _, e := range f.entries {
		if e.Value == nil {
			m[e.Name] = nil
		} else {
			m[e.Name] = *e.Value
		}
	}
	return m
}

// MarshalJSON writes an object with keys in insertion order and null for
// absent values.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range f.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if e.Value == nil {
			buf.WriteString("null")
			continue
		}
		v, err := json.Marshal(*e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Extract looks up every requested name, in order. Each name gets exactly
// one entry under its original casing; repeated names keep their first
// position.
func Extract(lines []string, names []string) Fields {
	lower := cases.Lower(language.Und)
	folded := make([]string, len(lines))
	for i, ln := range lines {
		folded[i] = lower.String(ln)
	}

	out := newFields(len(names))
	for _, name := range names {
		if _, seen := out.index[name]; seen {
			continue
		}
		out.set(name, match(lines, folded, lower.String(name)))
	}
	return out
}

// match returns the value taken from the first line containing key.
func match(lines, folded []string, key string) *string {
	for i, ln := range folded {
		if !strings.Contains(ln, key) {
			continue
		}
		v := valueOf(lines[i])
		return &v
	}
	return nil
}

// valueOf returns the text after the first colon, or the whole line when
// there is none, trimmed.
func valueOf(line string) string {
	if _, after, ok := strings.Cut(line, ":"); ok {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(line)
}

// ExtractUnkeyed splits free text into pairs without a field list. Lines
// with a colon become lowercased key -> value; other non-blank lines become
// field_1, field_2, ... counted only over those lines. Blank lines are
// skipped. A repeated key keeps its first position and takes the last value.
func ExtractUnkeyed(lines []string) Fields {
	lower := cases.Lower(language.Und)
	out := newFields(len(lines))
	n := 0
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		if before, after, ok := strings.Cut(ln, ":"); ok {
			v := strings.TrimSpace(after)
			out.set(lower.String(strings.TrimSpace(before)), &v)
			continue
		}
		n++
		v := strings.TrimSpace(ln)
		out.set("field_"+strconv.Itoa(n), &v)
	}
	return out
}

// ParseFieldList splits a comma-separated list of names, trimming each and
// dropping empty ones.
func ParseFieldList(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
