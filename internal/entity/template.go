// Package entity holds the validated, typed templates a spawn layer
// instantiates from tile IDs.
package entity

import (
	"sort"
	"strings"

	"github.com/lovelite/tilecat/internal/tileprop"
)

// Template is the final description of what a tile ID spawns. It is
// immutable: accessors return copies.
type Template struct {
	tileID int
	kind   string
	fields map[string]tileprop.Value
}

// NewTemplate copies fields into a new template.
func NewTemplate(tileID int, kind string, fields map[string]tileprop.Value) *Template {
	t := &Template{
		tileID: tileID,
		kind:   kind,
		fields: make(map[string]tileprop.Value, len(fields)),
	}
	for k, v := range fields {
		t.fields[k] = v
	}
	return t
}

func (t *Template) TileID() int { return t.tileID }

func (t *Template) Kind() string { return t.kind }

// Len returns the number of fields.
func (t *Template) Len() int { return len(t.fields) }

// Value returns the named field.
func (t *Template) Value(name string) (tileprop.Value, bool) {
	v, ok := t.fields[name]
	return v, ok
}

func (t *Template) Bool(name string) (bool, bool) {
	v, ok := t.fields[name]
	if !ok {
		return false, false
	}
	return v.Bool()
}

func (t *Template) Int(name string) (int64, bool) {
	v, ok := t.fields[name]
	if !ok {
		return 0, false
	}
	return v.Int()
}

func (t *Template) Float(name string) (float64, bool) {
	v, ok := t.fields[name]
	if !ok {
		return 0, false
	}
	return v.Float()
}

func (t *Template) String(name string) (string, bool) {
	v, ok := t.fields[name]
	if !ok {
		return "", false
	}
	return v.Text()
}

// Names returns the field names in sorted order.
func (t *Template) Names() []string {
	out := make([]string, 0, len(t.fields))
	for k := range t.fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fields returns a copy of the field map.
func (t *Template) Fields() map[string]tileprop.Value {
	out := make(map[string]tileprop.Value, len(t.fields))
	for k, v := range t.fields {
		out[k] = v
	}
	return out
}

// Equal reports whether both templates describe the same tile identically.
func (t *Template) Equal(o *Template) bool {
	if t.tileID != o.tileID || t.kind != o.kind || len(t.fields) != len(o.fields) {
		return false
	}
	for k, v := range t.fields {
		ov, ok := o.fields[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Describe renders the template as "kind{a=1 b=x}" for logs and CLI output.
func (t *Template) Describe() string {
	var b strings.Builder
	b.WriteString(t.kind)
	b.WriteByte('{')
	for i, n := range t.Names() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(t.fields[n].String())
	}
	b.WriteByte('}')
	return b.String()
}
