package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lovelite/tilecat/internal/tileprop"
)

const (
	// KindField names the property that selects a tile's schema.
	KindField = "kind"
	// WalkableField marks terrain tiles, which carry no kind property.
	WalkableField = "walkable"
	// Terrain is the registry key of the terrain schema.
	Terrain = "terrain"
)

var (
	ErrKindNotFound  = errors.New("kind not found")
	ErrUnknownField  = errors.New("unknown field")
	ErrTypeMismatch  = errors.New("type mismatch")
	ErrInvalidSchema = errors.New("invalid schema")
)

// SchemaError reports a kind or field that the registry cannot accept.
type SchemaError struct {
	Kind   string
	Field  string
	Reason error
	Want   tileprop.Type // set for ErrTypeMismatch
	Got    tileprop.Type
	Detail string
}

func (e *SchemaError) Error() string {
	switch {
	case errors.Is(e.Reason, ErrKindNotFound):
		return fmt.Sprintf("%v: %q", e.Reason, e.Kind)
	case errors.Is(e.Reason, ErrTypeMismatch):
		return fmt.Sprintf("%s.%s: %v: want %s, got %s", e.Kind, e.Field, e.Reason, e.Want, e.Got)
	case e.Detail != "":
		return fmt.Sprintf("%s.%s: %v: %s", e.Kind, e.Field, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s.%s: %v", e.Kind, e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.Reason }

// Field declares one recognized property of a kind.
type Field struct {
	Name     string
	Type     tileprop.Type
	Required bool
	Default  *tileprop.Value // nil: no default
}

// KindSchema is the closed field set of one kind. It is never mutated after
// construction.
type KindSchema struct {
	Kind       string
	Terrain    bool
	Extensible bool

	fields map[string]Field
	names  []string // sorted
}

// Discriminator returns the property whose presence selects this schema.
func (s *KindSchema) Discriminator() string {
	if s.Terrain {
		return WalkableField
	}
	return KindField
}

// Field returns the named field declaration.
func (s *KindSchema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns all declared fields sorted by name.
func (s *KindSchema) Fields() []Field {
	out := make([]Field, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, s.fields[n])
	}
	return out
}

// Coerce checks a decoded value against the named field, widening int to
// float where the field asks for a float.
func (s *KindSchema) Coerce(name string, v tileprop.Value) (tileprop.Value, error) {
	f, ok := s.fields[name]
	if !ok {
		return tileprop.Value{}, &SchemaError{Kind: s.Kind, Field: name, Reason: ErrUnknownField}
	}
	w, ok := v.Widen(f.Type)
	if !ok {
		return tileprop.Value{}, &SchemaError{Kind: s.Kind, Field: name, Reason: ErrTypeMismatch, Want: f.Type, Got: v.Type()}
	}
	return w, nil
}

func newKindSchema(kind string, terrain, extensible bool, fields []Field) (*KindSchema, error) {
	invalid := func(field, detail string) error {
		return &SchemaError{Kind: kind, Field: field, Reason: ErrInvalidSchema, Detail: detail}
	}
	if kind == "" {
		return nil, invalid("", "empty kind")
	}
	s := &KindSchema{
		Kind:       kind,
		Terrain:    terrain,
		Extensible: extensible,
		fields:     make(map[string]Field, len(fields)+1),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, invalid("", "field without a name")
		}
		if _, dup := s.fields[f.Name]; dup {
			return nil, invalid(f.Name, "declared twice")
		}
		if f.Type > tileprop.TypeFloat {
			return nil, invalid(f.Name, "unsupported type "+f.Type.String())
		}
		if f.Default != nil && f.Default.Type() != f.Type {
			return nil, invalid(f.Name, "default is "+f.Default.Type().String())
		}
		s.fields[f.Name] = f
	}

	disc := s.Discriminator()
	want := tileprop.TypeString
	if terrain {
		want = tileprop.TypeBool
	}
	if f, ok := s.fields[disc]; ok {
		if f.Type != want || !f.Required || f.Default != nil {
			return nil, invalid(disc, "must be a required "+want.String()+" without default")
		}
	} else {
		s.fields[disc] = Field{Name: disc, Type: want, Required: true}
	}
	if !terrain {
		if _, ok := s.fields[WalkableField]; ok {
			// a kinded tile that also declares walkable would be ambiguous
			return nil, invalid(WalkableField, "reserved for the terrain schema")
		}
	}

	for n := range s.fields {
		s.names = append(s.names, n)
	}
	sort.Strings(s.names)
	return s, nil
}

// Registry maps kinds to schemas. It is built once and read-only afterwards.
type Registry struct {
	kinds map[string]*KindSchema
}

// SchemaFor returns the schema for kind, or a *SchemaError wrapping
// ErrKindNotFound.
func (r *Registry) SchemaFor(kind string) (*KindSchema, error) {
	s, ok := r.kinds[kind]
	if !ok {
		return nil, &SchemaError{Kind: kind, Reason: ErrKindNotFound}
	}
	return s, nil
}

// Kinds returns the registered kinds in sorted order, terrain included.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of registered schemas.
func (r *Registry) Count() int {
	return len(r.kinds)
}
