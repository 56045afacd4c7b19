package schema

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lovelite/tilecat/internal/tileprop"
)

//go:embed builtin.yaml
var builtinYAML []byte

// FieldDef is the YAML form of a Field. Default is written as a raw string
// and decoded with the field's type.
type FieldDef struct {
	Name     string        `yaml:"name"`
	Type     tileprop.Type `yaml:"type"`
	Required bool          `yaml:"required"`
	Default  *string       `yaml:"default"`
}

type KindDef struct {
	Kind       string     `yaml:"kind"`
	Extensible bool       `yaml:"extensible"`
	Fields     []FieldDef `yaml:"fields"`
}

type registryFile struct {
	Kinds   []KindDef `yaml:"kinds"`
	Terrain *KindDef  `yaml:"terrain"`
}

// Builtin returns the schemas for the kinds observed in the lovelite
// tileset: player, enemy, chest, potion, shield, weapon and terrain.
func Builtin() (*Registry, error) {
	return ParseRegistry(builtinYAML)
}

// LoadRegistry reads a schema file. An empty path selects the built-in set.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return Builtin()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	r, err := ParseRegistry(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", path, err)
	}
	return r, nil
}

// ParseRegistry builds a registry from a YAML schema document.
func ParseRegistry(raw []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse schemas: %w", err)
	}

	r := &Registry{kinds: make(map[string]*KindSchema, len(f.Kinds)+1)}
	for _, def := range f.Kinds {
		if def.Kind == Terrain {
			return nil, &SchemaError{Kind: def.Kind, Reason: ErrInvalidSchema, Detail: "reserved kind"}
		}
		if _, dup := r.kinds[def.Kind]; dup {
			return nil, &SchemaError{Kind: def.Kind, Reason: ErrInvalidSchema, Detail: "declared twice"}
		}
		s, err := buildKind(def.Kind, false, def)
		if err != nil {
			return nil, err
		}
		r.kinds[s.Kind] = s
	}
	if f.Terrain != nil {
		s, err := buildKind(Terrain, true, *f.Terrain)
		if err != nil {
			return nil, err
		}
		r.kinds[Terrain] = s
	}
	return r, nil
}

func buildKind(kind string, terrain bool, def KindDef) (*KindSchema, error) {
	fields := make([]Field, 0, len(def.Fields))
	for _, fd := range def.Fields {
		f := Field{Name: fd.Name, Type: fd.Type, Required: fd.Required}
		if fd.Default != nil {
			v, err := tileprop.Decode(fd.Name, fd.Type, *fd.Default)
			if err != nil {
				return nil, &SchemaError{Kind: kind, Field: fd.Name, Reason: ErrInvalidSchema, Detail: err.Error()}
			}
			f.Default = &v
		}
		fields = append(fields, f)
	}
	return newKindSchema(kind, terrain, def.Extensible, fields)
}
