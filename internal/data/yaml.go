package data

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lovelite/tilecat/internal/tileprop"
)

// A YAML source table. Properties are either a list of explicit
// name/type/value entries or a plain mapping whose value types are inferred:
//
//	table: balance
//	tiles:
//	  - id: 84
//	    properties: { kind: enemy, hitpoints: 100 }
//	  - id: 103
//	    properties:
//	      - { name: speed, type: int, value: "1" }
type yamlTable struct {
	Table string     `yaml:"table"`
	Tiles []yamlTile `yaml:"tiles"`
}

type yamlTile struct {
	ID         int              `yaml:"id"`
	Properties yamlPropertyList `yaml:"properties"`
}

type yamlProperty struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type,omitempty"`
	Value string `yaml:"value"`
}

type yamlPropertyList []tileprop.Property

func (l *yamlPropertyList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: property must be a mapping", item.Line)
			}
			var p tileprop.Property
			for i := 0; i+1 < len(item.Content); i += 2 {
				k, v := item.Content[i], item.Content[i+1]
				if v.Kind != yaml.ScalarNode {
					return fmt.Errorf("line %d: %s must be a scalar", v.Line, k.Value)
				}
				switch k.Value {
				case "name":
					p.Name = v.Value
				case "type":
					p.Type = v.Value
				case "value":
					p.Value = v.Value
				default:
					return fmt.Errorf("line %d: unexpected key %q", k.Line, k.Value)
				}
			}
			if p.Name == "" {
				return fmt.Errorf("line %d: property without a name", item.Line)
			}
			*l = append(*l, p)
		}
		return nil

	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			p, err := inferYAML(k.Value, v)
			if err != nil {
				return err
			}
			*l = append(*l, p)
		}
		return nil
	}
	return fmt.Errorf("line %d: properties must be a list or a mapping", node.Line)
}

// inferYAML types a scalar from its resolved YAML tag and writes it in the
// notation tileprop.Decode expects.
func inferYAML(name string, v *yaml.Node) (tileprop.Property, error) {
	if v.Kind != yaml.ScalarNode {
		return tileprop.Property{}, fmt.Errorf("line %d: %s must be a scalar", v.Line, name)
	}
	p := tileprop.Property{Name: name, Type: "string", Value: v.Value}
	switch v.ShortTag() {
	case "!!bool":
		var b bool
		if err := v.Decode(&b); err != nil {
			return p, fmt.Errorf("line %d: %s: %w", v.Line, name, err)
		}
		p.Type, p.Value = "bool", strconv.FormatBool(b)
	case "!!int":
		var n int64
		if err := v.Decode(&n); err != nil {
			return p, fmt.Errorf("line %d: %s: %w", v.Line, name, err)
		}
		p.Type, p.Value = "int", strconv.FormatInt(n, 10)
	case "!!float":
		var f float64
		if err := v.Decode(&f); err != nil {
			return p, fmt.Errorf("line %d: %s: %w", v.Line, name, err)
		}
		p.Type, p.Value = "float", strconv.FormatFloat(f, 'f', -1, 64)
	case "!!null":
		p.Value = ""
	}
	return p, nil
}

// ReadYAML parses one YAML source table.
func ReadYAML(raw []byte) (tileprop.Table, error) {
	var f yamlTable
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return tileprop.Table{}, err
	}
	t := tileprop.Table{ID: f.Table, Records: make([]tileprop.Record, 0, len(f.Tiles))}
	for _, tile := range f.Tiles {
		t.Records = append(t.Records, tileprop.Record{TileID: tile.ID, Properties: tile.Properties})
	}
	return t, nil
}

// EncodeYAML writes a table in the explicit list form, which round-trips
// through ReadYAML without relying on type inference.
func EncodeYAML(t tileprop.Table) ([]byte, error) {
	type tile struct {
		ID         int            `yaml:"id"`
		Properties []yamlProperty `yaml:"properties"`
	}
	out := struct {
		Table string `yaml:"table"`
		Tiles []tile `yaml:"tiles"`
	}{Table: t.ID}
	for _, rec := range t.Records {
		tl := tile{ID: rec.TileID, Properties: make([]yamlProperty, 0, len(rec.Properties))}
		for _, p := range rec.Properties {
			tl.Properties = append(tl.Properties, yamlProperty{Name: p.Name, Type: p.Type, Value: p.Value})
		}
		out.Tiles = append(out.Tiles, tl)
	}
	return yaml.Marshal(out)
}
