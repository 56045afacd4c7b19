package data

import (
	"testing"

	"github.com/lovelite/tilecat/internal/tileprop"
)

func TestReadYAMLForms(t *testing.T) {
	doc := `
table: mixed
tiles:
  - id: 1
    properties: { kind: weapon, speed: 3, cooldown: 0.5, initial: true, name: }
  - id: 2
    properties:
      - { name: kind, value: chest }
      - { name: anim, type: int, value: 2 }
`
	tbl, err := ReadYAML([]byte(doc))
	if err != nil {
		t.Fatalf("ReadYAML: %v", err)
	}
	if tbl.ID != "mixed" || len(tbl.Records) != 2 {
		t.Fatalf("unexpected table: %+v", tbl)
	}

	want := map[string]tileprop.Property{
		"kind":     {Name: "kind", Type: "string", Value: "weapon"},
		"speed":    {Name: "speed", Type: "int", Value: "3"},
		"cooldown": {Name: "cooldown", Type: "float", Value: "0.5"},
		"initial":  {Name: "initial", Type: "bool", Value: "true"},
		"name":     {Name: "name", Type: "string", Value: ""},
	}
	got := tbl.Records[0].Properties
	if len(got) != len(want) {
		t.Fatalf("expected %d properties, got %+v", len(want), got)
	}
	for _, p := range got {
		if want[p.Name] != p {
			t.Errorf("%s: expected %+v, got %+v", p.Name, want[p.Name], p)
		}
	}

	anim := tbl.Records[1].Properties[1]
	if anim != (tileprop.Property{Name: "anim", Type: "int", Value: "2"}) {
		t.Fatalf("explicit property: got %+v", anim)
	}
	kind := tbl.Records[1].Properties[0]
	if kind.Type != "" || kind.Value != "chest" {
		t.Fatalf("untyped explicit property should keep an empty tag: %+v", kind)
	}
}

func TestReadYAMLRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"nested_value", "tiles:\n  - id: 1\n    properties: { kind: [a, b] }\n"},
		{"scalar_properties", "tiles:\n  - id: 1\n    properties: enemy\n"},
		{"unnamed", "tiles:\n  - id: 1\n    properties:\n      - { type: int, value: 1 }\n"},
		{"unknown_key", "tiles:\n  - id: 1\n    properties:\n      - { name: a, colour: red }\n"},
		{"bad_id", "tiles:\n  - id: one\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ReadYAML([]byte(c.doc)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestEncodeYAMLRoundTrip(t *testing.T) {
	in := tileprop.Table{ID: "base", Records: []tileprop.Record{
		{TileID: 84, Properties: []tileprop.Property{
			{Name: "kind", Value: "enemy"},
			{Name: "hitpoints", Type: "int", Value: "50"},
			{Name: "flag", Type: "string", Value: "true"},
		}},
	}}
	raw, err := EncodeYAML(in)
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	out, err := ReadYAML(raw)
	if err != nil {
		t.Fatalf("ReadYAML: %v\n%s", err, raw)
	}
	if out.ID != in.ID || len(out.Records) != 1 || out.Records[0].TileID != 84 {
		t.Fatalf("unexpected table: %+v", out)
	}
	for i, p := range in.Records[0].Properties {
		if out.Records[0].Properties[i] != p {
			t.Errorf("property %d: expected %+v, got %+v", i, p, out.Records[0].Properties[i])
		}
	}
}
