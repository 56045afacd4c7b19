package entity

import (
	"testing"

	"github.com/lovelite/tilecat/internal/tileprop"
)

func TestTemplateIsImmutable(t *testing.T) {
	src := map[string]tileprop.Value{
		"kind":   tileprop.StringValue("potion"),
		"amount": tileprop.IntValue(50),
	}
	tmpl := NewTemplate(113, "potion", src)

	src["amount"] = tileprop.IntValue(1)
	if v, _ := tmpl.Int("amount"); v != 50 {
		t.Fatalf("template must not alias the source map, got amount=%d", v)
	}

	fields := tmpl.Fields()
	fields["amount"] = tileprop.IntValue(2)
	if v, _ := tmpl.Int("amount"); v != 50 {
		t.Fatalf("Fields() must return a copy, got amount=%d", v)
	}
}

func TestTemplateAccessors(t *testing.T) {
	tmpl := NewTemplate(103, "weapon", map[string]tileprop.Value{
		"kind":     tileprop.StringValue("weapon"),
		"melee":    tileprop.IntValue(25),
		"cooldown": tileprop.FloatValue(0.5),
		"initial":  tileprop.BoolValue(true),
	})

	if tmpl.TileID() != 103 || tmpl.Kind() != "weapon" || tmpl.Len() != 4 {
		t.Fatalf("unexpected template header: %d %s %d", tmpl.TileID(), tmpl.Kind(), tmpl.Len())
	}
	if v, ok := tmpl.Int("melee"); !ok || v != 25 {
		t.Fatalf("melee: %v %v", v, ok)
	}
	if v, ok := tmpl.Float("cooldown"); !ok || v != 0.5 {
		t.Fatalf("cooldown: %v %v", v, ok)
	}
	if v, ok := tmpl.Bool("initial"); !ok || !v {
		t.Fatalf("initial: %v %v", v, ok)
	}
	if _, ok := tmpl.Int("cooldown"); ok {
		t.Fatalf("Int on a float field must report !ok")
	}
	if _, ok := tmpl.String("fire"); ok {
		t.Fatalf("absent field must report !ok")
	}

	want := "weapon{cooldown=0.5 initial=true kind=weapon melee=25}"
	if got := tmpl.Describe(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTemplateEqual(t *testing.T) {
	a := NewTemplate(1, "chest", map[string]tileprop.Value{"anim": tileprop.IntValue(0)})
	b := NewTemplate(1, "chest", map[string]tileprop.Value{"anim": tileprop.IntValue(0)})
	c := NewTemplate(1, "chest", map[string]tileprop.Value{"anim": tileprop.IntValue(1)})
	if !a.Equal(b) {
		t.Fatalf("identical templates should be equal")
	}
	if a.Equal(c) {
		t.Fatalf("templates with different fields should differ")
	}
}
