package tileprop

import (
	"errors"
	"fmt"
)

// ErrDuplicateProperty is returned when one record names a property twice.
var ErrDuplicateProperty = errors.New("duplicate property")

// Property is one raw name/type/value triple as read from a source table.
// Type is the declared type tag; empty means string.
type Property struct {
	Name  string
	Type  string
	Value string
}

// Record is one tile entry of a source table.
type Record struct {
	TileID     int
	Properties []Property
}

// Table is one authored source table. Tables are handed to the catalog in
// priority order, lowest precedence first.
type Table struct {
	ID      string
	Records []Record
}

// Definition is one tile as described by one table. It is immutable once
// built.
type Definition struct {
	TileID     int
	TableID    string
	Properties map[string]Property
}

// NewDefinition indexes a record's properties by name.
func NewDefinition(tableID string, rec Record) (Definition, error) {
	d := Definition{
		TileID:     rec.TileID,
		TableID:    tableID,
		Properties: make(map[string]Property, len(rec.Properties)),
	}
	for _, p := range rec.Properties {
		if _, dup := d.Properties[p.Name]; dup {
			return Definition{}, fmt.Errorf("table %s tile %d: %w %q", tableID, rec.TileID, ErrDuplicateProperty, p.Name)
		}
		d.Properties[p.Name] = p
	}
	return d, nil
}

// Lookup returns the named property.
func (d Definition) Lookup(name string) (Property, bool) {
	p, ok := d.Properties[name]
	return p, ok
}
