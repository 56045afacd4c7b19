// Package catalog turns prioritized source tables into a read-only registry
// of entity templates keyed by tile ID.
package catalog

import (
	"encoding/hex"
	"iter"
	"sort"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/lovelite/tilecat/internal/entity"
)

// Catalog is an immutable snapshot. All methods are safe for concurrent use.
type Catalog struct {
	byID   map[int]*entity.Template
	byKind map[string][]*entity.Template // ascending tile ID
	ids    []int
}

// newCatalog takes ownership of templates, which must be sorted by tile ID
// and unique.
func newCatalog(templates []*entity.Template) *Catalog {
	c := &Catalog{
		byID:   make(map[int]*entity.Template, len(templates)),
		byKind: make(map[string][]*entity.Template),
		ids:    make([]int, 0, len(templates)),
	}
	for _, t := range templates {
		c.byID[t.TileID()] = t
		c.byKind[t.Kind()] = append(c.byKind[t.Kind()], t)
		c.ids = append(c.ids, t.TileID())
	}
	return c
}

// Get returns the template for a tile ID, or nil if the catalog has none.
func (c *Catalog) Get(tileID int) *entity.Template {
	return c.byID[tileID]
}

// AllOfKind yields every template of kind in ascending tile ID order. The
// sequence may be ranged over any number of times.
func (c *Catalog) AllOfKind(kind string) iter.Seq[*entity.Template] {
	list := c.byKind[kind]
	return func(yield func(*entity.Template) bool) {
		for _, t := range list {
			if !yield(t) {
				return
			}
		}
	}
}

// All yields every template in ascending tile ID order.
func (c *Catalog) All() iter.Seq[*entity.Template] {
	return func(yield func(*entity.Template) bool) {
		for _, id := range c.ids {
			if !yield(c.byID[id]) {
				return
			}
		}
	}
}

// Count returns the number of templates.
func (c *Catalog) Count() int {
	return len(c.ids)
}

// CountOfKind returns the number of templates of one kind.
func (c *Catalog) CountOfKind(kind string) int {
	return len(c.byKind[kind])
}

// Kinds returns the kinds present in the catalog, sorted.
func (c *Catalog) Kinds() []string {
	out := make([]string, 0, len(c.byKind))
	for k := range c.byKind {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IDs returns all tile IDs in ascending order.
func (c *Catalog) IDs() []int {
	out := make([]int, len(c.ids))
	copy(out, c.ids)
	return out
}

// Equal reports whether both catalogs hold identical templates.
func (c *Catalog) Equal(o *Catalog) bool {
	if len(c.ids) != len(o.ids) {
		return false
	}
	for _, id := range c.ids {
		ot := o.byID[id]
		if ot == nil || !c.byID[id].Equal(ot) {
			return false
		}
	}
	return true
}

// Fingerprint returns a hex BLAKE2b-256 digest of the catalog content. Two
// catalogs with equal content share a fingerprint regardless of how they
// were loaded. Every string is written with its length in front, so no
// value can imitate a field boundary.
func (c *Catalog) Fingerprint() string {
	h, _ := blake2b.New256(nil) // only fails for oversized keys
	var line []byte
	for _, id := range c.ids {
		t := c.byID[id]
		line = appendInt(line[:0], id)
		line = appendField(line, t.Kind())
		line = appendInt(line, t.Len())
		for _, name := range t.Names() {
			v, _ := t.Value(name)
			line = appendField(line, name)
			line = appendField(line, v.Type().String())
			line = appendField(line, v.String())
		}
		line = append(line, '\n')
		h.Write(line)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func appendInt(b []byte, n int) []byte {
	b = strconv.AppendInt(b, int64(n), 10)
	return append(b, ';')
}

// appendField writes s as "len:s".
func appendField(b []byte, s string) []byte {
	b = strconv.AppendInt(b, int64(len(s)), 10)
	b = append(b, ':')
	return append(b, s...)
}
