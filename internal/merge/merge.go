// Package merge reconciles the definitions several source tables give for
// one tile ID into a single entity template.
//
// Definitions are passed lowest precedence first. The first definition that
// declares a kind (or, for terrain, a walkable flag) fixes the tile's kind;
// for every field the last definition that sets it wins.
package merge

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lovelite/tilecat/internal/entity"
	"github.com/lovelite/tilecat/internal/schema"
	"github.com/lovelite/tilecat/internal/tileprop"
)

var (
	ErrKindConflict         = errors.New("kind conflict")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrNoKind               = errors.New("no kind declared")
)

// MergeError reports why a tile could not be turned into a template.
type MergeError struct {
	TileID int
	Kind   string
	Reason error

	Field string // ErrMissingRequiredField

	// ErrKindConflict: the table that fixed Kind and the one disagreeing.
	Table         string
	OtherTable    string
	ConflictingAs string
}

func (e *MergeError) Error() string {
	switch {
	case errors.Is(e.Reason, ErrKindConflict):
		return fmt.Sprintf("tile %d: %v: table %s declares %q, table %s declares %q",
			e.TileID, e.Reason, e.Table, e.Kind, e.OtherTable, e.ConflictingAs)
	case errors.Is(e.Reason, ErrMissingRequiredField):
		return fmt.Sprintf("tile %d: %s: %v %q", e.TileID, e.Kind, e.Reason, e.Field)
	}
	return fmt.Sprintf("tile %d: %v", e.TileID, e.Reason)
}

func (e *MergeError) Unwrap() error { return e.Reason }

// Policy tunes how strictly definitions are checked against their schema.
type Policy struct {
	// ExtensionTolerant keeps properties that the kind's schema does not
	// declare instead of dropping them.
	ExtensionTolerant bool
}

// Result is the outcome of merging one tile. Template is nil whenever Err is
// set. Warnings never exclude a tile.
type Result struct {
	TileID   int
	Template *entity.Template
	Err      error
	Warnings []error
}

// Merger is safe for concurrent use; it holds no mutable state.
type Merger struct {
	reg    *schema.Registry
	policy Policy
	log    *zap.Logger
}

func New(reg *schema.Registry, policy Policy, log *zap.Logger) *Merger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Merger{reg: reg, policy: policy, log: log}
}

// declaredKind returns the kind a single definition declares, if any. An
// empty kind value counts as undeclared.
func declaredKind(d tileprop.Definition) (string, bool) {
	if p, ok := d.Lookup(schema.KindField); ok && p.Value != "" {
		return p.Value, true
	}
	if _, ok := d.Lookup(schema.WalkableField); ok {
		return schema.Terrain, true
	}
	return "", false
}

// namesTerrain reports whether any definition writes the terrain key as
// its kind value.
func namesTerrain(defs []tileprop.Definition) bool {
	for _, d := range defs {
		if p, ok := d.Lookup(schema.KindField); ok && p.Value == schema.Terrain {
			return true
		}
	}
	return false
}

// ResolveKind fixes the tile's kind from the first definition declaring one
// and reports every later definition that disagrees.
func ResolveKind(tileID int, defs []tileprop.Definition) (string, error) {
	var (
		kind, fixedBy string
		errs          error
	)
	for _, d := range defs {
		k, ok := declaredKind(d)
		if !ok {
			continue
		}
		if fixedBy == "" {
			kind, fixedBy = k, d.TableID
			continue
		}
		if k != kind {
			errs = multierr.Append(errs, &MergeError{
				TileID:        tileID,
				Kind:          kind,
				Reason:        ErrKindConflict,
				Table:         fixedBy,
				OtherTable:    d.TableID,
				ConflictingAs: k,
			})
		}
	}
	if errs != nil {
		return "", errs
	}
	if fixedBy == "" {
		return "", &MergeError{TileID: tileID, Reason: ErrNoKind}
	}
	return kind, nil
}

// Merge builds the template for tileID from defs, ordered lowest precedence
// first.
func (m *Merger) Merge(tileID int, defs []tileprop.Definition) Result {
	res := Result{TileID: tileID}

	kind, err := ResolveKind(tileID, defs)
	if err != nil {
		res.Err = err
		return res
	}
	if kind == schema.Terrain && namesTerrain(defs) {
		// terrain is selected by walkable, never by a kind value
		res.Err = fmt.Errorf("tile %d: %w", tileID, &schema.SchemaError{Kind: kind, Reason: schema.ErrKindNotFound})
		return res
	}
	ks, err := m.reg.SchemaFor(kind)
	if err != nil {
		res.Err = fmt.Errorf("tile %d: %w", tileID, err)
		return res
	}
	keepUnknown := m.policy.ExtensionTolerant || ks.Extensible

	// index of the last definition setting each property
	winner := make(map[string]int)
	for i, d := range defs {
		for name := range d.Properties {
			winner[name] = i
		}
	}
	names := make([]string, 0, len(winner))
	for name := range winner {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		values  = make(map[string]tileprop.Value, len(names))
		failed  = make(map[string]bool)
		dropped []string
		errs    error
	)
	if !ks.Terrain {
		values[schema.KindField] = tileprop.StringValue(kind)
	}
	for _, name := range names {
		if name == schema.KindField && !ks.Terrain {
			continue
		}
		_, known := ks.Field(name)
		if !known && !keepUnknown {
			dropped = append(dropped, name)
			res.Warnings = append(res.Warnings, fmt.Errorf("tile %d: dropped: %w",
				tileID, &schema.SchemaError{Kind: kind, Field: name, Reason: schema.ErrUnknownField}))
			continue
		}

		w := winner[name]
		for i := 0; i < w; i++ {
			p, ok := defs[i].Properties[name]
			if !ok {
				continue
			}
			if _, err := m.value(ks, p, known); err != nil {
				res.Warnings = append(res.Warnings, fmt.Errorf("tile %d: table %s (overridden): %w", tileID, defs[i].TableID, err))
			}
		}

		v, err := m.value(ks, defs[w].Properties[name], known)
		if err != nil {
			failed[name] = true
			errs = multierr.Append(errs, fmt.Errorf("tile %d: table %s: %w", tileID, defs[w].TableID, err))
			continue
		}
		values[name] = v
	}

	for _, f := range ks.Fields() {
		if _, ok := values[f.Name]; ok || failed[f.Name] {
			continue
		}
		if f.Default != nil {
			values[f.Name] = *f.Default
			continue
		}
		if f.Required {
			errs = multierr.Append(errs, &MergeError{TileID: tileID, Kind: kind, Field: f.Name, Reason: ErrMissingRequiredField})
		}
	}

	if len(dropped) > 0 {
		m.log.Warn("dropped unknown properties",
			zap.Int("tile", tileID), zap.String("kind", kind), zap.Strings("properties", dropped))
	}
	if errs != nil {
		res.Err = errs
		return res
	}
	res.Template = entity.NewTemplate(tileID, kind, values)
	return res
}

// value decodes one property and, for declared fields, checks it against
// the schema.
func (m *Merger) value(ks *schema.KindSchema, p tileprop.Property, known bool) (tileprop.Value, error) {
	v, err := tileprop.DecodeProperty(p)
	if err != nil {
		return tileprop.Value{}, err
	}
	if !known {
		return v, nil
	}
	return ks.Coerce(p.Name, v)
}
