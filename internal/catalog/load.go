package catalog

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lovelite/tilecat/internal/entity"
	"github.com/lovelite/tilecat/internal/merge"
	"github.com/lovelite/tilecat/internal/schema"
	"github.com/lovelite/tilecat/internal/tileprop"
)

// Structural errors abort a load; nothing is returned but the error.
var (
	ErrNoTables       = errors.New("no source tables")
	ErrUnnamedTable   = errors.New("source table without id")
	ErrDuplicateTable = errors.New("duplicate source table")
)

// ErrDuplicateTile excludes a tile that appears twice in one table. The
// rest of the load goes on.
var ErrDuplicateTile = errors.New("tile defined twice in one table")

// Options configures Load. The zero value merges sequentially with the
// strict policy and no logging.
type Options struct {
	Policy merge.Policy
	// Workers bounds parallel per-tile merging; values below 2 merge
	// sequentially.
	Workers int
	Log     *zap.Logger
}

// Load merges tables, given lowest precedence first, into a catalog. Tiles
// that fail to merge are left out and described in the report; the returned
// error is reserved for structural problems with the tables themselves.
func Load(tables []tileprop.Table, reg *schema.Registry, opts Options) (*Catalog, *Report, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	groups, pre, err := group(tables)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: %w", err)
	}

	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	m := merge.New(reg, opts.Policy, log)
	results := make([]merge.Result, len(ids))
	mergeOne := func(i int) {
		id := ids[i]
		if err, bad := pre[id]; bad {
			results[i] = merge.Result{TileID: id, Err: err}
			return
		}
		results[i] = m.Merge(id, groups[id])
	}

	if opts.Workers < 2 {
		for i := range ids {
			mergeOne(i)
		}
	} else {
		// each goroutine owns results[i]; the catalog is assembled below
		// by this goroutine alone
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := range ids {
			g.Go(func() error {
				mergeOne(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := &Report{Tables: len(tables), Tiles: len(ids)}
	templates := make([]*entity.Template, 0, len(results))
	for _, r := range results {
		for _, w := range r.Warnings {
			report.add(r.TileID, SeverityWarning, w)
		}
		if r.Err != nil {
			report.add(r.TileID, SeverityError, r.Err)
			continue
		}
		templates = append(templates, r.Template)
	}
	report.Loaded = len(templates)

	c := newCatalog(templates)
	log.Info("catalog loaded",
		zap.Int("tables", report.Tables),
		zap.Int("tiles", report.Tiles),
		zap.Int("loaded", report.Loaded),
		zap.Int("excluded", len(report.Excluded())),
		zap.Int("warnings", report.WarningCount()))
	return c, report, nil
}

// group collects each tile's definitions in table order. Record-level
// problems (a repeated tile, a repeated property) are returned per tile in
// pre; they exclude only that tile.
func group(tables []tileprop.Table) (map[int][]tileprop.Definition, map[int]error, error) {
	if len(tables) == 0 {
		return nil, nil, ErrNoTables
	}
	seen := make(map[string]bool, len(tables))
	groups := make(map[int][]tileprop.Definition)
	pre := make(map[int]error)

	for i, t := range tables {
		if t.ID == "" {
			return nil, nil, fmt.Errorf("table #%d: %w", i, ErrUnnamedTable)
		}
		if seen[t.ID] {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateTable, t.ID)
		}
		seen[t.ID] = true

		tiles := make(map[int]bool, len(t.Records))
		for _, rec := range t.Records {
			if tiles[rec.TileID] {
				pre[rec.TileID] = multierr.Append(pre[rec.TileID],
					fmt.Errorf("table %s tile %d: %w", t.ID, rec.TileID, ErrDuplicateTile))
				continue
			}
			tiles[rec.TileID] = true

			d, err := tileprop.NewDefinition(t.ID, rec)
			if err != nil {
				pre[rec.TileID] = multierr.Append(pre[rec.TileID], err)
				groups[rec.TileID] = append(groups[rec.TileID], tileprop.Definition{TileID: rec.TileID, TableID: t.ID})
				continue
			}
			groups[rec.TileID] = append(groups[rec.TileID], d)
		}
	}
	return groups, pre, nil
}
