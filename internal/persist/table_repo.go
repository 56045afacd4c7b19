package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lovelite/tilecat/internal/tileprop"
	"go.uber.org/zap"
)

// TableInfo describes one stored source table.
type TableInfo struct {
	ID         string
	Priority   int
	ImportedAt time.Time
}

// propertyRow is one row of tile_properties.
type propertyRow struct {
	TableID  string
	Record   int // index of the record within its table
	TileID   int
	Position int
	Name     string
	Type     string
	Value    string
}

// TableRepo stores source tables so a catalog can be built without the
// authoring files. Priority orders tables the way source order does.
type TableRepo struct {
	db *DB
}

func NewTableRepo(db *DB) *TableRepo {
	return &TableRepo{db: db}
}

// ListTables returns stored tables in priority order.
func (r *TableRepo) ListTables(ctx context.Context) ([]TableInfo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, priority, imported_at FROM source_tables ORDER BY priority, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TableInfo
	for rows.Next() {
		var ti TableInfo
		if err := rows.Scan(&ti.ID, &ti.Priority, &ti.ImportedAt); err != nil {
			return nil, err
		}
		result = append(result, ti)
	}
	return result, rows.Err()
}

// LoadTables returns every stored table in priority order, ready for
// catalog.Load.
func (r *TableRepo) LoadTables(ctx context.Context) ([]tileprop.Table, error) {
	infos, err := r.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT table_id, record, tile_id, position, name, type, value
		 FROM tile_properties ORDER BY table_id, position`,
	)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	defer rows.Close()

	var props []propertyRow
	for rows.Next() {
		var p propertyRow
		if err := rows.Scan(&p.TableID, &p.Record, &p.TileID, &p.Position, &p.Name, &p.Type, &p.Value); err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tables := assemble(infos, props)
	r.db.log.Debug("tables loaded from store",
		zap.Int("tables", len(tables)),
		zap.Int("properties", len(props)),
	)
	return tables, nil
}

// SaveTable replaces a stored table (delete + bulk copy) and sets its
// priority.
func (r *TableRepo) SaveTable(ctx context.Context, priority int, t tileprop.Table) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO source_tables (id, priority) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET priority = EXCLUDED.priority, imported_at = now()`,
		t.ID, priority,
	); err != nil {
		return fmt.Errorf("upsert table %s: %w", t.ID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tile_properties WHERE table_id = $1`, t.ID); err != nil {
		return fmt.Errorf("clear table %s: %w", t.ID, err)
	}

	props := flatten(t)
	if len(props) > 0 {
		src := make([][]any, len(props))
		for i, p := range props {
			src[i] = []any{p.TableID, p.Record, p.TileID, p.Position, p.Name, p.Type, p.Value}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"tile_properties"},
			[]string{"table_id", "record", "tile_id", "position", "name", "type", "value"},
			pgx.CopyFromRows(src),
		); err != nil {
			return fmt.Errorf("copy table %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.db.log.Info("table saved",
		zap.String("table", t.ID),
		zap.Int("priority", priority),
		zap.Int("records", len(t.Records)),
		zap.Int("properties", len(props)),
	)
	return nil
}

// ReplaceAll makes the store hold exactly tables, with priority following
// slice order.
func (r *TableRepo) ReplaceAll(ctx context.Context, tables []tileprop.Table) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM source_tables`); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	for i, t := range tables {
		if _, err := tx.Exec(ctx,
			`INSERT INTO source_tables (id, priority) VALUES ($1, $2)`, t.ID, i,
		); err != nil {
			return fmt.Errorf("insert table %s: %w", t.ID, err)
		}
	}

	var src [][]any
	for _, t := range tables {
		for _, p := range flatten(t) {
			src = append(src, []any{p.TableID, p.Record, p.TileID, p.Position, p.Name, p.Type, p.Value})
		}
	}
	if len(src) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"tile_properties"},
			[]string{"table_id", "record", "tile_id", "position", "name", "type", "value"},
			pgx.CopyFromRows(src),
		); err != nil {
			return fmt.Errorf("copy properties: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.db.log.Info("store replaced", zap.Int("tables", len(tables)), zap.Int("properties", len(src)))
	return nil
}

// DeleteTable removes a stored table and its properties.
func (r *TableRepo) DeleteTable(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM source_tables WHERE id = $1`, id)
	return err
}

// flatten turns a table into rows. Position numbers properties across the
// whole table so record and property order survive a round trip.
func flatten(t tileprop.Table) []propertyRow {
	var out []propertyRow
	for r, rec := range t.Records {
		for _, p := range rec.Properties {
			out = append(out, propertyRow{
				TableID:  t.ID,
				Record:   r,
				TileID:   rec.TileID,
				Position: len(out),
				Name:     p.Name,
				Type:     p.Type,
				Value:    p.Value,
			})
		}
	}
	return out
}

// assemble groups property rows under their tables. infos fixes table order;
// rows must be sorted by table and position. Rows sharing a record index
// form one record, so a tile stored twice in a table comes back as two
// records even when they were adjacent. Rows for tables not in infos are
// ignored. Records without properties are not stored and do not come back.
func assemble(infos []TableInfo, rows []propertyRow) []tileprop.Table {
	byTable := make(map[string][]propertyRow, len(infos))
	for _, row := range rows {
		byTable[row.TableID] = append(byTable[row.TableID], row)
	}

	tables := make([]tileprop.Table, 0, len(infos))
	for _, info := range infos {
		t := tileprop.Table{ID: info.ID}
		current := -1
		for _, row := range byTable[info.ID] {
			if len(t.Records) == 0 || row.Record != current {
				t.Records = append(t.Records, tileprop.Record{TileID: row.TileID})
				current = row.Record
			}
			n := len(t.Records) - 1
			t.Records[n].Properties = append(t.Records[n].Properties, tileprop.Property{
				Name:  row.Name,
				Type:  row.Type,
				Value: row.Value,
			})
		}
		tables = append(tables, t)
	}
	return tables
}
