// Package data reads source tables from the formats tiles are authored in
// and hands them to the catalog as plain tileprop tables.
package data

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lovelite/tilecat/internal/tileprop"
)

// Format names a source table encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTSX  Format = "tsx"
	FormatLua  Format = "lua"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks a format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".tsx":
		return FormatTSX, nil
	case ".lua":
		return FormatLua, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("data: no format for %s", path)
}

// Source is one file holding one or more tables.
type Source struct {
	ID     string // table ID; empty uses the name found in the file
	Path   string
	Format Format // empty selects by extension
}

// ReadTables reads every source in order, preserving priority: tables from
// earlier sources come first, and tables within one file keep file order.
// Any failure is structural and aborts the whole read.
func ReadTables(ctx context.Context, sources []Source) ([]tileprop.Table, error) {
	var out []tileprop.Table
	for _, src := range sources {
		tables, err := ReadSource(ctx, src)
		if err != nil {
			return nil, err
		}
		out = append(out, tables...)
	}
	return out, nil
}

// ReadSource reads the tables of a single file.
func ReadSource(ctx context.Context, src Source) ([]tileprop.Table, error) {
	format := src.Format
	if format == "" {
		f, err := FormatOf(src.Path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	raw, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("data: read %s: %w", src.Path, err)
	}

	var tables []tileprop.Table
	switch format {
	case FormatYAML:
		var t tileprop.Table
		t, err = ReadYAML(raw)
		tables = []tileprop.Table{t}
	case FormatTSX:
		var t tileprop.Table
		t, err = ReadTSX(bytes.NewReader(raw))
		tables = []tileprop.Table{t}
	case FormatLua:
		tables, err = ReadLua(ctx, raw)
	case FormatXLSX:
		tables, err = ReadXLSX(raw)
	default:
		return nil, fmt.Errorf("data: %s: unknown format %q", src.Path, format)
	}
	if err != nil {
		return nil, fmt.Errorf("data: parse %s: %w", src.Path, err)
	}

	name := src.ID
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
	}
	for i := range tables {
		switch {
		case src.ID != "" && len(tables) == 1:
			tables[i].ID = src.ID
		case tables[i].ID == "" && len(tables) == 1:
			tables[i].ID = name
		case tables[i].ID == "":
			tables[i].ID = fmt.Sprintf("%s#%d", name, i)
		case src.ID != "":
			tables[i].ID = src.ID + "/" + tables[i].ID
		}
	}
	return tables, nil
}
