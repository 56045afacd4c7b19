package data

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/lovelite/tilecat/internal/tileprop"
)

// ReadXLSX reads a workbook where every sheet is one table, in workbook
// order. The first row is a header: column A is "id", the others name a
// property, optionally typed as "name:type". Empty cells leave the property
// unset. Untyped columns infer the type from the cell.
func ReadXLSX(raw []byte) ([]tileprop.Table, error) {
	wb, err := xlsx.OpenBinary(raw)
	if err != nil {
		return nil, err
	}
	out := make([]tileprop.Table, 0, len(wb.Sheets))
	for _, sheet := range wb.Sheets {
		t, err := readSheet(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet.Name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

type xlsxColumn struct {
	name string
	tag  string // empty: infer per cell
}

func readSheet(sheet *xlsx.Sheet) (tileprop.Table, error) {
	t := tileprop.Table{ID: sheet.Name}
	if len(sheet.Rows) == 0 {
		return t, nil
	}

	header := sheet.Rows[0]
	if len(header.Cells) == 0 || strings.TrimSpace(header.Cells[0].Value) != "id" {
		return t, fmt.Errorf("first header cell must be \"id\"")
	}
	cols := make([]xlsxColumn, len(header.Cells))
	for i, c := range header.Cells[1:] {
		name, tag, _ := strings.Cut(strings.TrimSpace(c.Value), ":")
		cols[i+1] = xlsxColumn{name: name, tag: tag}
	}

	for r, row := range sheet.Rows[1:] {
		if row == nil || len(row.Cells) == 0 || strings.TrimSpace(row.Cells[0].Value) == "" {
			continue
		}
		id, err := cellInt(row.Cells[0].Value)
		if err != nil {
			return t, fmt.Errorf("row %d: bad id %q", r+2, row.Cells[0].Value)
		}
		rec := tileprop.Record{TileID: id}
		for i, c := range row.Cells[1:] {
			col := i + 1
			if col >= len(cols) || cols[col].name == "" || c.Value == "" {
				continue
			}
			rec.Properties = append(rec.Properties, cellProperty(cols[col], c))
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

func cellProperty(col xlsxColumn, c *xlsx.Cell) tileprop.Property {
	p := tileprop.Property{Name: col.name, Type: col.tag, Value: c.Value}
	if c.Type() == xlsx.CellTypeBool {
		p.Value = strconv.FormatBool(c.Bool())
	}
	if col.tag != "" {
		return p
	}
	switch c.Type() {
	case xlsx.CellTypeBool:
		p.Type = "bool"
	case xlsx.CellTypeString:
		p.Type = "string"
	default:
		f, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			p.Type = "string"
			break
		}
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			p.Type, p.Value = "int", strconv.FormatInt(int64(f), 10)
		} else {
			p.Type, p.Value = "float", strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return p
}

func cellInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}
