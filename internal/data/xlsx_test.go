package data

import (
	"bytes"
	"testing"

	"github.com/tealeg/xlsx"
)

func addRow(sheet *xlsx.Sheet, cells ...any) {
	row := sheet.AddRow()
	for _, v := range cells {
		c := row.AddCell()
		switch v := v.(type) {
		case string:
			c.SetString(v)
		case int:
			c.SetInt(v)
		case float64:
			c.SetFloat(v)
		case bool:
			c.SetBool(v)
		case nil:
		}
	}
}

func workbook(t *testing.T) []byte {
	t.Helper()
	wb := xlsx.NewFile()
	base, err := wb.AddSheet("base")
	if err != nil {
		t.Fatalf("add sheet: %v", err)
	}
	addRow(base, "id", "kind", "hitpoints:int", "cooldown:float", "speed", "initial")
	addRow(base, 84, "enemy", 50, nil, nil, nil)
	addRow(base, 103, "weapon", nil, 1, 10, true)
	addRow(base, nil)
	addRow(base, 117, "weapon", nil, 0.5, 6.5, false)

	patch, err := wb.AddSheet("patch")
	if err != nil {
		t.Fatalf("add sheet: %v", err)
	}
	addRow(patch, "id", "hitpoints:int")
	addRow(patch, 84, 100)

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	tables, err := ReadXLSX(workbook(t))
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if len(tables) != 2 || tables[0].ID != "base" || tables[1].ID != "patch" {
		t.Fatalf("expected base and patch sheets in order, got %+v", tables)
	}

	base := tables[0]
	if len(base.Records) != 3 {
		t.Fatalf("blank rows should be skipped, got %d records", len(base.Records))
	}

	wizard := base.Records[0]
	if wizard.TileID != 84 || len(wizard.Properties) != 2 {
		t.Fatalf("empty cells should leave properties unset: %+v", wizard)
	}
	if p := wizard.Properties[1]; p.Name != "hitpoints" || p.Type != "int" || p.Value != "50" {
		t.Errorf("typed column: %+v", p)
	}

	sword := base.Records[1]
	byName := map[string]string{}
	types := map[string]string{}
	for _, p := range sword.Properties {
		byName[p.Name], types[p.Name] = p.Value, p.Type
	}
	if types["cooldown"] != "float" || byName["cooldown"] != "1" {
		t.Errorf("cooldown: %s %q", types["cooldown"], byName["cooldown"])
	}
	if types["speed"] != "int" || byName["speed"] != "10" {
		t.Errorf("speed should infer int: %s %q", types["speed"], byName["speed"])
	}
	if types["initial"] != "bool" || byName["initial"] != "true" {
		t.Errorf("initial should infer bool: %s %q", types["initial"], byName["initial"])
	}
	if types["kind"] != "string" || byName["kind"] != "weapon" {
		t.Errorf("kind: %s %q", types["kind"], byName["kind"])
	}

	hammer := base.Records[2]
	for _, p := range hammer.Properties {
		if p.Name == "speed" && (p.Type != "float" || p.Value != "6.5") {
			t.Errorf("fractional cell should infer float: %+v", p)
		}
	}
}

func TestReadXLSXRejectsMissingIDColumn(t *testing.T) {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("broken")
	if err != nil {
		t.Fatalf("add sheet: %v", err)
	}
	addRow(sheet, "tile", "kind")
	addRow(sheet, 1, "chest")

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if _, err := ReadXLSX(buf.Bytes()); err == nil {
		t.Fatalf("expected an error for a sheet without an id column")
	}
}
