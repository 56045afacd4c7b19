package data

import (
	"encoding/xml"
	"fmt"
	"io"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/lovelite/tilecat/internal/tileprop"
)

// Tiled tileset (.tsx) structure. Only tile properties are read; image and
// editor settings belong to the renderer.
type tsxTileset struct {
	XMLName xml.Name  `xml:"tileset"`
	Name    string    `xml:"name,attr"`
	Tiles   []tsxTile `xml:"tile"`
}

type tsxTile struct {
	ID         int           `xml:"id,attr"`
	Properties []tsxProperty `xml:"properties>property"`
}

type tsxProperty struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"` // multi-line string values
}

// tiledType maps Tiled property types onto decoder tags. Colors and file
// paths are strings; object references are IDs. Anything else (custom
// classes) passes through and fails to decode on its own tile.
func tiledType(t string) string {
	switch t {
	case "color", "file":
		return "string"
	case "object":
		return "int"
	}
	return t
}

// charsetReader lets tilesets saved in legacy encodings declare them in the
// XML header.
func charsetReader(label string, in io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(in), nil
}

// ReadTSX parses a Tiled tileset. The table ID is the tileset name.
func ReadTSX(r io.Reader) (tileprop.Table, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var ts tsxTileset
	if err := dec.Decode(&ts); err != nil {
		return tileprop.Table{}, err
	}

	t := tileprop.Table{ID: ts.Name, Records: make([]tileprop.Record, 0, len(ts.Tiles))}
	for _, tile := range ts.Tiles {
		if len(tile.Properties) == 0 {
			continue
		}
		rec := tileprop.Record{TileID: tile.ID, Properties: make([]tileprop.Property, 0, len(tile.Properties))}
		for _, p := range tile.Properties {
			v := p.Value
			if v == "" {
				v = p.Text
			}
			rec.Properties = append(rec.Properties, tileprop.Property{Name: p.Name, Type: tiledType(p.Type), Value: v})
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}
