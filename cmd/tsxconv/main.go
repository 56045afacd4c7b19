// tsxconv converts a Tiled tileset (.tsx) into a YAML source table, so tile
// properties can be reviewed and overlaid as plain text.
//
// Usage:
//
//	go run ./cmd/tsxconv [-table id] [-o out.yaml] tileset.tsx
//
// Tiles without properties are left out. Output defaults to the input path
// with a .yaml extension.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lovelite/tilecat/internal/data"
)

func main() {
	fs := flag.NewFlagSet("tsxconv", flag.ExitOnError)
	tableID := fs.String("table", "", "table id (default: tileset name)")
	outPath := fs.String("o", "", "output YAML file")
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tsxconv [-table id] [-o out.yaml] tileset.tsx")
		os.Exit(2)
	}
	inputPath := fs.Arg(0)
	if *outPath == "" {
		*outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".yaml"
	}

	// ---- Read & parse TSX ----
	in, err := os.Open(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", inputPath, err)
		os.Exit(1)
	}
	table, err := data.ReadTSX(in)
	in.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing %s: %v\n", inputPath, err)
		os.Exit(1)
	}
	if *tableID != "" {
		table.ID = *tableID
	}
	if table.ID == "" {
		table.ID = strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	}

	// ---- Write YAML ----
	yamlData, err := data.EncodeYAML(table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshalling YAML: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output directory: %v\n", err)
		os.Exit(1)
	}
	header := fmt.Sprintf("# Tile properties converted from %s\n\n", filepath.Base(inputPath))
	if err := os.WriteFile(*outPath, append([]byte(header), yamlData...), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", *outPath, err)
		os.Exit(1)
	}

	props := 0
	for _, rec := range table.Records {
		props += len(rec.Properties)
	}
	fmt.Printf("Wrote %d tiles (%d properties) to %s\n", len(table.Records), props, *outPath)
}
