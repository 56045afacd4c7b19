package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lovelite/tilecat/internal/data"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Catalog.Workers != 4 || cfg.Catalog.ExtensionTolerant {
		t.Errorf("catalog defaults = %+v", cfg.Catalog)
	}
	if cfg.Watch.Debounce != 200*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Database.Enabled {
		t.Error("database enabled by default")
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
[catalog]
extension_tolerant = true
workers = 1

[[sources]]
id = "base"
path = "tiles/lovelite.tsx"

[[sources]]
path = "tiles/balance.yaml"

[database]
enabled = true
conn_max_lifetime = "5m"

[watch]
debounce = "1s"

[logging]
format = "json"
`))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Catalog.ExtensionTolerant || cfg.Catalog.Workers != 1 {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0].ID != "base" || cfg.Sources[1].Path != "tiles/balance.yaml" {
		t.Errorf("sources = %+v", cfg.Sources)
	}
	if !cfg.Database.Enabled || cfg.Database.ConnMaxLifetime != 5*time.Minute || cfg.Database.MaxOpenConns != 10 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("[catalog\nworkers = 1")); err == nil {
		t.Fatal("expected error")
	}
	if _, err := Parse([]byte("[catalog]\nworkers = \"many\"")); err == nil {
		t.Fatal("expected type error")
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tilecat.toml")
	doc := `
[catalog]
schemas = "schemas.yaml"

[[sources]]
path = "base.tsx"

[[sources]]
path = "/abs/overlay.yaml"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "schemas.yaml"); cfg.Catalog.Schemas != want {
		t.Errorf("schemas = %q, want %q", cfg.Catalog.Schemas, want)
	}
	if want := filepath.Join(dir, "base.tsx"); cfg.Sources[0].Path != want {
		t.Errorf("source 0 = %q, want %q", cfg.Sources[0].Path, want)
	}
	if cfg.Sources[1].Path != "/abs/overlay.yaml" {
		t.Errorf("source 1 = %q", cfg.Sources[1].Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvPath, "")
	if got := Path(); got != DefaultPath {
		t.Errorf("Path() = %q", got)
	}
	t.Setenv(EnvPath, "/etc/tilecat.toml")
	if got := Path(); got != "/etc/tilecat.toml" {
		t.Errorf("Path() = %q", got)
	}
}

func TestDataSources(t *testing.T) {
	cfg := &Config{Sources: []SourceConfig{
		{ID: "base", Path: "a/lovelite.tsx"},
		{Path: "b/balance.yml"},
		{Path: "c/tiles.dat", Format: "lua"},
	}}
	got, err := cfg.DataSources()
	if err != nil {
		t.Fatal(err)
	}
	want := []data.Source{
		{ID: "base", Path: "a/lovelite.tsx", Format: data.FormatTSX},
		{Path: "b/balance.yml", Format: data.FormatYAML},
		{Path: "c/tiles.dat", Format: data.FormatLua},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d sources", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("source %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDataSourcesErrors(t *testing.T) {
	tests := []struct {
		name    string
		sources []SourceConfig
	}{
		{"empty path", []SourceConfig{{ID: "x"}}},
		{"unknown extension", []SourceConfig{{Path: "tiles.json"}}},
		{"unknown format", []SourceConfig{{Path: "tiles.yaml", Format: "ini"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Sources: tt.sources}
			if _, err := cfg.DataSources(); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := (&Config{}).DataSources(); !errors.Is(err, ErrNoSources) {
		t.Errorf("err = %v, want ErrNoSources", err)
	}
}
