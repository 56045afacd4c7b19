// tilecat builds the entity template catalog from the configured source
// tables and reports what was loaded.
//
// Usage:
//
//	tilecat [-config path] [check] [-watch]
//	tilecat [-config path] show <tile-id>...
//	tilecat [-config path] import
//	tilecat [-config path] tables
//
// check (the default) reads sources from files, or from PostgreSQL when
// [database] is enabled. import copies the file sources into PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lovelite/tilecat/internal/catalog"
	"github.com/lovelite/tilecat/internal/config"
	"github.com/lovelite/tilecat/internal/data"
	"github.com/lovelite/tilecat/internal/merge"
	"github.com/lovelite/tilecat/internal/persist"
	"github.com/lovelite/tilecat/internal/schema"
	"github.com/lovelite/tilecat/internal/tileprop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: tilecat [-config path] <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  check     Build the catalog and print the load report (default)")
	fmt.Println("            -watch  rebuild whenever a file source changes")
	fmt.Println("  show      Print the templates of the given tile ids")
	fmt.Println("  import    Copy file sources into the PostgreSQL table store")
	fmt.Println("  tables    List tables held by the table store")
}

// app carries what every command needs.
type app struct {
	cfg *config.Config
	log *zap.Logger
	reg *schema.Registry
}

func run() error {
	flags := flag.NewFlagSet("tilecat", flag.ContinueOnError)
	cfgPath := flags.String("config", config.Path(), "config file (env "+config.EnvPath+")")
	flags.Usage = printUsage
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	// 1. Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Schemas
	reg, err := schema.LoadRegistry(cfg.Catalog.Schemas)
	if err != nil {
		return fmt.Errorf("schemas: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, log: log, reg: reg}
	args := flags.Args()
	cmd := "check"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "check":
		return a.check(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "import":
		return a.importSources(ctx)
	case "tables":
		return a.tables(ctx)
	case "help":
		printUsage()
		return nil
	}
	printUsage()
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) check(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("check", flag.ContinueOnError)
	watch := flags.Bool("watch", false, "rebuild when a file source changes")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cat, report, err := a.build(ctx)
	if err != nil {
		return err
	}
	printReport(cat, report)
	if !*watch {
		if report.HasErrors() {
			return fmt.Errorf("%d tiles excluded", len(report.Excluded()))
		}
		return nil
	}
	return a.watch(ctx, cat)
}

func (a *app) show(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("show: no tile ids")
	}
	cat, report, err := a.build(ctx)
	if err != nil {
		return err
	}
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("show: bad tile id %q", arg)
		}
		printTemplate(id, cat.Get(id), report.For(id))
	}
	return nil
}

// build reads the tables from the configured store and loads the catalog.
func (a *app) build(ctx context.Context) (*catalog.Catalog, *catalog.Report, error) {
	tables, err := a.readTables(ctx)
	if err != nil {
		return nil, nil, err
	}
	return catalog.Load(tables, a.reg, catalog.Options{
		Policy:  merge.Policy{ExtensionTolerant: a.cfg.Catalog.ExtensionTolerant},
		Workers: a.cfg.Catalog.Workers,
		Log:     a.log,
	})
}

func (a *app) readTables(ctx context.Context) ([]tileprop.Table, error) {
	if !a.cfg.Database.Enabled {
		sources, err := a.cfg.DataSources()
		if err != nil {
			return nil, err
		}
		return data.ReadTables(ctx, sources)
	}

	db, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return persist.NewTableRepo(db).LoadTables(ctx)
}

func (a *app) openStore(ctx context.Context) (*persist.DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(connectCtx, a.cfg.Database, a.log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := persist.RunMigrations(connectCtx, db.Pool, a.log); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}

func (a *app) importSources(ctx context.Context) error {
	sources, err := a.cfg.DataSources()
	if err != nil {
		return err
	}
	tables, err := data.ReadTables(ctx, sources)
	if err != nil {
		return err
	}
	if _, _, err := catalog.Load(tables, a.reg, catalog.Options{Log: zap.NewNop()}); err != nil {
		return fmt.Errorf("refusing import: %w", err)
	}

	db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := persist.NewTableRepo(db).ReplaceAll(ctx, tables); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	printSection("import")
	for _, t := range tables {
		printStat(t.ID, len(t.Records))
	}
	printOK(fmt.Sprintf("%d tables stored", len(tables)))
	return nil
}

func (a *app) tables(ctx context.Context) error {
	db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	infos, err := persist.NewTableRepo(db).ListTables(ctx)
	if err != nil {
		return err
	}
	printSection("table store")
	for _, ti := range infos {
		fmt.Printf("  %3d  %-24s %s\n", ti.Priority, ti.ID, ti.ImportedAt.Format(time.DateTime))
	}
	printStat("tables", len(infos))
	return nil
}

// watch rebuilds the catalog after each debounced change to a file source
// and reports when the fingerprint moves. A failed rebuild keeps the last
// good catalog.
func (a *app) watch(ctx context.Context, current *catalog.Catalog) error {
	if a.cfg.Database.Enabled {
		return errors.New("watch: sources are read from the database")
	}
	sources, err := a.cfg.DataSources()
	if err != nil {
		return err
	}
	w, err := data.NewWatcher(sources, a.cfg.Watch.Debounce)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	printReady("watching " + strconv.Itoa(len(sources)) + " sources")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("watch error", zap.Error(err))
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			a.log.Info("source changed", zap.String("path", path))
			cat, report, err := a.build(ctx)
			if err != nil {
				a.log.Error("rebuild failed, keeping previous catalog", zap.Error(err))
				continue
			}
			if cat.Fingerprint() == current.Fingerprint() {
				a.log.Info("catalog unchanged", zap.Int("diagnostics", len(report.Diagnostics)))
				continue
			}
			current = cat
			printReport(cat, report)
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
