// Command lessonctl manages the curated dataset and runs the lesson engine
// from the command line.
//
// Usage:
//
//	lessonctl import --file data/dataset.yaml --db data/lessons.db
//	lessonctl export --out backup.yaml
//	lessonctl validate --file data/dataset.yaml
//	lessonctl festivals --date 2024-04-20 --window 21
//	lessonctl generate --topic genesis-12 --type sermon --date 2024-04-20
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/database"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
	"github.com/zapponejosh/lesson-designer/internal/logger"
)

const defaultDBPath = "./data/lessons.db"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dbPath    string
	file      string
	verbose   bool
	logFormat string
	minYear   int
	maxYear   int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "lessonctl",
		Short: "Manage the curated dataset and generate lessons",
		Long: `lessonctl imports, exports and validates the curated dataset that
backs the lesson designer API, and can correlate festivals or generate a
lesson locally without running the server.

The dataset is read from --file when given, otherwise from the SQLite
database at --db.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.dbPath, "db", envOr("DATABASE_PATH", defaultDBPath), "Path to SQLite database")
	root.PersistentFlags().StringVarP(&g.file, "file", "f", "", "Path to a YAML dataset file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format: text or json")
	root.PersistentFlags().IntVar(&g.minYear, "min-year", calendar.DefaultYearRange.Min, "Earliest supported civil year")
	root.PersistentFlags().IntVar(&g.maxYear, "max-year", calendar.DefaultYearRange.Max, "Latest supported civil year")

	root.AddCommand(
		newImportCmd(g),
		newExportCmd(g),
		newValidateCmd(g),
		newFestivalsCmd(g),
		newGenerateCmd(g),
	)
	return root
}

// logger writes to stderr so command output stays machine-readable.
func (g *globalFlags) logger(cmd *cobra.Command) *slog.Logger {
	level := "info"
	if g.verbose {
		level = "debug"
	}
	return logger.New(cmd.ErrOrStderr(), level, g.logFormat)
}

func (g *globalFlags) years() calendar.YearRange {
	return calendar.YearRange{Min: g.minYear, Max: g.maxYear}
}

// openDB opens and migrates the database at --db.
func (g *globalFlags) openDB(ctx context.Context, log *slog.Logger) (*database.DB, error) {
	db, err := database.Open(database.DefaultConfig(g.dbPath), log)
	if err != nil {
		return nil, err
	}
	if _, err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// store loads the dataset from --file or, failing that, --db. The
// returned func releases the database, if one was opened.
func (g *globalFlags) store(ctx context.Context, log *slog.Logger) (*dataset.Store, func() error, error) {
	if g.file != "" {
		store, err := dataset.NewStore(ctx, dataset.FileLoader{Path: g.file}, log)
		return store, func() error { return nil }, err
	}

	db, err := g.openDB(ctx, log)
	if err != nil {
		return nil, nil, err
	}
	store, err := dataset.NewStore(ctx, db, log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db.Close, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
