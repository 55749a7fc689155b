package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Limetric/waffles"
)

var (
	configPath string
	envFile    string
	logLevel   string

	renderColor bool
	dropTables  []string
	insertTable string
	insertSets  []string
	insertJSON  bool
	seedTableN  string
	seedRows    int
)

var rootCmd = &cobra.Command{
	Use:           "waffles",
	Short:         "Declare PostgreSQL tables in TOML and manage them",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var applyCmd = &cobra.Command{
	Use:   "apply [schema.toml]",
	Short: "Create every declared table, running hooks around it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runApply,
}

var renderCmd = &cobra.Command{
	Use:   "render [schema.toml]",
	Short: "Print the DDL for every declared table without connecting",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRender,
}

var dropCmd = &cobra.Command{
	Use:   "drop [schema.toml]",
	Short: "Drop declared tables (all of them unless --table is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDrop,
}

var insertCmd = &cobra.Command{
	Use:   "insert [schema.toml]",
	Short: "Insert one row and print what the server returned",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInsert,
}

var seedCmd = &cobra.Command{
	Use:   "seed [schema.toml]",
	Short: "Insert generated rows into a table",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSeed,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to schema TOML file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load before reading the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to $WAFFLES_LOG_LEVEL or info")

	renderCmd.Flags().BoolVar(&renderColor, "color", false, "syntax-highlight the output")
	dropCmd.Flags().StringSliceVar(&dropTables, "table", nil, "table to drop (repeatable)")
	insertCmd.Flags().StringVar(&insertTable, "table", "", "table to insert into")
	insertCmd.Flags().StringArrayVar(&insertSets, "set", nil, "column=value assignment (repeatable)")
	insertCmd.Flags().BoolVar(&insertJSON, "json", false, "print the returned row as JSON")
	seedCmd.Flags().StringVar(&seedTableN, "table", "", "table to seed")
	seedCmd.Flags().IntVar(&seedRows, "rows", 10, "number of rows to insert")

	rootCmd.AddCommand(applyCmd, renderCmd, dropCmd, insertCmd, seedCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// prepare sets up logging and the environment and loads the schema file.
// A positional argument takes precedence over --config.
func prepare(args []string) (*SchemaConfig, *logrus.Logger, error) {
	logger := setupLogging(logLevel, os.Stderr)
	loadEnvFile(envFile, logger)

	cfgPath := configPath
	if len(args) > 0 {
		cfgPath = args[0]
	}
	if cfgPath == "" {
		return nil, nil, fmt.Errorf("schema file required: waffles <command> <schema.toml> or --config <schema.toml>")
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// connect opens the executor selected by database.driver. The returned
// function releases it.
func connect(ctx context.Context, cfg *SchemaConfig, logger logrus.FieldLogger) (waffles.Executor, func(), error) {
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("database.url is required (or set DATABASE_URL)")
	}

	logger.WithField("driver", cfg.Database.Driver).Info("connecting to database")
	switch cfg.Database.Driver {
	case "sql":
		exec, err := waffles.OpenSQL(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return exec, func() { exec.Close() }, nil
	default:
		exec, err := waffles.ConnectPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return exec, exec.Close, nil
	}
}

// createTables registers every declared table, issuing CREATE TABLE for each.
func createTables(ctx context.Context, db *waffles.Database, cfg *SchemaConfig) error {
	for _, t := range cfg.Tables {
		cols, err := t.buildColumns()
		if err != nil {
			return err
		}
		if _, err := db.CreateTable(ctx, t.Name, cols, waffles.WithExistsOK(cfg.ExistsOK)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

// ensureTable registers a single declared table. CREATE TABLE IF NOT EXISTS
// is always used, so existing tables are left alone.
func ensureTable(ctx context.Context, db *waffles.Database, cfg *SchemaConfig, name string) (*waffles.Table, error) {
	if name == "" {
		return nil, fmt.Errorf("--table is required")
	}
	tc, err := cfg.table(name)
	if err != nil {
		return nil, err
	}
	cols, err := tc.buildColumns()
	if err != nil {
		return nil, err
	}
	return db.CreateTable(ctx, tc.Name, cols, waffles.WithExistsOK(true))
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, logger, err := prepare(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	start := time.Now()

	exec, release, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	if err := runHooks(ctx, exec, cfg, cfg.Hooks.BeforeCreate, "before_create", logger); err != nil {
		return err
	}

	db := waffles.New(exec, waffles.WithLogger(logger))
	logger.Infof("creating %d tables", len(cfg.Tables))
	if err := createTables(ctx, db, cfg); err != nil {
		return err
	}

	if err := runHooks(ctx, exec, cfg, cfg.Hooks.AfterCreate, "after_create", logger); err != nil {
		return err
	}

	logger.Infof("done: %s in %s", db, time.Since(start).Round(time.Millisecond))
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, logger, err := prepare(args)
	if err != nil {
		return err
	}
	return renderSchema(cmd.OutOrStdout(), cfg, renderColor, logger)
}

func runDrop(cmd *cobra.Command, args []string) error {
	cfg, logger, err := prepare(args)
	if err != nil {
		return err
	}

	names := dropTables
	if len(names) == 0 {
		// reverse declaration order
		for i := len(cfg.Tables) - 1; i >= 0; i-- {
			names = append(names, cfg.Tables[i].Name)
		}
	}
	for _, name := range names {
		if _, err := cfg.table(name); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	exec, release, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	for _, name := range names {
		if err := exec.Execute(ctx, waffles.RenderDropTable(name, cfg.ExistsOK)); err != nil {
			return fmt.Errorf("drop table %s: %w", name, err)
		}
		logger.WithField("table", name).Info("dropped")
	}
	return nil
}

func runInsert(cmd *cobra.Command, args []string) error {
	cfg, logger, err := prepare(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	exec, release, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	db := waffles.New(exec, waffles.WithLogger(logger))
	table, err := ensureTable(ctx, db, cfg, insertTable)
	if err != nil {
		return err
	}

	values, err := parseAssignments(table, insertSets)
	if err != nil {
		return err
	}
	row, err := table.Add(ctx, values)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if insertJSON {
		return json.NewEncoder(out).Encode(row.Map())
	}
	_, err = fmt.Fprintln(out, row)
	return err
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, logger, err := prepare(args)
	if err != nil {
		return err
	}
	if seedRows < 1 {
		return fmt.Errorf("--rows must be at least 1")
	}

	ctx := cmd.Context()
	exec, release, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	db := waffles.New(exec, waffles.WithLogger(logger))
	table, err := ensureTable(ctx, db, cfg, seedTableN)
	if err != nil {
		return err
	}
	return seedTable(ctx, table, seedRows, logger)
}

// parseAssignments turns column=value flags into Values, parsing each value
// according to the column type. JSON columns take a JSON document and the
// literal NULL sets a nullable column to NULL.
func parseAssignments(table *waffles.Table, sets []string) (waffles.Values, error) {
	var vs waffles.Values
	for _, set := range sets {
		name, raw, ok := strings.Cut(set, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected column=value", set)
		}
		col, ok := table.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", waffles.ErrUnknownColumn, table.Name(), name)
		}

		if raw == "NULL" && col.Nullable() {
			vs = vs.Set(name, nil)
			continue
		}

		switch col.Type().(type) {
		case waffles.Integer:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", name, err)
			}
			vs = vs.Set(name, n)
		case waffles.JSON:
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return nil, fmt.Errorf("column %s: %w", name, err)
			}
			vs = vs.Set(name, v)
		default:
			vs = vs.Set(name, raw)
		}
	}
	return vs, nil
}
