package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Limetric/waffles"
)

// SchemaConfig holds the TOML-driven database and table declarations.
type SchemaConfig struct {
	ExistsOK bool           `toml:"exists_ok"`
	Database DatabaseConfig `toml:"database"`
	Hooks    HooksConfig    `toml:"hooks"`
	Tables   []TableConfig  `toml:"tables"`

	// configDir is the directory containing the TOML file, used to resolve relative SQL paths.
	configDir string
}

// DatabaseConfig identifies the target database and the executor used to reach it.
type DatabaseConfig struct {
	URL    string `toml:"url"`
	Driver string `toml:"driver"` // "pgx" or "sql"
}

type HooksConfig struct {
	BeforeCreate []string `toml:"before_create"`
	AfterCreate  []string `toml:"after_create"`
}

type TableConfig struct {
	Name    string         `toml:"name"`
	Columns []ColumnConfig `toml:"columns"`
}

// ColumnConfig declares one column. Type selects the SQL type; the remaining
// type fields only apply to the matching type.
type ColumnConfig struct {
	Name string `toml:"name"`
	Type string `toml:"type"` // integer|string|json

	Big           bool `toml:"big"`
	Small         bool `toml:"small"`
	AutoIncrement bool `toml:"auto_increment"`

	Length int  `toml:"length"`
	Fixed  bool `toml:"fixed"`

	Index      bool `toml:"index"`
	PrimaryKey bool `toml:"primary_key"`
	Nullable   bool `toml:"nullable"`
	Unique     bool `toml:"unique"`
	Default    any  `toml:"default"`
}

// loadConfig reads a TOML schema file and returns a SchemaConfig with defaults applied.
func loadConfig(path string) (*SchemaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := SchemaConfig{
		ExistsOK: true,
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.configDir = filepath.Dir(absPath)

	cfg.Database.URL = strings.TrimSpace(cfg.Database.URL)
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = defaultDriver(cfg.Database.URL)
	}
	switch cfg.Database.Driver {
	case "pgx", "sql":
	default:
		return nil, fmt.Errorf("database.driver must be one of: pgx, sql")
	}

	if len(cfg.Tables) == 0 {
		return nil, fmt.Errorf("at least one [[tables]] entry is required")
	}
	seen := make(map[string]bool, len(cfg.Tables))
	for _, t := range cfg.Tables {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("tables: name is required")
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("table %q declared more than once", t.Name)
		}
		seen[t.Name] = true
		if _, err := t.buildColumns(); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// defaultDriver picks database/sql for SQLite URLs and pgx otherwise.
func defaultDriver(url string) string {
	for _, prefix := range []string{"sqlite:", "sqlite3:", "file:", "sq:"} {
		if strings.HasPrefix(url, prefix) {
			return "sql"
		}
	}
	return "pgx"
}

// resolvePath resolves a path relative to the config file directory.
func (c *SchemaConfig) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.configDir, p)
}

// table returns the declaration of the named table.
func (c *SchemaConfig) table(name string) (TableConfig, error) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, nil
		}
	}
	return TableConfig{}, fmt.Errorf("table %q is not declared in the config", name)
}

func (t TableConfig) buildColumns() ([]*waffles.Column, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("table %s: at least one column is required", t.Name)
	}
	cols := make([]*waffles.Column, 0, len(t.Columns))
	for _, cc := range t.Columns {
		col, err := cc.build()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func (cc ColumnConfig) build() (*waffles.Column, error) {
	typ, err := cc.sqlType()
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", cc.Name, err)
	}

	var opts []waffles.ColumnOption
	if cc.Index {
		opts = append(opts, waffles.WithIndex())
	}
	if cc.PrimaryKey {
		opts = append(opts, waffles.WithPrimaryKey())
	}
	if cc.Nullable {
		opts = append(opts, waffles.WithNullable())
	}
	if cc.Unique {
		opts = append(opts, waffles.WithUnique())
	}
	if cc.Default != nil {
		switch cc.Default.(type) {
		case []any, map[string]any:
			if _, isJSON := typ.(waffles.JSON); !isJSON {
				return nil, fmt.Errorf("%w: column %s: array and table defaults are only allowed on json columns",
					waffles.ErrSchemaDefinition, cc.Name)
			}
		}
		opts = append(opts, waffles.WithDefault(cc.Default))
	}
	return waffles.NewColumn(cc.Name, typ, opts...)
}

func (cc ColumnConfig) sqlType() (waffles.SQLType, error) {
	switch strings.ToLower(cc.Type) {
	case "integer", "int":
		if cc.Length != 0 || cc.Fixed {
			return nil, fmt.Errorf("%w: length/fixed only apply to string columns", waffles.ErrSchemaDefinition)
		}
		return waffles.NewInteger(cc.Big, cc.Small, cc.AutoIncrement)
	case "string", "text":
		if cc.Big || cc.Small || cc.AutoIncrement {
			return nil, fmt.Errorf("%w: big/small/auto_increment only apply to integer columns", waffles.ErrSchemaDefinition)
		}
		return waffles.NewString(cc.Length, cc.Fixed)
	case "json", "jsonb":
		return waffles.JSON{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %q (must be integer, string or json)", waffles.ErrInvalidColumnType, cc.Type)
	}
}
