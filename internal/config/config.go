package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/relmap/internal/querysql"
)

//go:embed schema.cue
var schemaSource string

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "RELMAP_"

var (
	// ErrUnknownDriver is returned for a driver no dialect exists for.
	ErrUnknownDriver = errors.New("unknown driver")

	// ErrUnknownFormat is returned for config files that are neither YAML
	// nor CUE.
	ErrUnknownFormat = errors.New("unknown config format")
)

// Config holds the settings of a relmap process.
type Config struct {
	// Driver is a database/sql driver name or one of its aliases
	// (sqlite, postgres, postgresql).
	Driver string `yaml:"driver" json:"driver"`

	// DSN is the data source name handed to the driver.
	DSN string `yaml:"dsn" json:"dsn"`

	// Recreate drops and recreates every relation at startup.
	Recreate bool `yaml:"recreate" json:"recreate"`

	// StatementCache bounds the prepared statement cache. 0 disables it.
	StatementCache int `yaml:"statement_cache" json:"statement_cache"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Default returns the built-in settings: a local SQLite file.
func Default() Config {
	return Config{
		Driver:         string(querysql.SQLite),
		DSN:            "relmap.db",
		StatementCache: 64,
		LogLevel:       "info",
	}
}

// Load reads path on top of the defaults, then applies the environment.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile reads a YAML (.yaml, .yml) or CUE (.cue) file. Settings the
// file leaves out keep their defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".cue":
		return parseCUE(path, data)
	default:
		return Default(), fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func parseYAML(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse yaml config: %w", err)
	}
	return cfg, nil
}

// parseCUE unifies the file with #Config, so unknown fields and values
// outside the schema are rejected and defaults come from the schema.
func parseCUE(path string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Default(), fmt.Errorf("compile config schema: %w", err)
	}
	file := ctx.CompileBytes(data, cue.Filename(path))
	if err := file.Err(); err != nil {
		return Default(), fmt.Errorf("parse cue config: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(file)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Default(), fmt.Errorf("validate cue config: %w", err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Default(), fmt.Errorf("decode cue config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from RELMAP_DRIVER, RELMAP_DSN,
// RELMAP_RECREATE, RELMAP_STATEMENT_CACHE and RELMAP_LOG_LEVEL.
// Blank variables are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("DRIVER"); ok {
		c.Driver = v
	}
	if v, ok := get("DSN"); ok {
		c.DSN = v
	}
	if v, ok := get("RECREATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sRECREATE: %w", EnvPrefix, err)
		}
		c.Recreate = b
	}
	if v, ok := get("STATEMENT_CACHE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sSTATEMENT_CACHE: %w", EnvPrefix, err)
		}
		c.StatementCache = n
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Dialect(); err != nil {
		errs = append(errs, err)
	}
	if c.DSN == "" {
		errs = append(errs, errors.New("dsn is required"))
	}
	if c.StatementCache < 0 {
		errs = append(errs, fmt.Errorf("statement_cache must not be negative, got %d", c.StatementCache))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Dialect resolves the driver name.
func (c Config) Dialect() (querysql.Dialect, error) {
	d, err := querysql.DialectFor(c.Driver)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
	return d, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
