// Package config handles configuration loading.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"fieldmap/internal/aggregate"
	"fieldmap/internal/draw"
	"fieldmap/internal/geom"
	"fieldmap/internal/style"
)

// Config represents the root configuration file structure.
type Config struct {
	Worksite string                 `yaml:"worksite" validate:"required"`
	Store    Store                  `yaml:"store"`
	Sources  []Source               `yaml:"sources" validate:"dive"`
	Styles   map[string]style.Style `yaml:"styles,omitempty" validate:"dive,keys,oneof=Point LineString Polygon Circle,endkeys"`
	Drawing  Drawing                `yaml:"drawing"`
}

type Store struct {
	Driver string `yaml:"driver" validate:"oneof=file postgres"`
	Path   string `yaml:"path" validate:"required_if=Driver file"`
	// DSN may be left empty and taken from DATABASE_URL.
	DSN string `yaml:"dsn,omitempty"`
}

// Source is one record file fed to the aggregator.
type Source struct {
	Name string `yaml:"name" validate:"required"`
	Kind string `yaml:"kind" validate:"oneof=boundary geofence position route"`
	File string `yaml:"file" validate:"required"`
}

type Drawing struct {
	Highlight     time.Duration `yaml:"highlight" validate:"gte=0"`
	DefaultRadius float64       `yaml:"default_radius" validate:"gt=0"`
}

// Default is used when no configuration file exists.
func Default() *Config {
	return &Config{
		Worksite: "default",
		Store:    Store{Driver: "file", Path: "geofences.yaml"},
		Drawing:  Drawing{Highlight: draw.DefaultHighlight, DefaultRadius: draw.DefaultRadius},
	}
}

// Load reads and parses the YAML configuration file from the specified
// path. Relative file paths inside it are resolved against its directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	cfg := Default()
	// the worksite must come from the file
	cfg.Worksite = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", filepath.Base(path))
	}

	dir := filepath.Dir(path)
	cfg.Store.Path = resolve(dir, cfg.Store.Path)
	for i := range cfg.Sources {
		cfg.Sources[i].File = resolve(dir, cfg.Sources[i].File)
	}
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return errors.New("invalid config: postgres store needs a dsn or DATABASE_URL")
	}
	return nil
}

// StyleTable merges the configured overrides onto the built-in table.
func (c *Config) StyleTable() style.Table {
	over := make(style.Table, len(c.Styles))
	for k, v := range c.Styles {
		over[geom.Type(k)] = v
	}
	return style.Defaults().Merge(over)
}

// LoadSources reads every configured source file. A file that cannot be
// read fails the whole load; bad records inside it are left to the
// aggregator.
func (c *Config) LoadSources() ([]aggregate.Source, error) {
	out := make([]aggregate.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		recs, err := aggregate.LoadFile(s.File)
		if err != nil {
			return nil, errors.Wrapf(err, "source %s", s.Name)
		}
		out = append(out, aggregate.Source{Name: s.Name, Kind: aggregate.Kind(s.Kind), Records: recs})
	}
	return out, nil
}
