package pkg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManouchehrRasoulli/rfsorter/internal"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigRead   = errors.New("failed to read configuration file")
	ErrConfigDecode = errors.New("failed to decode configuration file")
	ErrConfigFormat = errors.New("unsupported configuration file format")
	ErrConfigPath   = errors.New("watch path is required")
)

const defaultBuffer uint = 64

type CategoryConfig struct {
	Name       string   `yaml:"name" toml:"name"`
	Extensions []string `yaml:"extensions" toml:"extensions"`
}

type Config struct {
	Path       string           `yaml:"path" toml:"path"`
	Recursive  bool             `yaml:"recursive" toml:"recursive"`
	Backend    string           `yaml:"backend" toml:"backend"`
	Collision  string           `yaml:"collision" toml:"collision"`
	Buffer     uint             `yaml:"buffer" toml:"buffer"`
	Lock       bool             `yaml:"lock" toml:"lock"`
	Categories []CategoryConfig `yaml:"categories" toml:"categories"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend:   string(internal.BackendAuto),
		Collision: internal.Overwrite.String(),
		Buffer:    defaultBuffer,
	}
}

// ReadConfig loads file on top of the defaults. .toml files are decoded as
// TOML, everything else as YAML.
func ReadConfig(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Join(ErrConfigRead, err)
	}

	c := DefaultConfig()
	switch strings.ToLower(filepath.Ext(file)) {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yml", ".yaml", "":
		err = yaml.Unmarshal(data, c)
	default:
		return nil, errors.Join(ErrConfigFormat, fmt.Errorf("%s", file))
	}
	if err != nil {
		return nil, errors.Join(ErrConfigDecode, err)
	}

	return c, nil
}

func (c *Config) Validate() error {
	if c.Path == "" {
		return ErrConfigPath
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.BackendKind(); err != nil {
		return err
	}
	if _, err := c.CategoryTable(); err != nil {
		return err
	}
	return nil
}

// CategoryTable returns the configured table, or the built-in one when no
// category is configured.
func (c *Config) CategoryTable() (internal.CategoryTable, error) {
	if len(c.Categories) == 0 {
		return internal.DefaultCategoryTable(), nil
	}

	categories := make([]internal.Category, 0, len(c.Categories))
	for _, cc := range c.Categories {
		categories = append(categories, internal.Category{Name: cc.Name, Extensions: cc.Extensions})
	}
	return internal.NewCategoryTable(categories...)
}

func (c *Config) Policy() (internal.CollisionPolicy, error) {
	return internal.ParseCollisionPolicy(c.Collision)
}

func (c *Config) BackendKind() (internal.BackendKind, error) {
	return internal.ParseBackendKind(c.Backend)
}

// Options translates the configuration into watcher options.
func (c *Config) Options() ([]internal.Option, error) {
	table, err := c.CategoryTable()
	if err != nil {
		return nil, err
	}
	policy, err := c.Policy()
	if err != nil {
		return nil, err
	}
	kind, err := c.BackendKind()
	if err != nil {
		return nil, err
	}

	return []internal.Option{
		internal.WithRecursive(c.Recursive),
		internal.WithCategoryTable(table),
		internal.WithCollisionPolicy(policy),
		internal.WithBackendKind(kind),
		internal.WithBufferSize(c.Buffer),
	}, nil
}
