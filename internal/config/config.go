package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DefaultDSN is the reference database shipped next to the binary.
const DefaultDSN = "./data/GroupConfig.db"

var validate = validator.New()

// Config holds all runtime configuration for a drgref run.
type Config struct {
	Driver          string `yaml:"driver" validate:"oneof=sqlite postgres mysql"`
	DSN             string `yaml:"dsn" validate:"required"`
	LogFormat       string `yaml:"log_format" validate:"oneof=text json auto"` // "text", "json" or "auto"
	LogFile         string `yaml:"log_file"`
	MaxConns        int    `yaml:"max_conns" validate:"gte=0,lte=64"`
	Concurrency     int    `yaml:"concurrency" validate:"gte=1,lte=16"` // dependent queries in flight per selection
	MinSearchLength int    `yaml:"min_search_length" validate:"gte=1,lte=20"`
	Listen          string `yaml:"listen" validate:"required"`
}

// Default returns the configuration used when no file or flag overrides it.
func Default() Config {
	return Config{
		Driver:          DriverSQLite,
		DSN:             DefaultDSN,
		LogFormat:       "auto",
		MaxConns:        4,
		Concurrency:     4,
		MinSearchLength: 3,
		Listen:          ":8080",
	}
}

// EnvDSN overrides the dsn of the config file.
const EnvDSN = "DRGREF_DSN"

// Load layers the defaults, the config file at path (if any) and the
// environment. The result is not validated: flags may still override it.
func Load(path string, getenv func(string) string) (Config, error) {
	c := Default()
	if path != "" {
		if err := c.LoadFromFile(path); err != nil {
			return c, err
		}
	}
	if dsn := getenv(EnvDSN); dsn != "" {
		c.DSN = dsn
	}
	return c, nil
}

// LoadFromFile reads a YAML config file and merges the keys it sets into c.
// Unknown keys are rejected. Values are checked later, by Validate.
func (c *Config) LoadFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate checks every field and returns an error naming the first bad one.
func (c *Config) Validate() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s=%v fails %q", fe.Field(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Driver == DriverSQLite && strings.Contains(c.DSN, "://") {
		return fmt.Errorf("invalid config: sqlite dsn must be a file path, got %q", c.DSN)
	}
	if c.Driver == DriverPostgres && !strings.HasPrefix(c.DSN, "postgres://") && !strings.HasPrefix(c.DSN, "postgresql://") {
		return fmt.Errorf("invalid config: postgres dsn must be a postgres:// URL")
	}
	return nil
}
