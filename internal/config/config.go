package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sigs.k8s.io/yaml"
)

// Defaults applied when neither file, environment nor flags say otherwise.
const (
	DefaultWorkers  = 4
	DefaultKeyField = "sequence"
	DefaultLogLevel = "info"
)

// Environment variable names for configuration overrides
const (
	EnvWorkers     = "SEQFLOW_WORKERS"
	EnvItemTimeout = "SEQFLOW_ITEM_TIMEOUT"
	EnvKeyField    = "SEQFLOW_KEY_FIELD"
	EnvLogLevel    = "SEQFLOW_LOG_LEVEL"
	EnvAuditLog    = "SEQFLOW_AUDIT_LOG"
)

// Config is read once per run and never changed afterwards.
type Config struct {
	Workers int `json:"workers"`
	// ItemTimeout is a Go duration string ("30s", "2m"); empty means none.
	ItemTimeout string `json:"item_timeout"`
	KeyField    string `json:"key_field"`
	// Delimiter of the input file: "tab", "comma" or a single character.
	// Empty means guess from the file extension.
	Delimiter string  `json:"delimiter"`
	LogLevel  string  `json:"log_level"`
	AuditLog  string  `json:"audit_log"`
	Command   Command `json:"command"`
}

// Command configures the external-program processor.
type Command struct {
	Path    string   `json:"path"`
	Args    []string `json:"args"`
	Outputs []string `json:"outputs"`
}

// Default returns a Config holding only defaults.
func Default() *Config {
	return &Config{
		Workers:  DefaultWorkers,
		KeyField: DefaultKeyField,
		LogLevel: DefaultLogLevel,
	}
}

// Load reads a YAML (or JSON) config file over the defaults. Unknown fields
// are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SEQFLOW_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvItemTimeout); v != "" {
		c.ItemTimeout = v
	}
	if v := os.Getenv(EnvKeyField); v != "" {
		c.KeyField = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvAuditLog); v != "" {
		c.AuditLog = v
	}
	return nil
}

// Timeout parses ItemTimeout.
func (c *Config) Timeout() (time.Duration, error) {
	if strings.TrimSpace(c.ItemTimeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.ItemTimeout)
	if err != nil {
		return 0, fmt.Errorf("item_timeout: %w", err)
	}
	return d, nil
}

// Delim resolves Delimiter; zero means guess from the file name.
func (c *Config) Delim() (rune, error) {
	switch strings.ToLower(c.Delimiter) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	}
	r := []rune(c.Delimiter)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter %q: want tab, comma or one character", c.Delimiter)
	}
	return r[0], nil
}

// Validate checks that c can drive a run.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}
	if strings.TrimSpace(c.KeyField) == "" {
		errs = append(errs, errors.New("key_field is required"))
	}
	if d, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("item_timeout must not be negative, got %s", d))
	}
	if _, err := c.Delim(); err != nil {
		errs = append(errs, err)
	}
	if c.Command.Path != "" && len(c.Command.Outputs) == 0 {
		errs = append(errs, errors.New("command.outputs is required when command.path is set"))
	}
	return errors.Join(errs...)
}
