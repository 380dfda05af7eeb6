package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the dirsearch API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Schema   SchemaConfig   `yaml:"schema"`
	Import   ImportConfig   `yaml:"import"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Tool     ToolConfig     `yaml:"tool"`
	MCP      MCPConfig      `yaml:"mcp"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SchemaConfig holds schema registry settings.
type SchemaConfig struct {
	Path string `yaml:"path"`
}

// ImportConfig holds importer safeguards.
type ImportConfig struct {
	MinRows int `yaml:"min_rows"`
}

// SearchConfig holds search limits.
type SearchConfig struct {
	DefaultMaxResults int `yaml:"default_max_results"`
	MaxScan           int `yaml:"max_scan"`
}

// ToolConfig holds the search tool adapter settings.
type ToolConfig struct {
	Mode       string         `yaml:"mode"` // fts, substring, exact (default: fts)
	MaxResults int            `yaml:"max_results"`
	Callers    []CallerConfig `yaml:"callers"`
}

// CallerConfig declares one tool caller and its list allow-list.
type CallerConfig struct {
	Name   string   `yaml:"name"`
	Tenant string   `yaml:"tenant"`
	Lists  []string `yaml:"lists"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Caller    string `yaml:"caller"`     // name of the tool caller the MCP server acts as
	EntryType string `yaml:"entry_type"` // schema whose guidance goes into the tool description
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Schema.Path == "" {
		c.Schema.Path = "schemas/directory.yaml"
	}
	if c.Import.MinRows <= 0 {
		c.Import.MinRows = 1
	}
	if c.Search.DefaultMaxResults <= 0 {
		c.Search.DefaultMaxResults = 10
	}
	if c.Search.MaxScan <= 0 {
		c.Search.MaxScan = 1000
	}
	if c.Tool.Mode == "" {
		c.Tool.Mode = "fts"
	}
	if c.Tool.MaxResults <= 0 {
		c.Tool.MaxResults = c.Search.DefaultMaxResults
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Tool.Mode {
	case "fts", "substring", "exact":
		// ok
	default:
		return fmt.Errorf("tool.mode must be \"fts\", \"substring\" or \"exact\", got %q", c.Tool.Mode)
	}
	seen := map[string]bool{}
	for i, caller := range c.Tool.Callers {
		if caller.Name == "" {
			return fmt.Errorf("tool.callers[%d].name is required", i)
		}
		if caller.Tenant == "" {
			return fmt.Errorf("tool.callers[%d].tenant is required", i)
		}
		if seen[caller.Name] {
			return fmt.Errorf("tool.callers has duplicate name %q", caller.Name)
		}
		seen[caller.Name] = true
	}
	if c.MCP.Enabled && c.MCP.Caller == "" {
		return fmt.Errorf("mcp.caller is required when mcp is enabled")
	}
	return nil
}

// Caller returns the configured tool caller by name.
func (c *Config) Caller(name string) (CallerConfig, bool) {
	for _, caller := range c.Tool.Callers {
		if caller.Name == name {
			return caller, true
		}
	}
	return CallerConfig{}, false
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
