package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	errs "reqbench/pkg/errors"
	"reqbench/pkg/memprobe"
)

// EnableLevel is the lowest debug level at which profiling is on
const EnableLevel Toggle = 3

// Config holds all configuration options for reqbench
type Config struct {
	// Profiling switches and HTTP integration
	Benchmark BenchmarkConfig `yaml:"benchmark" json:"benchmark"`

	// Demo server
	Server ServerConfig `yaml:"server" json:"server"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BenchmarkConfig holds profiler configuration
type BenchmarkConfig struct {
	Enabled           Toggle   `yaml:"enabled" json:"enabled"`
	BlockedExtensions []string `yaml:"blocked_extensions" json:"blocked_extensions"`
	RoutePrefix       string   `yaml:"route_prefix" json:"route_prefix"`
	MemorySource      string   `yaml:"memory_source" json:"memory_source"`
	// MemoryWarn is a size like "256MiB"; empty turns the warning off.
	// "MB" means 10^6 bytes while reports use 1024-based units, so prefer "MiB".
	MemoryWarn string `yaml:"memory_warn" json:"memory_warn"`
}

// ServerConfig holds the demo server configuration
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// MetricsPath is where Prometheus metrics are served; empty disables them
	MetricsPath string `yaml:"metrics_path" json:"metrics_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// Toggle turns profiling on or off. In YAML and in the environment it is
// either a bool or a debug level; levels from EnableLevel up are on.
type Toggle int

// ParseToggle parses a bool or a non-negative level
func ParseToggle(s string) (Toggle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "true", "yes", "on":
		return EnableLevel, nil
	case "false", "no", "off", "":
		return 0, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid toggle %q: want a bool or a level", s)
	}
	return Toggle(n), nil
}

// On reports whether the toggle enables profiling
func (t Toggle) On() bool {
	return t >= EnableLevel
}

func (t *Toggle) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: enabled must be a bool or a level", value.Line)
	}
	parsed, err := ParseToggle(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*t = parsed
	return nil
}

func (t Toggle) MarshalYAML() (interface{}, error) {
	return int(t), nil
}

// IsEnabled reports whether profiling is on
func (b BenchmarkConfig) IsEnabled() bool {
	return b.Enabled.On()
}

// MemoryWarnBytes returns the memory warning threshold in bytes, 0 when unset
func (b BenchmarkConfig) MemoryWarnBytes() (uint64, error) {
	if strings.TrimSpace(b.MemoryWarn) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(b.MemoryWarn)
	if err != nil {
		return 0, fmt.Errorf("invalid memory_warn %q: %w", b.MemoryWarn, err)
	}
	return n, nil
}

// BlockedExtensionSet returns the blocked extensions lowercased and without a leading dot
func (b BenchmarkConfig) BlockedExtensionSet() map[string]bool {
	set := make(map[string]bool, len(b.BlockedExtensions))
	for _, ext := range b.BlockedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Benchmark: BenchmarkConfig{
			Enabled:           EnableLevel,
			BlockedExtensions: []string{"css", "js"},
			RoutePrefix:       "/benchmark",
			MemorySource:      memprobe.SourceRusage,
			MemoryWarn:        "256MiB",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MetricsPath: "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "",
		},
	}
}

// LoadFromEnv loads configuration from REQBENCH_* environment variables
func (c *Config) LoadFromEnv() error {
	if enabled, ok := os.LookupEnv("REQBENCH_ENABLED"); ok {
		t, err := ParseToggle(enabled)
		if err != nil {
			return fmt.Errorf("REQBENCH_ENABLED: %w", err)
		}
		c.Benchmark.Enabled = t
	}

	if blocked, ok := os.LookupEnv("REQBENCH_BLOCKED_EXTENSIONS"); ok {
		c.Benchmark.BlockedExtensions = splitList(blocked)
	}
	if prefix := os.Getenv("REQBENCH_ROUTE_PREFIX"); prefix != "" {
		c.Benchmark.RoutePrefix = prefix
	}
	if source := os.Getenv("REQBENCH_MEMORY_SOURCE"); source != "" {
		c.Benchmark.MemorySource = source
	}
	if warn, ok := os.LookupEnv("REQBENCH_MEMORY_WARN"); ok {
		c.Benchmark.MemoryWarn = warn
	}

	if addr := os.Getenv("REQBENCH_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if metricsPath, ok := os.LookupEnv("REQBENCH_METRICS_PATH"); ok {
		c.Server.MetricsPath = metricsPath
	}

	if logLevel := os.Getenv("REQBENCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat := os.Getenv("REQBENCH_LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}
	if logFile := os.Getenv("REQBENCH_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".reqbench.yaml",
		".reqbench.yml",
		filepath.Join(home, ".config", "reqbench", "config.yaml"),
		filepath.Join(home, ".config", "reqbench", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var problems []error

	prefix := c.Benchmark.RoutePrefix
	if !strings.HasPrefix(prefix, "/") || (len(prefix) > 1 && strings.HasSuffix(prefix, "/")) {
		problems = append(problems, fmt.Errorf("route prefix %q must start with / and not end with one", prefix))
	}

	switch c.Benchmark.MemorySource {
	case memprobe.SourceRusage, memprobe.SourceRuntime:
	default:
		problems = append(problems, fmt.Errorf("invalid memory source %q", c.Benchmark.MemorySource))
	}

	if _, err := c.Benchmark.MemoryWarnBytes(); err != nil {
		problems = append(problems, err)
	}

	for _, ext := range c.Benchmark.BlockedExtensions {
		if strings.ContainsAny(ext, "/ ") {
			problems = append(problems, fmt.Errorf("invalid blocked extension %q", ext))
		}
	}

	if c.Server.Addr == "" {
		problems = append(problems, errors.New("server address is required"))
	}
	if c.Server.MetricsPath != "" && !strings.HasPrefix(c.Server.MetricsPath, "/") {
		problems = append(problems, fmt.Errorf("metrics path %q must start with /", c.Server.MetricsPath))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		problems = append(problems, errors.New("invalid log level"))
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		problems = append(problems, errors.New("invalid log format"))
	}

	if len(problems) > 0 {
		return errors.Join(problems...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if enabled, ok := flags["enabled"].(bool); ok {
		if enabled {
			c.Benchmark.Enabled = EnableLevel
		} else {
			c.Benchmark.Enabled = 0
		}
	}
	if source, ok := flags["memory-source"].(string); ok && source != "" {
		c.Benchmark.MemorySource = source
	}
	if addr, ok := flags["addr"].(string); ok && addr != "" {
		c.Server.Addr = addr
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat, ok := flags["log-format"].(string); ok && logFormat != "" {
		c.Logging.Format = logFormat
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".reqbench.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, "failed to load config file", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, "failed to load environment variables", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, "configuration validation failed", err)
	}

	return config, nil
}
