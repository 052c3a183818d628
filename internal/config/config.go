package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/celearn/internal/domain/heuristic"
	"github.com/kailas-cloud/celearn/internal/usecase/learner"
)

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverNone   = "none"
)

// Config holds the celearn server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Learner   LearnerConfig   `yaml:"learner"`
	Partition PartitionConfig `yaml:"partition"`
	KB        KBConfig        `yaml:"kb"`
	Logging   LoggingConfig   `yaml:"logging"`
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
	Driver           string   `yaml:"driver"` // redis, valkey, none (default: none)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	ResultTTLSec     int      `yaml:"result_ttl_sec"` // 0 = keep forever
}

// LearnerConfig holds the search defaults for every run.
type LearnerConfig struct {
	TimeBudgetSec         float64 `yaml:"time_budget_sec"`
	NoisePercentage       float64 `yaml:"noise_percentage"`
	StopOnFirstDefinition bool    `yaml:"stop_on_first_definition"`
	MaxResults            int     `yaml:"max_results"`
	MaxExpansions         int     `yaml:"max_expansions"` // 0 = unlimited
	Heuristic             string  `yaml:"heuristic"`      // coverage, negatives
	MaxRoleDepth          int     `yaml:"max_role_depth"`
}

// PartitionConfig holds the partitioned search defaults.
type PartitionConfig struct {
	Workers            int `yaml:"workers"`
	UncoveredAllowance int `yaml:"uncovered_allowance"`
}

// KBConfig locates the knowledge base.
type KBConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (Config, error) {
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
	if c.Database.Driver == "" {
		c.Database.Driver = DriverNone
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	defaults := learner.DefaultConfig()
	if c.Learner.TimeBudgetSec == 0 {
		c.Learner.TimeBudgetSec = defaults.TimeBudget.Seconds()
	}
	if c.Learner.MaxResults == 0 {
		c.Learner.MaxResults = defaults.Capacity
	}
	if c.Learner.Heuristic == "" {
		c.Learner.Heuristic = heuristic.NameCoverage
	}
	if c.Learner.MaxRoleDepth <= 0 {
		c.Learner.MaxRoleDepth = 2
	}
	if c.Partition.Workers <= 0 {
		c.Partition.Workers = runtime.GOMAXPROCS(0)
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverNone:
	default:
		return fmt.Errorf("database.driver must be %q, %q or %q, got %q",
			DriverRedis, DriverValkey, DriverNone, c.Database.Driver)
	}
	if c.Database.ResultTTLSec < 0 {
		return fmt.Errorf("database.result_ttl_sec must not be negative, got %d", c.Database.ResultTTLSec)
	}
	if err := c.Learner.Engine().Validate(); err != nil {
		return fmt.Errorf("learner: %w", err)
	}
	if _, err := heuristic.ByName(c.Learner.Heuristic); err != nil {
		return fmt.Errorf("learner.heuristic: %w", err)
	}
	if c.Partition.UncoveredAllowance < 0 {
		return fmt.Errorf("partition.uncovered_allowance must not be negative, got %d", c.Partition.UncoveredAllowance)
	}
	if c.KB.Path == "" {
		return fmt.Errorf("kb.path is required")
	}
	return nil
}

// Engine converts the learner section into engine parameters.
func (l LearnerConfig) Engine() learner.Config {
	return learner.Config{
		TimeBudget:            time.Duration(l.TimeBudgetSec * float64(time.Second)),
		NoisePercentage:       l.NoisePercentage,
		StopOnFirstDefinition: l.StopOnFirstDefinition,
		Capacity:              l.MaxResults,
		MaxExpansions:         l.MaxExpansions,
	}
}

// ResultTTL returns how long run results are kept.
func (d DatabaseConfig) ResultTTL() time.Duration {
	return time.Duration(d.ResultTTLSec) * time.Second
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
