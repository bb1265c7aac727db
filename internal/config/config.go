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

// Config holds the answerhub service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
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

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding gateway settings.
type EmbeddingConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	Dimensions   int    `yaml:"dimensions"`
	CacheTTLSec  int    `yaml:"cache_ttl_sec"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	CacheEnabled *bool  `yaml:"cache_enabled"` // default true
}

// PipelineConfig holds retrieval pipeline tuning parameters.
type PipelineConfig struct {
	SearchLimit        int      `yaml:"search_limit"`
	SearchThreshold    float64  `yaml:"search_threshold"`
	WidenedThreshold   float64  `yaml:"widened_threshold"`
	WidenedMultiplier  int      `yaml:"widened_multiplier"`
	GraphMaxDepth      int      `yaml:"graph_max_depth"`
	GraphMinEdgeWeight float64  `yaml:"graph_min_edge_weight"`
	GraphTimeoutSec    int      `yaml:"graph_timeout_sec"`
	VectorTimeoutSec   int      `yaml:"vector_timeout_sec"`
	MinInternalSources int      `yaml:"min_internal_sources"`
	PrivilegedRoles    []string `yaml:"privileged_roles"`
	RestrictedTypes    []string `yaml:"restricted_categories"`
	DomainKeywords     []string `yaml:"domain_keywords"`
}

// CoordinatorConfig holds the external routing service settings.
type CoordinatorConfig struct {
	Target          string `yaml:"target"` // host:port of the Coordinator gRPC endpoint
	ServiceIdentity string `yaml:"service_identity"`
	SigningKeyFile  string `yaml:"signing_key_file"`
	SigningKey      string `yaml:"signing_key"` // base64 seed, overrides the file when set
	TimeoutSec      int    `yaml:"timeout_sec"`
	SyncPageLimit   int    `yaml:"sync_page_limit"`
	MaxSyncPages    int    `yaml:"max_sync_pages"`
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "ah:"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 3600
	}
	if c.Pipeline.SearchLimit <= 0 {
		c.Pipeline.SearchLimit = 5
	}
	if c.Pipeline.SearchThreshold <= 0 {
		c.Pipeline.SearchThreshold = 0.25
	}
	if c.Pipeline.WidenedThreshold <= 0 {
		c.Pipeline.WidenedThreshold = 0.1
	}
	if c.Pipeline.WidenedMultiplier <= 0 {
		c.Pipeline.WidenedMultiplier = 3
	}
	if c.Pipeline.GraphMaxDepth <= 0 {
		c.Pipeline.GraphMaxDepth = 2
	}
	if c.Pipeline.GraphMinEdgeWeight <= 0 {
		c.Pipeline.GraphMinEdgeWeight = 0.1
	}
	if c.Pipeline.GraphTimeoutSec <= 0 {
		c.Pipeline.GraphTimeoutSec = 5
	}
	if c.Pipeline.VectorTimeoutSec <= 0 {
		c.Pipeline.VectorTimeoutSec = 5
	}
	if c.Pipeline.MinInternalSources <= 0 {
		c.Pipeline.MinInternalSources = 1
	}
	if len(c.Pipeline.PrivilegedRoles) == 0 {
		c.Pipeline.PrivilegedRoles = []string{"admin", "instructor"}
	}
	if len(c.Pipeline.RestrictedTypes) == 0 {
		c.Pipeline.RestrictedTypes = []string{"profile", "personal"}
	}
	if c.Coordinator.ServiceIdentity == "" {
		c.Coordinator.ServiceIdentity = "answerhub"
	}
	if c.Coordinator.TimeoutSec <= 0 {
		c.Coordinator.TimeoutSec = 30
	}
	if c.Coordinator.SyncPageLimit <= 0 {
		c.Coordinator.SyncPageLimit = 100
	}
	if c.Coordinator.MaxSyncPages <= 0 {
		c.Coordinator.MaxSyncPages = 50
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
	if c.Pipeline.SearchThreshold > 1 {
		return fmt.Errorf("pipeline.search_threshold must be at most 1, got %g", c.Pipeline.SearchThreshold)
	}
	if c.Pipeline.WidenedThreshold > c.Pipeline.SearchThreshold {
		return fmt.Errorf(
			"pipeline.widened_threshold (%g) must not exceed pipeline.search_threshold (%g)",
			c.Pipeline.WidenedThreshold, c.Pipeline.SearchThreshold,
		)
	}
	return nil
}

// CacheOn reports whether the embedding cache is enabled (default true).
func (e *EmbeddingConfig) CacheOn() bool {
	return e.CacheEnabled == nil || *e.CacheEnabled
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
