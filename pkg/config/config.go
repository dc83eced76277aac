package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverMemory = "memory"
)

type Config struct {
	General   GeneralConfig   `toml:"general"`
	API       APIConfig       `toml:"api"`
	Gateway   GatewayConfig   `toml:"gateway"`
	Store     StoreConfig     `toml:"store"`
	Cache     CacheConfig     `toml:"cache"`
	Hardware  HardwareConfig  `toml:"hardware"`
	Recommend RecommendConfig `toml:"recommend"`
	Security  SecurityConfig  `toml:"security"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Logging   LoggingConfig   `toml:"logging"`
}

type GeneralConfig struct {
	DataDir string `toml:"data_dir"`
}

type APIConfig struct {
	ListenAddr string `toml:"listen_addr"`
	EnableCORS bool   `toml:"enable_cors"`
}

type GatewayConfig struct {
	RequestTimeout  string        `toml:"request_timeout"`
	RequestTimeoutD time.Duration `toml:"-"`
}

// StoreConfig selects the catalog backend. An empty sqlite path resolves
// to catalog.db under the data directory.
type StoreConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

type CacheConfig struct {
	Enabled    bool          `toml:"enabled"`
	TTL        string        `toml:"ttl"`
	MaxEntries int           `toml:"max_entries"`
	TTLD       time.Duration `toml:"-"`
}

type HardwareConfig struct {
	StrictSpot bool `toml:"strict_spot"`
}

type RecommendConfig struct {
	MaxConcurrency int `toml:"max_concurrency"`
}

type SecurityConfig struct {
	RateLimitPerMin int `toml:"rate_limit_per_min"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".mcat")

	return &Config{
		General: GeneralConfig{
			DataDir: dataDir,
		},
		API: APIConfig{
			ListenAddr: "127.0.0.1:8080",
			EnableCORS: false,
		},
		Gateway: GatewayConfig{
			RequestTimeout:  "30s",
			RequestTimeoutD: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver: StoreDriverSQLite,
			Path:   "",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        "300s",
			MaxEntries: 1024,
			TTLD:       300 * time.Second,
		},
		Hardware: HardwareConfig{
			StrictSpot: true,
		},
		Recommend: RecommendConfig{
			MaxConcurrency: 4,
		},
		Security: SecurityConfig{
			RateLimitPerMin: 120,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func LoadFromFile(path string) (*Config, error) {
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand path: %w", err)
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}

	if err := cfg.postProcess(); err != nil {
		return nil, fmt.Errorf("post process config: %w", err)
	}

	return cfg, nil
}

func (c *Config) postProcess() error {
	var err error

	if c.Gateway.RequestTimeoutD, err = time.ParseDuration(c.Gateway.RequestTimeout); err != nil {
		return fmt.Errorf("parse gateway.request_timeout: %w", err)
	}

	if c.Cache.TTLD, err = time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("parse cache.ttl: %w", err)
	}

	c.General.DataDir, err = expandPath(c.General.DataDir)
	if err != nil {
		return fmt.Errorf("expand general.data_dir: %w", err)
	}

	c.Store.Path, err = expandPath(c.Store.Path)
	if err != nil {
		return fmt.Errorf("expand store.path: %w", err)
	}

	c.Store.Driver = strings.ToLower(c.Store.Driver)
	if c.Store.Driver == StoreDriverSQLite && c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.General.DataDir, "catalog.db")
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Store.Driver != StoreDriverSQLite && c.Store.Driver != StoreDriverMemory {
		return fmt.Errorf("invalid store driver: %s (valid: sqlite, memory)", c.Store.Driver)
	}

	if c.Gateway.RequestTimeoutD <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.Gateway.RequestTimeout)
	}

	if c.Cache.Enabled {
		if c.Cache.TTLD <= 0 {
			return fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 0 {
			return fmt.Errorf("cache max_entries cannot be negative, got %d", c.Cache.MaxEntries)
		}
	}

	if c.Recommend.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", c.Recommend.MaxConcurrency)
	}

	if c.Security.RateLimitPerMin < 0 {
		return fmt.Errorf("rate_limit_per_min cannot be negative, got %d", c.Security.RateLimitPerMin)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /, got %q", c.Metrics.Path)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid logging level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid logging format: %s (valid: json, text)", c.Logging.Format)
	}

	return nil
}

// ApplyEnvOverrides applies MCAT_* variables. Boolean and integer values
// that fail to parse are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MCAT_DATA_DIR"); v != "" {
		cfg.General.DataDir = v
	}
	if v := os.Getenv("MCAT_API_LISTEN"); v != "" {
		cfg.API.ListenAddr = v
	}
	if v, ok := envBool("MCAT_API_CORS"); ok {
		cfg.API.EnableCORS = v
	}
	if v := os.Getenv("MCAT_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("MCAT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v, ok := envBool("MCAT_CACHE_ENABLED"); ok {
		cfg.Cache.Enabled = v
	}
	if v := os.Getenv("MCAT_CACHE_TTL"); v != "" {
		cfg.Cache.TTL = v
	}
	if v, ok := envBool("MCAT_STRICT_SPOT"); ok {
		cfg.Hardware.StrictSpot = v
	}
	if v, ok := envInt("MCAT_MAX_CONCURRENCY"); ok {
		cfg.Recommend.MaxConcurrency = v
	}
	if v, ok := envInt("MCAT_RATE_LIMIT_PER_MIN"); ok {
		cfg.Security.RateLimitPerMin = v
	}
	if v, ok := envBool("MCAT_METRICS_ENABLED"); ok {
		cfg.Metrics.Enabled = v
	}
	if v := os.Getenv("MCAT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MCAT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get user home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	return path, nil
}

func Load(configPath string) (*Config, error) {
	var cfg *Config
	var err error

	if configPath != "" {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", configPath, err)
		}
	} else {
		cfg = Default()
	}

	ApplyEnvOverrides(cfg)

	if err := cfg.postProcess(); err != nil {
		return nil, fmt.Errorf("post process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
