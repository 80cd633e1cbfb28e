package reflective

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Environment variables read by LoadConfig.
const (
	EnvLogLevel       = "REFLECTIVE_LOG_LEVEL"
	EnvLogDevelopment = "REFLECTIVE_LOG_DEVELOPMENT"
	EnvManifest       = "REFLECTIVE_MANIFEST"
)

// Config is the environment-driven container configuration.
type Config struct {
	LogLevel    string // zap level name; empty disables logging
	Development bool   // Development encoder and stack traces on warnings
	Manifest    string // Path of a YAML manifest applied after registration
}

// LoadConfig reads .env files (if present) and populates a Config from the environment.
// Variables already set in the environment take precedence over the files.
func LoadConfig(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// .env files are optional
	_ = godotenv.Load(files...)

	return &Config{
		LogLevel:    env(EnvLogLevel, ""),
		Development: envBool(EnvLogDevelopment, false),
		Manifest:    env(EnvManifest, ""),
	}
}

// Logger builds the zap logger described by the configuration.
func (cfg *Config) Logger() (*zap.Logger, error) {
	if cfg.LogLevel == "" {
		return zap.NewNop(), nil
	}

	level, err := zap.ParseAtomicLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	return zc.Build()
}

// Options turns the configuration into container options. The manifest targets
// registered constructors, so it is applied afterwards with Apply.
func (cfg *Config) Options() ([]Option, error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	return []Option{WithLogger(logger)}, nil
}

// LoadManifest loads the configured manifest, or returns nil when none is configured.
func (cfg *Config) LoadManifest() (*Manifest, error) {
	if cfg.Manifest == "" {
		return nil, nil
	}
	return LoadManifest(cfg.Manifest)
}

// Apply loads the configured manifest and applies it to c. Call it once every
// target the manifest names is registered. It does nothing without a manifest.
func (cfg *Config) Apply(c *Container) error {
	m, err := cfg.LoadManifest()
	if err != nil {
		return err
	}
	return c.ApplyManifest(m)
}

func env(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
