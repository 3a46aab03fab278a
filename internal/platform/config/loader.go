package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TRUSTLENS_"

// candidatePaths are tried in order when no explicit path is configured.
var candidatePaths = []string{".config.yaml", "config.yaml"}

// Loader assembles the runtime configuration from defaults, a yaml file and the
// environment.
type Loader struct {
	useDotEnv bool
	path      string
}

// NewLoader creates a loader that reads .env and the first yaml file it finds.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath pins the yaml file to read instead of searching the working directory.
func (l *Loader) WithPath(path string) *Loader {
	l.path = strings.TrimSpace(path)
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the configuration. A missing yaml file is not an error; a malformed
// one is.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// .env is optional; the process environment is used as-is when absent.
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	path := l.resolvePath()
	origin := "default"

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		origin = path
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	// PORT is honoured for parity with common PaaS conventions.
	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" && os.Getenv(envPrefix+"SERVER_PORT") == "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse PORT %q: %w", raw, err)
		}
		cfg.Server.Port = port
	}

	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return &Result{
		Config: cfg,
		Path:   origin,
	}, nil
}

func (l *Loader) resolvePath() string {
	if l.path != "" {
		return l.path
	}
	if fromEnv := strings.TrimSpace(os.Getenv(envPrefix + "CONFIG")); fromEnv != "" {
		return fromEnv
	}
	for _, candidate := range candidatePaths {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func (l *Loader) validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size must be positive")
	}
	if cfg.Media.MaxFrames < 1 {
		return fmt.Errorf("media.max_frames must be at least 1, got %d", cfg.Media.MaxFrames)
	}

	a := cfg.Scoring.Authenticity
	for name, v := range map[string]float64{
		"blur_normalization":      a.BlurNormalization,
		"variance_midpoint":       a.VarianceMidpoint,
		"color_std_normalization": a.ColorStdNormalization,
		"canny_low":               a.CannyLow,
		"canny_high":              a.CannyHigh,
		"suspicious_frame":        a.SuspiciousFrame,
	} {
		if v < 0 {
			return fmt.Errorf("scoring.authenticity.%s must not be negative", name)
		}
	}
	// zero thresholds fall back to the defaults one by one, so compare what will run
	low, high := a.CannyLow, a.CannyHigh
	if low == 0 {
		low = defaultCannyLow
	}
	if high == 0 {
		high = defaultCannyHigh
	}
	if low > high {
		return fmt.Errorf("scoring.authenticity.canny_low (%g) must not exceed canny_high (%g)", low, high)
	}
	if a.TextureKernel < 0 || (a.TextureKernel > 0 && a.TextureKernel%2 == 0) {
		return fmt.Errorf("scoring.authenticity.texture_kernel must be a positive odd number")
	}

	if cfg.History.Enabled {
		switch strings.ToLower(strings.TrimSpace(cfg.History.Driver)) {
		case "memory", "sqlite":
		case "redis":
			if cfg.History.Redis.Addr == "" {
				return fmt.Errorf("history.redis.addr is required for the redis driver")
			}
		default:
			return fmt.Errorf("unsupported history driver: %q", cfg.History.Driver)
		}
	}

	if cfg.Server.Auth.Enabled && cfg.Server.Token == "" {
		return fmt.Errorf("server.token is required when auth is enabled")
	}
	return nil
}
