package config

import "time"

const (
	defaultCannyLow  = 50
	defaultCannyHigh = 150
)

// DefaultConfig returns the configuration used when no file or environment is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:           "0.0.0.0",
			Port:         5000,
			Token:        "",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
			Auth: AuthConfig{
				Enabled:  false,
				TokenTTL: 24 * time.Hour,
			},
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			Enabled:   false,
			StaticDir: "./web",
		},
		Upload: UploadConfig{
			Dir:         "data/uploads",
			MaxFileSize: 50 * 1024 * 1024,
			AllowedExtensions: []string{
				"png", "jpg", "jpeg", "gif", "webp", "bmp",
				"mp4", "avi", "mov",
			},
		},
		Security: SecurityConfig{
			MaxFileSize:    50 * 1024 * 1024,
			MaxPixels:      40_000_000,
			MaxWidth:       8192,
			MaxHeight:      8192,
			AllowedFormats: []string{"jpeg", "jpg", "png", "webp", "gif", "bmp"},
			EnableDeepScan: true,
		},
		Media: MediaConfig{
			MaxFrames:       30,
			Workers:         4,
			FFmpegPath:      "ffmpeg",
			FFprobePath:     "ffprobe",
			AnalysisTimeout: 2 * time.Minute,
		},
		Scoring: ScoringConfig{
			Authenticity: AuthenticityConfig{
				BlurNormalization:     500,
				VarianceMidpoint:      500,
				ColorStdNormalization: 50,
				CannyLow:              defaultCannyLow,
				CannyHigh:             defaultCannyHigh,
				TextureKernel:         15,
				SuspiciousFrame:       0.6,
			},
		},
		History: HistoryConfig{
			Enabled: true,
			Driver:  "memory",
			TTL:     7 * 24 * time.Hour,
			Cleanup: 10 * time.Minute,
			SQLite: SQLiteConfig{
				Path: "data/trustlens.db",
			},
			Redis: RedisConfig{
				Prefix: "trustlens:history:",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
