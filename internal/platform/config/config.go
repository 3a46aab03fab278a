package config

import (
	"time"
)

// Config is the full runtime configuration. Values come from DefaultConfig, then the
// yaml file, then environment variables (prefix TRUSTLENS_).
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Web      WebConfig      `yaml:"web" envPrefix:"WEB_"`
	Upload   UploadConfig   `yaml:"upload" envPrefix:"UPLOAD_"`
	Security SecurityConfig `yaml:"security" envPrefix:"SECURITY_"`
	Media    MediaConfig    `yaml:"media" envPrefix:"MEDIA_"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	History  HistoryConfig  `yaml:"history" envPrefix:"HISTORY_"`
	Metrics  MetricsConfig  `yaml:"metrics" envPrefix:"METRICS_"`
}

type ServerConfig struct {
	IP           string        `yaml:"ip" env:"IP"`
	Port         int           `yaml:"port" env:"PORT"`
	Token        string        `yaml:"token" env:"TOKEN"`
	Auth         AuthConfig    `yaml:"auth" envPrefix:"AUTH_"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
}

type AuthConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

type LogConfig struct {
	Level string `yaml:"log_level" env:"LEVEL"`
	Dir   string `yaml:"log_dir" env:"DIR"`
	File  string `yaml:"log_file" env:"FILE"`
}

type WebConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	StaticDir string `yaml:"static_dir" env:"STATIC_DIR"`
}

// UploadConfig bounds what the detect endpoint accepts before any decoding happens.
type UploadConfig struct {
	Dir               string   `yaml:"dir" env:"DIR"`
	MaxFileSize       int64    `yaml:"max_file_size" env:"MAX_FILE_SIZE"`
	AllowedExtensions []string `yaml:"allowed_extensions" env:"ALLOWED_EXTENSIONS"`
}

type SecurityConfig struct {
	MaxFileSize    int64    `yaml:"max_file_size" env:"MAX_FILE_SIZE"`
	MaxPixels      int64    `yaml:"max_pixels" env:"MAX_PIXELS"`
	MaxWidth       int      `yaml:"max_width" env:"MAX_WIDTH"`
	MaxHeight      int      `yaml:"max_height" env:"MAX_HEIGHT"`
	AllowedFormats []string `yaml:"allowed_formats" env:"ALLOWED_FORMATS"`
	EnableDeepScan bool     `yaml:"enable_deep_scan" env:"ENABLE_DEEP_SCAN"`
}

type MediaConfig struct {
	MaxFrames       int           `yaml:"max_frames" env:"MAX_FRAMES"`
	Workers         int           `yaml:"workers" env:"WORKERS"`
	FFmpegPath      string        `yaml:"ffmpeg_path" env:"FFMPEG_PATH"`
	FFprobePath     string        `yaml:"ffprobe_path" env:"FFPROBE_PATH"`
	AnalysisTimeout time.Duration `yaml:"analysis_timeout" env:"ANALYSIS_TIMEOUT"`
}

type ScoringConfig struct {
	Authenticity AuthenticityConfig `yaml:"authenticity" envPrefix:"AUTHENTICITY_"`
	Job          JobConfig          `yaml:"job"`
}

// AuthenticityConfig carries the image heuristic tunables. Zero values fall back to
// the scorer defaults.
type AuthenticityConfig struct {
	BlurNormalization     float64 `yaml:"blur_normalization" env:"BLUR_NORMALIZATION"`
	VarianceMidpoint      float64 `yaml:"variance_midpoint" env:"VARIANCE_MIDPOINT"`
	ColorStdNormalization float64 `yaml:"color_std_normalization" env:"COLOR_STD_NORMALIZATION"`
	CannyLow              float64 `yaml:"canny_low" env:"CANNY_LOW"`
	CannyHigh             float64 `yaml:"canny_high" env:"CANNY_HIGH"`
	TextureKernel         int     `yaml:"texture_kernel" env:"TEXTURE_KERNEL"`
	SuspiciousFrame       float64 `yaml:"suspicious_frame" env:"SUSPICIOUS_FRAME"`
}

// JobConfig overrides the job-posting phrase tables. Empty lists keep the defaults.
type JobConfig struct {
	FraudKeywords      []string `yaml:"fraud_keywords"`
	UrgencyWords       []string `yaml:"urgency_words"`
	LegitimatePatterns []string `yaml:"legitimate_patterns"`
	SalaryPatterns     []string `yaml:"salary_patterns"`
}

type HistoryConfig struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	Driver  string        `yaml:"driver" env:"DRIVER"`
	TTL     time.Duration `yaml:"ttl" env:"TTL"`
	Cleanup time.Duration `yaml:"cleanup" env:"CLEANUP"`
	SQLite  SQLiteConfig  `yaml:"sqlite" envPrefix:"SQLITE_"`
	Redis   RedisConfig   `yaml:"redis" envPrefix:"REDIS_"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Username string `yaml:"username,omitempty" env:"USERNAME"`
	Password string `yaml:"password,omitempty" env:"PASSWORD"`
	DB       int    `yaml:"db,omitempty" env:"DB"`
	Prefix   string `yaml:"prefix,omitempty" env:"PREFIX"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}
