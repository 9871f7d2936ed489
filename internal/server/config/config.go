// Package config собирает конфигурацию сервера из значений по умолчанию,
// YAML файла, переменных окружения и флагов (в порядке возрастания приоритета).
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iudanet/gophgram/internal/apperror"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "GOPHGRAM_"

// Config содержит конфигурацию сервера
type Config struct {
	Addr             string        `yaml:"addr"`
	DBPath           string        `yaml:"db_path"`
	JWTSecret        string        `yaml:"jwt_secret"`
	UploadDir        string        `yaml:"upload_dir"`
	DefaultAvatarURL string        `yaml:"default_avatar_url"`
	CORSOrigin       string        `yaml:"cors_origin"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
	TokenTTL         time.Duration `yaml:"token_ttl"`
	RateWindow       time.Duration `yaml:"rate_window"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
	UploadMaxSize    int64         `yaml:"upload_max_size"`
	RateLimit        int           `yaml:"rate_limit"`
	CookieSecure     bool          `yaml:"cookie_secure"`
	TrustProxy       bool          `yaml:"trust_proxy"`
}

// Default returns configuration with default values.
// JWTSecret has no default: it must be provided.
func Default() *Config {
	return &Config{
		Addr:             ":8080",
		DBPath:           "gophgram.db",
		UploadDir:        "uploads",
		DefaultAvatarURL: "/static/default-avatar.png",
		CORSOrigin:       "http://localhost:5173",
		LogLevel:         "info",
		LogFormat:        "text",
		TokenTTL:         7 * 24 * time.Hour,
		RateWindow:       time.Minute,
		ShutdownTimeout:  10 * time.Second,
		UploadMaxSize:    5 << 20,
		RateLimit:        20,
	}
}

// Load собирает конфигурацию. args без имени программы, getenv обычно os.Getenv.
// Флаг -config (или GOPHGRAM_CONFIG) указывает YAML файл
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("gophgram-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// flagValues хранит значения флагов отдельно: применяем только явно заданные
	flagValues := Default()
	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to YAML config file")
	fs.StringVar(&flagValues.Addr, "addr", flagValues.Addr, "HTTP listen address")
	fs.StringVar(&flagValues.DBPath, "db", flagValues.DBPath, "Path to SQLite database")
	fs.StringVar(&flagValues.JWTSecret, "jwt-secret", "", "Secret for signing session tokens")
	fs.StringVar(&flagValues.UploadDir, "upload-dir", flagValues.UploadDir, "Directory for uploaded images")
	fs.StringVar(&flagValues.DefaultAvatarURL, "default-avatar", flagValues.DefaultAvatarURL, "Placeholder avatar URL")
	fs.StringVar(&flagValues.CORSOrigin, "cors-origin", flagValues.CORSOrigin, "Allowed CORS origin")
	fs.StringVar(&flagValues.LogLevel, "log-level", flagValues.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&flagValues.LogFormat, "log-format", flagValues.LogFormat, "Log format: text or json")
	fs.DurationVar(&flagValues.TokenTTL, "token-ttl", flagValues.TokenTTL, "Session token lifetime")
	fs.DurationVar(&flagValues.ShutdownTimeout, "shutdown-timeout", flagValues.ShutdownTimeout, "Graceful shutdown timeout")
	fs.IntVar(&flagValues.RateLimit, "rate-limit", flagValues.RateLimit, "Auth requests per window per IP")
	fs.BoolVar(&flagValues.CookieSecure, "cookie-secure", flagValues.CookieSecure, "Set Secure flag on session cookie")
	fs.BoolVar(&flagValues.TrustProxy, "trust-proxy", flagValues.TrustProxy, "Take client IP from X-Forwarded-For, only behind a reverse proxy")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if configPath == "" {
		configPath = getenv(EnvPrefix + "CONFIG")
	}
	if configPath != "" {
		if err := cfg.loadFile(configPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	// Флаги имеют наивысший приоритет
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = flagValues.Addr
		case "db":
			cfg.DBPath = flagValues.DBPath
		case "jwt-secret":
			cfg.JWTSecret = flagValues.JWTSecret
		case "upload-dir":
			cfg.UploadDir = flagValues.UploadDir
		case "default-avatar":
			cfg.DefaultAvatarURL = flagValues.DefaultAvatarURL
		case "cors-origin":
			cfg.CORSOrigin = flagValues.CORSOrigin
		case "log-level":
			cfg.LogLevel = flagValues.LogLevel
		case "log-format":
			cfg.LogFormat = flagValues.LogFormat
		case "token-ttl":
			cfg.TokenTTL = flagValues.TokenTTL
		case "shutdown-timeout":
			cfg.ShutdownTimeout = flagValues.ShutdownTimeout
		case "rate-limit":
			cfg.RateLimit = flagValues.RateLimit
		case "cookie-secure":
			cfg.CookieSecure = flagValues.CookieSecure
		case "trust-proxy":
			cfg.TrustProxy = flagValues.TrustProxy
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile накладывает значения из YAML файла
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnv накладывает значения из переменных окружения GOPHGRAM_*
func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"ADDR":               &c.Addr,
		"DB_PATH":            &c.DBPath,
		"JWT_SECRET":         &c.JWTSecret,
		"UPLOAD_DIR":         &c.UploadDir,
		"DEFAULT_AVATAR_URL": &c.DefaultAvatarURL,
		"CORS_ORIGIN":        &c.CORSOrigin,
		"LOG_LEVEL":          &c.LogLevel,
		"LOG_FORMAT":         &c.LogFormat,
	}
	for key, dst := range strs {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"TOKEN_TTL":        &c.TokenTTL,
		"RATE_WINDOW":      &c.RateWindow,
		"SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
	}
	for key, dst := range durations {
		if v := getenv(EnvPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = d
		}
	}

	if v := getenv(EnvPrefix + "RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT: %w", EnvPrefix, err)
		}
		c.RateLimit = n
	}
	if v := getenv(EnvPrefix + "UPLOAD_MAX_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sUPLOAD_MAX_SIZE: %w", EnvPrefix, err)
		}
		c.UploadMaxSize = n
	}
	bools := map[string]*bool{
		"COOKIE_SECURE": &c.CookieSecure,
		"TRUST_PROXY":   &c.TrustProxy,
	}
	for key, dst := range bools {
		if v := getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}

	return nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("rate limit and window must be positive"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	// cookie сессии всегда разрешены, а с ними допустим только конкретный origin
	if c.CORSOrigin == "*" {
		errs = append(errs, errors.New(`cors origin "*" cannot be used with credentials`))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", apperror.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

// NewLogger создает slog.Logger согласно LogLevel и LogFormat
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
