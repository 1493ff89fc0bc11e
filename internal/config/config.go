package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	defaultListenAddr  = ":9621"
	defaultDBPath      = "raggate.db"
	defaultStagingDir  = "inputs"
	defaultUsersPath   = "users.json"
	defaultTokenExpire = 48
	defaultGuestExpire = 24
	defaultWorkers     = 4

	envListenAddr   = "RAGGATE_LISTEN_ADDR"
	envDBPath       = "RAGGATE_DB_PATH"
	envStagingDir   = "RAGGATE_STAGING_DIR"
	envLogLevel     = "RAGGATE_LOG_LEVEL"
	envTokenSecret  = "RAGGATE_TOKEN_SECRET"
	envTokenExpire  = "RAGGATE_TOKEN_EXPIRE_HOURS"
	envGuestExpire  = "RAGGATE_GUEST_TOKEN_EXPIRE_HOURS"
	envUsersPath    = "RAGGATE_USERS_PATH"
	envAuthAccounts = "RAGGATE_AUTH_ACCOUNTS"
	envAnonAccess   = "RAGGATE_ANON_ACCESS"
	envWorkers      = "RAGGATE_WORKERS"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	StagingDir string
	LogLevel   slog.Level

	// TokenSecret signs access tokens. Empty disables authentication
	// entirely, in which case every request runs in the default workspace.
	TokenSecret      string
	TokenExpireHours int
	GuestExpireHours int
	UsersPath        string
	AuthAccounts     string
	AnonAccess       bool

	Workers int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr:       defaultListenAddr,
		DBPath:           defaultDBPath,
		StagingDir:       defaultStagingDir,
		LogLevel:         slog.LevelInfo,
		TokenExpireHours: defaultTokenExpire,
		GuestExpireHours: defaultGuestExpire,
		UsersPath:        defaultUsersPath,
		Workers:          defaultWorkers,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envStagingDir); v != "" {
		cfg.StagingDir = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	cfg.TokenSecret = os.Getenv(envTokenSecret)
	if v := os.Getenv(envTokenExpire); v != "" {
		cfg.TokenExpireHours = parsePositiveInt(v, defaultTokenExpire)
	}
	if v := os.Getenv(envGuestExpire); v != "" {
		cfg.GuestExpireHours = parsePositiveInt(v, defaultGuestExpire)
	}
	if v := os.Getenv(envUsersPath); v != "" {
		cfg.UsersPath = v
	}
	cfg.AuthAccounts = os.Getenv(envAuthAccounts)
	if v := os.Getenv(envAnonAccess); v != "" {
		cfg.AnonAccess = parseBool(v)
	}
	if v := os.Getenv(envWorkers); v != "" {
		cfg.Workers = parsePositiveInt(v, defaultWorkers)
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parsePositiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
