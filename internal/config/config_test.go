package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		envListenAddr, envDBPath, envStagingDir, envLogLevel,
		envTokenSecret, envTokenExpire, envGuestExpire,
		envUsersPath, envAuthAccounts, envAnonAccess, envWorkers,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.ListenAddr != defaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, defaultListenAddr)
	}
	if cfg.DBPath != defaultDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, defaultDBPath)
	}
	if cfg.StagingDir != defaultStagingDir {
		t.Errorf("StagingDir = %q, want %q", cfg.StagingDir, defaultStagingDir)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
	if cfg.TokenSecret != "" {
		t.Errorf("TokenSecret = %q, want empty", cfg.TokenSecret)
	}
	if cfg.TokenExpireHours != defaultTokenExpire {
		t.Errorf("TokenExpireHours = %d, want %d", cfg.TokenExpireHours, defaultTokenExpire)
	}
	if cfg.AnonAccess {
		t.Error("AnonAccess = true, want false")
	}
	if cfg.Workers != defaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, defaultWorkers)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(envListenAddr, ":9090")
	t.Setenv(envDBPath, "/tmp/test.db")
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envTokenSecret, "s3cret")
	t.Setenv(envTokenExpire, "12")
	t.Setenv(envAnonAccess, "true")
	t.Setenv(envWorkers, "8")

	cfg := Load()

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9090")
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/tmp/test.db")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
	if cfg.TokenSecret != "s3cret" {
		t.Errorf("TokenSecret = %q, want %q", cfg.TokenSecret, "s3cret")
	}
	if cfg.TokenExpireHours != 12 {
		t.Errorf("TokenExpireHours = %d, want 12", cfg.TokenExpireHours)
	}
	if !cfg.AnonAccess {
		t.Error("AnonAccess = false, want true")
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
}

func TestLoadIgnoresBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv(envTokenExpire, "not-a-number")
	t.Setenv(envWorkers, "-3")

	cfg := Load()

	if cfg.TokenExpireHours != defaultTokenExpire {
		t.Errorf("TokenExpireHours = %d, want default %d", cfg.TokenExpireHours, defaultTokenExpire)
	}
	if cfg.Workers != defaultWorkers {
		t.Errorf("Workers = %d, want default %d", cfg.Workers, defaultWorkers)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept", "key", "value")

	if bytes.Contains(buf.Bytes(), []byte("dropped")) {
		t.Error("info line emitted at warn level")
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if line["msg"] != "kept" || line["key"] != "value" {
		t.Errorf("log line = %v", line)
	}
}
