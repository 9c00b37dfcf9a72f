// Package config holds the server's runtime configuration.
//
// Configuration is a plain struct resolved once at startup from
// defaults and environment overrides, then passed down by value —
// components never read the environment themselves.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Environment variable names recognized by FromEnv.
const (
	EnvDataDir        = "CONTEXTFORGE_DATA_DIR"
	EnvAgentName      = "CONTEXTFORGE_AGENT_NAME"
	EnvLockTTL        = "CONTEXTFORGE_LOCK_TTL"
	EnvExecuteTimeout = "CONTEXTFORGE_EXECUTE_TIMEOUT"
	EnvRedisAddr      = "CONTEXTFORGE_REDIS_ADDR"
)

// Config holds all runtime settings.
type Config struct {
	// DataDir is where the SQLite databases live.
	DataDir string
	// AgentName is the base identity used as lock holder and audit
	// agent. The server appends a per-process suffix so two sessions
	// under the same name still contend correctly.
	AgentName string
	// LockTTL bounds how long a crashed session can hold a lock.
	LockTTL time.Duration
	// ExecuteTimeout bounds each guarded mutation; zero disables it.
	ExecuteTimeout time.Duration
	// RedisAddr, when non-empty, switches the lock store from the
	// in-process registry to a shared Redis instance at this address.
	RedisAddr string
}

// Default returns the baseline configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:        filepath.Join(home, ".contextforge"),
		AgentName:      "contextforge",
		LockTTL:        5 * time.Minute,
		ExecuteTimeout: 2 * time.Minute,
	}
}

// FromEnv returns the default configuration with any environment
// overrides applied. Unparseable durations fall back to the default
// rather than failing startup.
func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvAgentName); v != "" {
		cfg.AgentName = v
	}
	// A negative TTL is meaningful: it disables lock expiry entirely.
	// Only zero keeps the default, matching the registry's convention.
	if v := os.Getenv(EnvLockTTL); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d != 0 {
			cfg.LockTTL = d
		}
	}
	if v := os.Getenv(EnvExecuteTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.ExecuteTimeout = d
		}
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.RedisAddr = v
	}
	return cfg
}
