package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DataDir == "" {
		t.Error("DataDir should have a default")
	}
	if cfg.AgentName != "contextforge" {
		t.Errorf("AgentName = %q, want contextforge", cfg.AgentName)
	}
	if cfg.LockTTL != 5*time.Minute {
		t.Errorf("LockTTL = %v, want 5m", cfg.LockTTL)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty (in-process locking by default)", cfg.RedisAddr)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvDataDir, "/tmp/cf-test")
	t.Setenv(EnvAgentName, "agent-a")
	t.Setenv(EnvLockTTL, "90s")
	t.Setenv(EnvExecuteTimeout, "30s")
	t.Setenv(EnvRedisAddr, "localhost:6379")

	cfg := FromEnv()
	if cfg.DataDir != "/tmp/cf-test" {
		t.Errorf("DataDir = %q, want /tmp/cf-test", cfg.DataDir)
	}
	if cfg.AgentName != "agent-a" {
		t.Errorf("AgentName = %q, want agent-a", cfg.AgentName)
	}
	if cfg.LockTTL != 90*time.Second {
		t.Errorf("LockTTL = %v, want 90s", cfg.LockTTL)
	}
	if cfg.ExecuteTimeout != 30*time.Second {
		t.Errorf("ExecuteTimeout = %v, want 30s", cfg.ExecuteTimeout)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, want localhost:6379", cfg.RedisAddr)
	}
}

// A negative TTL must pass through: it is the knob that disables lock
// expiry in the registry.
func TestFromEnv_NegativeLockTTLDisablesExpiry(t *testing.T) {
	t.Setenv(EnvLockTTL, "-1s")

	cfg := FromEnv()
	if cfg.LockTTL != -time.Second {
		t.Errorf("LockTTL = %v, want -1s", cfg.LockTTL)
	}
}

func TestFromEnv_BadDurationFallsBack(t *testing.T) {
	t.Setenv(EnvLockTTL, "not-a-duration")
	t.Setenv(EnvExecuteTimeout, "-5s")

	cfg := FromEnv()
	if cfg.LockTTL != Default().LockTTL {
		t.Errorf("LockTTL = %v, want default on parse failure", cfg.LockTTL)
	}
	if cfg.ExecuteTimeout != Default().ExecuteTimeout {
		t.Errorf("ExecuteTimeout = %v, want default on negative override", cfg.ExecuteTimeout)
	}
}
