package config

import (
	"flag"
	"os"
	"testing"
	"time"
)

var configEnv = []string{
	"CONFIG", "SERVER_ADDRESS", "GRPC_ADDRESS", "BASE_URL", "STORAGE_BACKEND",
	"FILE_STORAGE_PATH", "BOLT_PATH", "DATABASE_DSN", "REDIS_ADDRESS", "REDIS_PASSWORD",
	"SHORTEN_ATTEMPTS", "LOG_LEVEL", "SHUTDOWN_TIMEOUT",
}

// resetConfig gives NewConfig a fresh flag set, the given args and an empty environment.
func resetConfig(t *testing.T, args ...string) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine
	t.Cleanup(func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	})

	for _, name := range configEnv {
		t.Setenv(name, "")
	}

	flag.CommandLine = flag.NewFlagSet("cmd", flag.ContinueOnError)
	os.Args = append([]string{"cmd"}, args...)
}

func TestNewConfigDefault(t *testing.T) {
	resetConfig(t)

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.ServerAddress != ":8080" {
		t.Errorf("NewConfig() ServerAddress = %v, want %v", cfg.ServerAddress, ":8080")
	}

	if cfg.BaseURL != "" {
		t.Errorf("NewConfig() BaseURL = %v, want empty", cfg.BaseURL)
	}

	if cfg.ShortenAttempts != 3 {
		t.Errorf("NewConfig() ShortenAttempts = %v, want %v", cfg.ShortenAttempts, 3)
	}

	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("NewConfig() ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, 10*time.Second)
	}

	if cfg.Backend() != BackendMemory {
		t.Errorf("NewConfig() Backend() = %v, want %v", cfg.Backend(), BackendMemory)
	}
}

func TestNewConfigWithArgs(t *testing.T) {
	resetConfig(t, "-a", "localhost:8888", "-b", "http://localhost:8000", "-g", ":3200", "-n", "5", "-bolt", "/tmp/links.db")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.ServerAddress != "localhost:8888" {
		t.Errorf("NewConfig() ServerAddress = %v, want %v", cfg.ServerAddress, "localhost:8888")
	}

	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("NewConfig() BaseURL = %v, want %v", cfg.BaseURL, "http://localhost:8000")
	}

	if cfg.GRPCAddress != ":3200" {
		t.Errorf("NewConfig() GRPCAddress = %v, want %v", cfg.GRPCAddress, ":3200")
	}

	if cfg.ShortenAttempts != 5 {
		t.Errorf("NewConfig() ShortenAttempts = %v, want %v", cfg.ShortenAttempts, 5)
	}

	if cfg.Backend() != BackendBolt {
		t.Errorf("NewConfig() Backend() = %v, want %v", cfg.Backend(), BackendBolt)
	}
}

func TestNewConfigEnvOverridesFlags(t *testing.T) {
	resetConfig(t, "-a", "flag:8080", "-l", "debug")
	t.Setenv("SERVER_ADDRESS", "env:8080")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.ServerAddress != "env:8080" {
		t.Errorf("NewConfig() ServerAddress = %v, want %v", cfg.ServerAddress, "env:8080")
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("NewConfig() LogLevel = %v, want %v", cfg.LogLevel, "debug")
	}

	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("NewConfig() ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, 3*time.Second)
	}

	if cfg.Backend() != BackendRedis {
		t.Errorf("NewConfig() Backend() = %v, want %v", cfg.Backend(), BackendRedis)
	}
}

func TestNewConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "unknown backend", args: []string{"-s", "mongo"}},
		{name: "zero attempts", args: []string{"-n", "0"}},
		{name: "bad attempts env", env: map[string]string{"SHORTEN_ATTEMPTS": "many"}},
		{name: "missing config file", args: []string{"-c", "/nonexistent/config.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t, tt.args...)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := NewConfig(); err == nil {
				t.Errorf("NewConfig() error = nil, want error")
			}
		})
	}
}

func TestConfigBackend(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "explicit wins", cfg: Config{StorageBackend: BackendFile, DatabaseDSN: "postgres://x"}, want: BackendFile},
		{name: "dsn", cfg: Config{DatabaseDSN: "postgres://x", RedisAddr: "r:6379"}, want: BackendPostgres},
		{name: "redis", cfg: Config{RedisAddr: "r:6379", BoltPath: "a.db"}, want: BackendRedis},
		{name: "bolt", cfg: Config{BoltPath: "a.db", FileStoragePath: "a.json"}, want: BackendBolt},
		{name: "file", cfg: Config{FileStoragePath: "a.json"}, want: BackendFile},
		{name: "memory", cfg: Config{}, want: BackendMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Backend(); got != tt.want {
				t.Errorf("Backend() = %v, want %v", got, tt.want)
			}
		})
	}
}
