package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vidnorm/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.ShardIndexEnv, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "vidnorm", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Paths.ScratchDir != "/tmp/transcode" {
		t.Fatalf("unexpected scratch dir: %q", cfg.Paths.ScratchDir)
	}
	if cfg.Encode.Quality != 23 || cfg.Encode.Preset != "medium" || cfg.Encode.Retries != 3 {
		t.Fatalf("unexpected encode defaults: %+v", cfg.Encode)
	}
	if cfg.Encode.TimeoutSeconds != 7200 {
		t.Fatalf("expected 2h encode timeout, got %d", cfg.Encode.TimeoutSeconds)
	}
	if cfg.Workflow.Workers != 1 || cfg.Workflow.TotalShards != 1 || cfg.Workflow.ShardIndex != 0 {
		t.Fatalf("unexpected workflow defaults: %+v", cfg.Workflow)
	}
	if cfg.State.Backend != config.StateBackendJSON {
		t.Fatalf("unexpected state backend: %q", cfg.State.Backend)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected tool defaults: %+v", cfg.Tools)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv(config.ShardIndexEnv, "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vidnorm.toml")

	type payload struct {
		Paths struct {
			ScratchDir string `toml:"scratch_dir"`
		} `toml:"paths"`
		Encode struct {
			Quality int    `toml:"quality"`
			Preset  string `toml:"preset"`
			GPU     bool   `toml:"gpu"`
		} `toml:"encode"`
		Workflow struct {
			TotalShards int `toml:"total_shards"`
			ShardIndex  int `toml:"shard_index"`
		} `toml:"workflow"`
		State struct {
			Backend string `toml:"backend"`
		} `toml:"state"`
	}
	custom := payload{}
	custom.Paths.ScratchDir = filepath.Join(tempDir, "scratch")
	custom.Encode.Quality = 18
	custom.Encode.Preset = " SLOW "
	custom.Encode.GPU = true
	custom.Workflow.TotalShards = 4
	custom.Workflow.ShardIndex = 2
	custom.State.Backend = "SQLite"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Encode.Quality != 18 || cfg.Encode.Preset != "slow" || !cfg.Encode.GPU {
		t.Fatalf("unexpected encode config: %+v", cfg.Encode)
	}
	if cfg.Workflow.TotalShards != 4 || cfg.Workflow.ShardIndex != 2 {
		t.Fatalf("unexpected workflow config: %+v", cfg.Workflow)
	}
	if cfg.State.Backend != config.StateBackendSQLite {
		t.Fatalf("expected normalized sqlite backend, got %q", cfg.State.Backend)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.ScratchDir); err != nil || !info.IsDir() {
		t.Fatalf("expected scratch dir to exist: %v", err)
	}
}

func TestShardIndexEnvironmentOverride(t *testing.T) {
	t.Setenv(config.ShardIndexEnv, "3")
	cfg := config.Default()
	cfg.Workflow.TotalShards = 5
	cfg.Workflow.ShardIndex = 1
	if err := cfg.ApplyEnvironment(); err != nil {
		t.Fatalf("ApplyEnvironment: %v", err)
	}
	if cfg.Workflow.ShardIndex != 3 {
		t.Fatalf("expected env shard index 3, got %d", cfg.Workflow.ShardIndex)
	}

	t.Setenv(config.ShardIndexEnv, "three")
	if err := cfg.ApplyEnvironment(); err == nil {
		t.Fatal("expected error for non-numeric shard index")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"quality high", func(c *config.Config) { c.Encode.Quality = 52 }, "encode.quality"},
		{"quality negative", func(c *config.Config) { c.Encode.Quality = -1 }, "encode.quality"},
		{"retries", func(c *config.Config) { c.Encode.Retries = 0 }, "encode.retries"},
		{"workers", func(c *config.Config) { c.Workflow.Workers = 0 }, "workflow.workers"},
		{"shards", func(c *config.Config) { c.Workflow.TotalShards = 0 }, "workflow.total_shards"},
		{"shard index", func(c *config.Config) { c.Workflow.TotalShards = 2; c.Workflow.ShardIndex = 2 }, "workflow.shard_index"},
		{"ignore regex", func(c *config.Config) { c.Scan.Ignore = "(" }, "scan.ignore"},
		{"backend", func(c *config.Config) { c.State.Backend = "redis" }, "state.backend"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestRelayEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.ShardIndexEnv, "")
	t.Setenv("OLLAMA_URL", "http://ollama.test:11434/")
	t.Setenv("OLLAMA_MODEL", "tiny")
	t.Setenv("NTFY_URL", "http://ntfy.test/alerts")
	t.Setenv("RELAY_BIND", "127.0.0.1:9999")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Relay.OllamaURL != "http://ollama.test:11434" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Relay.OllamaURL)
	}
	if cfg.Relay.OllamaModel != "tiny" || cfg.Relay.NtfyURL != "http://ntfy.test/alerts" || cfg.Relay.Bind != "127.0.0.1:9999" {
		t.Fatalf("unexpected relay config: %+v", cfg.Relay)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv(config.ShardIndexEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Encode.Quality != 23 {
		t.Fatalf("unexpected sample quality: %d", cfg.Encode.Quality)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/scratch")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "scratch") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

func TestParseThenFinalizeLetsOverridesWin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv(config.ShardIndexEnv, "2")

	path := filepath.Join(t.TempDir(), "vidnorm.toml")
	payload := "[workflow]\ntotal_shards = 1\nshard_index = 0\nmetrics_file = \"~/vidnorm.prom\"\n"
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := config.Parse(path)
	if err != nil || !exists {
		t.Fatalf("Parse: exists=%v err=%v", exists, err)
	}
	if err := cfg.Finalize(); err == nil || !strings.Contains(err.Error(), "shard_index") {
		t.Fatalf("expected shard index validation error before override, got %v", err)
	}

	cfg.Workflow.TotalShards = 3
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.Workflow.ShardIndex != 2 {
		t.Fatalf("expected environment shard index, got %d", cfg.Workflow.ShardIndex)
	}
	if !filepath.IsAbs(cfg.Workflow.MetricsFile) || strings.HasPrefix(cfg.Workflow.MetricsFile, "~") {
		t.Fatalf("expected expanded metrics path, got %q", cfg.Workflow.MetricsFile)
	}
}
