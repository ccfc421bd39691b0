package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{Environ: []string{}})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Engine.StepLimit)
	assert.Equal(t, 30*time.Second, cfg.Engine.LockTTL)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "json", cfg.Store.Codec)
	assert.Equal(t, "echo", cfg.Reply.Provider)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "switchboard.yaml", `
log:
  level: debug
engine:
  step_limit: 20
store:
  driver: sqlite
  path: /tmp/sessions.db
  ttl: 1h
reply:
  provider: scripted
  script:
    "Olá": "Oi!"
`)
	cfg, err := Load(Options{
		File: path,
		Environ: []string{
			"SWITCHBOARD_ENGINE_STEP_LIMIT=50",
			"SWITCHBOARD_STORE_REDACT_PATTERNS=\\d{11},[\\w.]+@[\\w.]+",
			"SWITCHBOARD_TEST_POSTGRES_DSN=ignored",
			"UNRELATED=1",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Engine.StepLimit, "env wins over file")
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, time.Hour, cfg.Store.TTL)
	assert.Equal(t, []string{`\d{11}`, `[\w.]+@[\w.]+`}, cfg.Store.RedactPatterns)
	assert.Equal(t, map[string]string{"Olá": "Oi!"}, cfg.Reply.Script)
	assert.Equal(t, "text", cfg.Log.Format, "untouched keys keep defaults")
}

func TestLoad_AzureVariables(t *testing.T) {
	cfg, err := Load(Options{Environ: []string{
		"AZURE_OPENAI_API_KEY=secret",
		"AZURE_OPENAI_API_BASE=https://example.openai.azure.com",
		"AZURE_DEPLOYMENT_NAME=gpt4",
		"OPENAI_API_VERSION=2024-02-01",
	}})
	require.NoError(t, err)

	assert.Equal(t, "azure", cfg.Reply.Provider)
	assert.Equal(t, "secret", cfg.Reply.APIKey)
	assert.Equal(t, "https://example.openai.azure.com", cfg.Reply.BaseURL)
	assert.Equal(t, "gpt4", cfg.Reply.Deployment)
	assert.Equal(t, "2024-02-01", cfg.Reply.APIVersion)
}

func TestLoad_DotEnv(t *testing.T) {
	dotenv := writeFile(t, ".env", "SWITCHBOARD_LOG_FORMAT=json\nSWITCHBOARD_SERVER_ADDR=:9000\n")
	cfg, err := Load(Options{
		DotEnv:  dotenv,
		Environ: []string{"SWITCHBOARD_SERVER_ADDR=:9100"},
	})
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9100", cfg.Server.Addr, "process environment wins over .env")
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(Options{DotEnv: filepath.Join(t.TempDir(), ".env"), Environ: []string{}})
	require.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{
			name:    "Missing File",
			opts:    Options{File: "/does/not/exist.yaml", Environ: []string{}},
			wantErr: "read config",
		},
		{
			name:    "Unknown Driver",
			opts:    Options{Environ: []string{"SWITCHBOARD_STORE_DRIVER=cassandra"}},
			wantErr: "Store.Driver must be one of",
		},
		{
			name:    "Redis Without URL",
			opts:    Options{Environ: []string{"SWITCHBOARD_STORE_DRIVER=redis"}},
			wantErr: "Store.URL",
		},
		{
			name:    "OpenAI Without Key",
			opts:    Options{Environ: []string{"SWITCHBOARD_REPLY_PROVIDER=openai"}},
			wantErr: "Reply.APIKey",
		},
		{
			name:    "Bad Duration",
			opts:    Options{Environ: []string{"SWITCHBOARD_REPLY_TIMEOUT=soon"}},
			wantErr: "decode config",
		},
		{
			name:    "Unknown Key",
			opts:    Options{Environ: []string{"SWITCHBOARD_LOG_COLOR=red"}},
			wantErr: "color",
		},
		{
			name:    "Step Limit",
			opts:    Options{Environ: []string{"SWITCHBOARD_ENGINE_STEP_LIMIT=0"}},
			wantErr: "Engine.StepLimit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
