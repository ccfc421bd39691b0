// Package config loads the switchboard configuration.
//
// Sources are layered, later ones winning: built-in defaults, a YAML file,
// a .env file, then the process environment. SWITCHBOARD_<SECTION>_<KEY> sets any
// key (SWITCHBOARD_STORE_DRIVER=redis); the Azure OpenAI variables
// AZURE_OPENAI_API_KEY, AZURE_OPENAI_API_BASE, AZURE_DEPLOYMENT_NAME and
// OPENAI_API_VERSION select the azure provider.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/switchboard/internal/validator"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SWITCHBOARD_"

type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Engine EngineConfig `mapstructure:"engine"`
	Store  StoreConfig  `mapstructure:"store"`
	Reply  ReplyConfig  `mapstructure:"reply"`
	Server ServerConfig `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type EngineConfig struct {
	Name      string `mapstructure:"name"`
	StepLimit int    `mapstructure:"step_limit" validate:"min=1"`
	// Flow is a flow file path; empty selects the built-in support flow.
	Flow             string        `mapstructure:"flow"`
	DiacriticFolding bool          `mapstructure:"diacritic_folding"`
	LockTTL          time.Duration `mapstructure:"lock_ttl" validate:"min=0"`
	Metrics          bool          `mapstructure:"metrics"`
}

type StoreConfig struct {
	Driver     string        `mapstructure:"driver" validate:"oneof=memory file redis sqlite postgres mongo"`
	Path       string        `mapstructure:"path" validate:"required_if=Driver file,required_if=Driver sqlite"`
	URL        string        `mapstructure:"url" validate:"required_if=Driver redis,required_if=Driver postgres,required_if=Driver mongo"`
	Database   string        `mapstructure:"database"`
	Collection string        `mapstructure:"collection"`
	Table      string        `mapstructure:"table"`
	Prefix     string        `mapstructure:"prefix"`
	TTL        time.Duration `mapstructure:"ttl" validate:"min=0"`
	Codec      string        `mapstructure:"codec" validate:"oneof=json msgpack json+zstd msgpack+zstd"`
	// Lock enables the distributed session lock (redis driver only).
	Lock bool `mapstructure:"lock"`
	// EncryptionKey is a base64 AES-256 key; FallbackKeys are older keys still accepted on load.
	EncryptionKey  string   `mapstructure:"encryption_key" validate:"omitempty,base64"`
	FallbackKeys   []string `mapstructure:"fallback_keys" validate:"dive,base64"`
	RedactPatterns []string `mapstructure:"redact_patterns"`
}

type ReplyConfig struct {
	Provider     string        `mapstructure:"provider" validate:"oneof=openai azure scripted echo"`
	APIKey       string        `mapstructure:"api_key" validate:"required_if=Provider openai,required_if=Provider azure"`
	BaseURL      string        `mapstructure:"base_url" validate:"required_if=Provider azure"`
	Model        string        `mapstructure:"model"`
	Deployment   string        `mapstructure:"deployment" validate:"required_if=Provider azure"`
	APIVersion   string        `mapstructure:"api_version"`
	MaxTokens    int           `mapstructure:"max_tokens" validate:"min=0"`
	Temperature  float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"min=0"`
	RateLimit    float64       `mapstructure:"rate_limit" validate:"min=0"`
	Burst        int           `mapstructure:"burst" validate:"min=0"`
	Retries      int           `mapstructure:"retries" validate:"min=0"`
	// Script maps prompt fragments to canned replies for the scripted provider.
	Script map[string]string `mapstructure:"script"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() map[string]any {
	return map[string]any{
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"engine": map[string]any{
			"name":       "support",
			"step_limit": 100,
			"lock_ttl":   "30s",
		},
		"store": map[string]any{
			"driver": "memory",
			"codec":  "json",
			"prefix": "switchboard:",
		},
		"reply": map[string]any{
			"provider":    "echo",
			"model":       "gpt-4o-mini",
			"temperature": 0.7,
			"timeout":     "30s",
			"retries":     2,
		},
		"server": map[string]any{
			"addr":             ":8080",
			"shutdown_timeout": "5s",
		},
	}
}

// Options controls Load.
type Options struct {
	// File is the YAML config path. A missing file is an error only when set explicitly.
	File string
	// DotEnv is the .env path; missing files are ignored.
	DotEnv string
	// Environ replaces os.Environ, for tests.
	Environ []string
}

// Load builds the configuration from every source and validates it.
func Load(opts Options) (*Config, error) {
	raw := Defaults()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		var file map[string]any
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", opts.File, err)
		}
		merge(raw, file)
	}

	env, err := environment(opts)
	if err != nil {
		return nil, err
	}
	overlayEnv(raw, env)

	cfg, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// environment merges the .env file under the process (or given) environment.
func environment(opts Options) (map[string]string, error) {
	env := map[string]string{}
	if opts.DotEnv != "" {
		dot, err := godotenv.Read(opts.DotEnv)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", opts.DotEnv, err)
		}
		for k, v := range dot {
			env[k] = v
		}
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env, nil
}

// azureEnv maps the Azure OpenAI variables to reply keys.
var azureEnv = map[string]string{
	"AZURE_OPENAI_API_KEY":  "api_key",
	"AZURE_OPENAI_API_BASE": "base_url",
	"AZURE_DEPLOYMENT_NAME": "deployment",
	"OPENAI_API_VERSION":    "api_version",
}

func overlayEnv(raw map[string]any, env map[string]string) {
	azure := false
	for name, key := range azureEnv {
		if v, ok := env[name]; ok && v != "" {
			section(raw, "reply")[key] = v
			azure = azure || name == "AZURE_OPENAI_API_KEY"
		}
	}
	if azure {
		section(raw, "reply")["provider"] = "azure"
	} else if v := env["OPENAI_API_KEY"]; v != "" {
		section(raw, "reply")["api_key"] = v
	}

	for name, v := range env {
		rest, ok := strings.CutPrefix(name, EnvPrefix)
		if !ok {
			continue
		}
		sec, key, ok := strings.Cut(strings.ToLower(rest), "_")
		if !ok || key == "" {
			continue
		}
		if _, known := raw[sec]; !known {
			continue
		}
		section(raw, sec)[key] = v
	}
}

func section(raw map[string]any, name string) map[string]any {
	if m, ok := raw[name].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	raw[name] = m
	return m
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

func decode(raw map[string]any) (*Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
