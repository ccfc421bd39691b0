package config

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/adapters/file"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/adapters/mongo"
	"github.com/aretw0/switchboard/pkg/adapters/postgres"
	"github.com/aretw0/switchboard/pkg/adapters/redis"
	"github.com/aretw0/switchboard/pkg/adapters/sqlite"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/flowfile"
	"github.com/aretw0/switchboard/pkg/flows/support"
	"github.com/aretw0/switchboard/pkg/graph"
	"github.com/aretw0/switchboard/pkg/observability"
	"github.com/aretw0/switchboard/pkg/persistence/codec"
	"github.com/aretw0/switchboard/pkg/persistence/middleware"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/reply"
)

// Stack is a fully wired engine and the resources it owns.
type Stack struct {
	Engine *switchboard.Engine
	Logger *slog.Logger

	// Registry holds the engine metrics; nil unless engine.metrics is set.
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	closers []func() error
}

// Close releases store connections.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// Build wires logger, store, reply generator, graph and engine from cfg.
func Build(ctx context.Context, cfg *Config) (*Stack, error) {
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	st := &Stack{Logger: logger}

	store, locker, closer, err := NewStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		st.closers = append(st.closers, closer)
	}

	gen, err := NewReply(cfg.Reply)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	g, err := NewGraph(cfg.Engine, gen)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	hooks := observability.LogHooks(logger)
	if cfg.Engine.Metrics {
		st.Registry = prometheus.NewRegistry()
		st.Metrics = observability.NewMetrics(st.Registry)
		hooks = domain.ComposeHooks(hooks, st.Metrics.Hooks())
	}

	opts := []switchboard.Option{
		switchboard.WithStore(store),
		switchboard.WithLogger(logger),
		switchboard.WithLifecycleHooks(hooks),
		switchboard.WithStepLimit(cfg.Engine.StepLimit),
		switchboard.WithName(cfg.Engine.Name),
		switchboard.WithLockTTL(cfg.Engine.LockTTL),
	}
	if locker != nil {
		opts = append(opts, switchboard.WithLocker(locker))
	}
	st.Engine, err = switchboard.New(g, opts...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// NewLogger builds the process logger.
func NewLogger(cfg LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, cfg.Format), nil
}

// NewStore opens the configured checkpoint store and applies the persistence middleware.
// The returned closer is nil for stores without connections.
func NewStore(ctx context.Context, cfg StoreConfig) (ports.CheckpointStore, ports.DistributedLocker, func() error, error) {
	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		store  ports.CheckpointStore
		locker ports.DistributedLocker
		closer func() error
	)
	switch cfg.Driver {
	case "memory":
		store = memory.NewStore(memory.WithTTL(cfg.TTL))
	case "file":
		store = file.New(cfg.Path, file.WithCodec(c))
	case "sqlite":
		s, err := sqlite.Open(cfg.Path, sqlite.WithCodec(c))
		if err != nil {
			return nil, nil, nil, err
		}
		store, closer = s, s.Close
	case "redis":
		s, err := redis.NewFromURL(cfg.URL, redis.WithTTL(cfg.TTL), redis.WithPrefix(cfg.Prefix), redis.WithCodec(c))
		if err != nil {
			return nil, nil, nil, err
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		store, closer = s, s.Close
		if cfg.Lock {
			locker = redis.NewLocker(s.Client(), cfg.Prefix)
		}
	case "postgres":
		var opts []postgres.Option
		if cfg.Table != "" {
			opts = append(opts, postgres.WithTable(cfg.Table))
		}
		s, err := postgres.Connect(ctx, cfg.URL, opts...)
		if err != nil {
			return nil, nil, nil, err
		}
		store = s
		closer = func() error { s.Close(); return nil }
	case "mongo":
		s, err := mongo.Connect(ctx, cfg.URL, cfg.Database, cfg.Collection)
		if err != nil {
			return nil, nil, nil, err
		}
		store = s
		closer = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.Close(ctx)
		}
	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	mws, err := storeMiddleware(cfg)
	if err != nil {
		if closer != nil {
			_ = closer()
		}
		return nil, nil, nil, err
	}
	return middleware.Chain(store, mws...), locker, closer, nil
}

func storeMiddleware(cfg StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.RedactPatterns) > 0 {
		mw, err := middleware.NewRedaction(cfg.RedactPatterns...)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		active, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("decode encryption key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.FallbackKeys {
			key, err := base64.StdEncoding.DecodeString(k)
			if err != nil {
				return nil, fmt.Errorf("decode fallback key %d: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryption(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// NewReply builds the reply generator with its timeout, rate limit and retry wrappers.
func NewReply(cfg ReplyConfig) (ports.ReplyGenerator, error) {
	var gen ports.ReplyGenerator
	switch cfg.Provider {
	case "openai", "azure":
		azure := cfg.Provider == "azure"
		model := cfg.Model
		if azure {
			model = cfg.Deployment
		}
		client, err := reply.NewOpenAI(reply.OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        model,
			Azure:        azure,
			APIVersion:   cfg.APIVersion,
			MaxTokens:    cfg.MaxTokens,
			Temperature:  cfg.Temperature,
			SystemPrompt: cfg.SystemPrompt,
		})
		if err != nil {
			return nil, err
		}
		gen = client
	case "scripted":
		gen = reply.NewScripted(cfg.Script)
	case "echo":
		return reply.NewScripted(nil), nil
	default:
		return nil, fmt.Errorf("unknown reply provider %q", cfg.Provider)
	}

	gen = reply.WithTimeout(gen, cfg.Timeout)
	if cfg.RateLimit > 0 {
		gen = reply.NewRateLimited(gen, cfg.RateLimit, cfg.Burst)
	}
	return reply.WithRetry(gen, cfg.Retries+1, 500*time.Millisecond), nil
}

// NewGraph compiles the configured flow file, or the built-in support flow.
func NewGraph(cfg EngineConfig, gen ports.ReplyGenerator) (*graph.Graph, error) {
	if cfg.Flow == "" {
		var opts []support.Option
		if cfg.DiacriticFolding {
			opts = append(opts, support.WithDiacriticFolding())
		}
		return support.New(gen, opts...)
	}
	flow, err := flowfile.Load(cfg.Flow)
	if err != nil {
		return nil, err
	}
	return flow.Compile(gen)
}
