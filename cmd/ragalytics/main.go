// Command ragalytics serves the query routing engine over HTTP and,
// optionally, as an MCP stdio server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sweetpotato0/ragalytics/analytics"
	"github.com/sweetpotato0/ragalytics/api"
	"github.com/sweetpotato0/ragalytics/cache"
	"github.com/sweetpotato0/ragalytics/config"
	rediscache "github.com/sweetpotato0/ragalytics/contrib/cache/redis"
	mongosink "github.com/sweetpotato0/ragalytics/contrib/diagnostics/mongo"
	openaiembedder "github.com/sweetpotato0/ragalytics/contrib/embedder/openai"
	claudellm "github.com/sweetpotato0/ragalytics/contrib/llm/claude"
	geminillm "github.com/sweetpotato0/ragalytics/contrib/llm/gemini"
	openaillm "github.com/sweetpotato0/ragalytics/contrib/llm/openai"
	"github.com/sweetpotato0/ragalytics/contrib/vector/inmemory"
	"github.com/sweetpotato0/ragalytics/contrib/vector/pg"
	"github.com/sweetpotato0/ragalytics/general"
	"github.com/sweetpotato0/ragalytics/llm"
	mcpserver "github.com/sweetpotato0/ragalytics/mcp"
	"github.com/sweetpotato0/ragalytics/orchestrator"
	"github.com/sweetpotato0/ragalytics/persona"
	"github.com/sweetpotato0/ragalytics/pkg/logging"
	"github.com/sweetpotato0/ragalytics/pkg/telemetry"
	"github.com/sweetpotato0/ragalytics/retrieval"
	"github.com/sweetpotato0/ragalytics/router"
	"github.com/sweetpotato0/ragalytics/store"
	"github.com/sweetpotato0/ragalytics/vector"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		logging.Logger().Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := logging.Logger()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "ragalytics", ServiceVersion: version})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	provider, err := buildProvider(ctx, cfg)
	if err != nil {
		return err
	}

	sqlStore, err := store.Open(cfg.SQLDriver, cfg.SQLDSN)
	if err != nil {
		return err
	}
	defer sqlStore.Close()
	if err := sqlStore.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := sqlStore.Seed(ctx, store.SampleProducts()); err != nil {
		return err
	}

	vecStore, err := buildVectorStore(cfg)
	if err != nil {
		return err
	}
	embedder := openaiembedder.New(cfg.APIKey, cfg.BaseURL, cfg.EmbedModel, cfg.EmbedDimension)
	index := retrieval.NewIndex(vecStore, embedder)
	if err := retrieval.EnsureSeeded(ctx, index); err != nil {
		return fmt.Errorf("seed passage index: %w", err)
	}

	var routerOpts []router.Option
	if cfg.MongoURI != "" {
		sinkCfg := mongosink.DefaultConfig()
		sinkCfg.URI = cfg.MongoURI
		sink, err := mongosink.New(ctx, sinkCfg)
		if err != nil {
			return fmt.Errorf("connect diagnostic sink: %w", err)
		}
		defer sink.Close(context.Background())
		routerOpts = append(routerOpts, router.WithSink(sink))
	}
	classifier := router.New(provider, routerOpts...)

	var engineOpts []orchestrator.Option
	if cfg.RedisAddr != "" {
		redisCache, err := rediscache.New(ctx, rediscache.Config{Addr: cfg.RedisAddr})
		if err != nil {
			return fmt.Errorf("connect response cache: %w", err)
		}
		defer redisCache.Close()
		engineOpts = append(engineOpts, orchestrator.WithCache(redisCache, cfg.CacheTTL))
	} else {
		engineOpts = append(engineOpts, orchestrator.WithCache(cache.Noop{}, 0))
	}

	engine := orchestrator.New(
		classifier,
		analytics.New(provider, sqlStore, analytics.WithDialect(dialectFor(cfg.SQLDriver))),
		retrieval.New(provider, index),
		general.New(provider),
		persona.NewStyler(provider),
		engineOpts...,
	)

	if cfg.MCPEnabled {
		logger.Info("serving over MCP stdio")
		return mcpserver.Serve(ctx, mcpserver.NewServer(engine, version))
	}

	srv := api.NewServer(engine, version, map[string]api.HealthChecker{
		"sql":   sqlStore,
		"index": indexCheck{vecStore},
	})
	return srv.ListenAndServe(ctx, cfg.HTTPPort)
}

// indexCheck probes the vector store for the health endpoint.
type indexCheck struct {
	store vector.Store
}

func (c indexCheck) Ping(ctx context.Context) error {
	_, err := c.store.Count(ctx)
	return err
}

func buildProvider(ctx context.Context, cfg *config.Config) (llm.StructuredClient, error) {
	switch cfg.Provider {
	case "openai":
		return openaillm.New(openaillm.DefaultConfig().
			WithAPIKey(cfg.APIKey).
			WithBaseURL(cfg.BaseURL).
			WithModel(cfg.Model)), nil
	case "claude":
		c := claudellm.DefaultConfig(cfg.APIKey)
		c.Model = cfg.Model
		c.BaseURL = cfg.BaseURL
		return claudellm.New(c), nil
	case "gemini":
		c := geminillm.DefaultConfig(cfg.APIKey)
		c.Model = cfg.Model
		return geminillm.New(ctx, c)
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

func buildVectorStore(cfg *config.Config) (vector.Store, error) {
	switch cfg.VectorBackend {
	case "pgvector":
		pgCfg := pg.DefaultConfig()
		pgCfg.DSN = cfg.PGVectorDSN
		pgCfg.Dimension = cfg.EmbedDimension
		return pg.New(pgCfg)
	case "memory":
		return inmemory.New(), nil
	}
	return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
}

func dialectFor(driver string) string {
	if driver == "postgres" {
		return "PostgreSQL"
	}
	return "SQLite"
}
