// Package app wires the configured components into a runnable system: logger,
// tracing, embedding provider, vector index, snapshot store, and the query
// engine with its optional mirror and cache.
package app

import (
	"context"
	"os"

	datagraph "github.com/devcareer/compass-backend/internal/data/graph"
	"github.com/devcareer/compass-backend/internal/data/snapshotstore"
	"github.com/devcareer/compass-backend/internal/embeddings"
	"github.com/devcareer/compass-backend/internal/engine"
	"github.com/devcareer/compass-backend/internal/graph"
	"github.com/devcareer/compass-backend/internal/insights"
	"github.com/devcareer/compass-backend/internal/observability"
	"github.com/devcareer/compass-backend/internal/platform/logger"
	"github.com/devcareer/compass-backend/internal/platform/neo4jdb"
	"github.com/devcareer/compass-backend/internal/platform/openai"
	"github.com/devcareer/compass-backend/internal/roles"
	"github.com/devcareer/compass-backend/internal/vectorindex"
)

type App struct {
	Log      *logger.Logger
	Config   Config
	Engine   *engine.Service
	Analyzer *insights.Analyzer
	Store    *snapshotstore.Store

	neo4j         *neo4jdb.Client
	cache         *engine.RedisAnswerCache
	traceShutdown func(context.Context) error
}

// New builds the whole system from the environment. Optional backends that
// are not configured (snapshot store, neo4j, redis) come back nil and the app
// runs without them; a configured backend that fails to connect is an error.
func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}

	traceShutdown := observability.InitTracing(ctx, log, observability.TracingConfig{
		ServiceName: "compass",
		Environment: cfg.Environment,
		Version:     cfg.ServiceVersion,
	})

	var model embeddings.ModelClient
	if os.Getenv("OPENAI_API_KEY") != "" {
		client, err := openai.NewClient(log)
		if err != nil {
			log.Warn("openai client init failed; embeddings use hash fallback", "error", err)
		} else {
			model = client
		}
	} else {
		log.Info("no OPENAI_API_KEY; embeddings use hash fallback")
	}
	embedder := embeddings.NewProvider(log, model, cfg.EmbedDim)

	index, err := vectorindex.FromEnv(log)
	if err != nil {
		return nil, err
	}

	catalog, err := roles.LoadDefault()
	if err != nil {
		return nil, err
	}

	builder := graph.NewBuilder(log, embedder, graph.BuilderConfig{
		SimilarityThreshold: cfg.SimilarityThreshold,
	})

	var opts []engine.Option
	neo4jClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		return nil, err
	}
	if neo4jClient != nil {
		opts = append(opts, engine.WithMirror(datagraph.NewCareerGraphMirror(log, neo4jClient)))
	}

	cache, err := engine.NewRedisAnswerCacheFromEnv(log)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		opts = append(opts, engine.WithAnswerCache(cache))
	}

	store, err := snapshotstore.NewFromEnv(log)
	if err != nil {
		return nil, err
	}

	svc := engine.NewService(log, embedder, index, catalog, builder, engine.Config{
		TopK:       cfg.TopK,
		MinOverlap: cfg.MinOverlap,
	}, opts...)

	return &App{
		Log:           log,
		Config:        cfg,
		Engine:        svc,
		Analyzer:      insights.NewAnalyzer(log),
		Store:         store,
		neo4j:         neo4jClient,
		cache:         cache,
		traceShutdown: traceShutdown,
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.Log.Warn("answer cache close failed", "error", err)
		}
	}
	if a.neo4j != nil {
		if err := a.neo4j.Close(ctx); err != nil {
			a.Log.Warn("neo4j close failed", "error", err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Log.Warn("snapshot store close failed", "error", err)
		}
	}
	if a.traceShutdown != nil {
		if err := a.traceShutdown(ctx); err != nil {
			a.Log.Warn("trace shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
