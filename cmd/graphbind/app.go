package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hanpama/graphbind/internal/config"
	"github.com/hanpama/graphbind/internal/datafetcher"
	"github.com/hanpama/graphbind/internal/demo"
	"github.com/hanpama/graphbind/internal/eventbus"
	"github.com/hanpama/graphbind/internal/execution"
	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/logging"
	"github.com/hanpama/graphbind/internal/scalars"
)

// app is everything a command needs, wired from one config.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	bus     *eventbus.Bus
	graph   *graph.Schema
	service *execution.Service
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	reg := scalars.Default()
	g, lookup, err := demo.Build(demo.New(), reg, log)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	fetcher := datafetcher.New(g, reg, lookup,
		datafetcher.WithMaxConcurrency(cfg.Execution.MaxConcurrency),
		datafetcher.WithLogger(log))

	bus := eventbus.New()
	svc, err := execution.NewService(g, reg, fetcher,
		execution.WithLogger(log),
		execution.WithEmitter(&execution.BusEmitter{Bus: bus}),
		execution.WithErrorPolicy(execution.ErrorPolicy{
			DefaultMessage: cfg.Errors.DefaultMessage,
			Hide:           cfg.Errors.Hide,
			Show:           cfg.Errors.Show,
		}),
		execution.WithDocumentCache(cfg.Execution.DocumentCacheSize),
		execution.WithBatchCache(cfg.Execution.BatchCache),
		execution.WithLogPayload(cfg.LogPayload))
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, bus: bus, graph: g, service: svc}, nil
}
