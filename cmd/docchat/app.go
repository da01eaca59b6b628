package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docchat/internal/budget"
	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/corpus"
	"docchat/internal/credential"
	"docchat/internal/domain"
	"docchat/internal/extract"
	"docchat/internal/kvstore"
	"docchat/internal/kvstore/memory"
	"docchat/internal/kvstore/redis"
	"docchat/internal/llm"
	"docchat/internal/llm/extractive"
	"docchat/internal/llm/openai"
	"docchat/internal/logging"
	"docchat/internal/metrics"
	"docchat/internal/service"
	"docchat/internal/stream"
	"docchat/internal/summarizer"
)

const maxFileBytes = 50 << 20

type app struct {
	cfg     *config.AppConfig
	logger  *zap.Logger
	store   kvstore.Store
	index   *corpus.Index
	service *service.ChatService
	metrics *http.Server
}

// buildApp assembles the components selected by cfg. quiet keeps logs off
// the terminal unless a log file is configured.
func buildApp(ctx context.Context, cfg *config.AppConfig, quiet bool) (*app, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		Development: cfg.Log.Development,
		Quiet:       quiet,
	})
	if err != nil {
		return nil, err
	}

	var st kvstore.Store
	switch cfg.Store.Type {
	case "memory", "":
		st = memory.NewStorage()
	case "redis":
		if cfg.Store.Redis == nil {
			return nil, errors.New("redis store config missing")
		}
		rs := redis.NewStorage(redis.Config{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
			Timeout:  time.Duration(cfg.Store.Redis.TimeoutSecs) * time.Second,
		})
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.Store.Redis.Addr, err)
		}
		st = rs
	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store.Type)
	}

	sum := summarizer.NewFrequencySummarizer()

	var client llm.Client
	var provider credential.Provider = credential.None{}
	var creds service.CredentialStore
	switch cfg.Generator.Type {
	case "extractive", "":
		ex := cfg.Generator.Extractive
		if ex == nil {
			ex = &config.ExtractiveConfig{}
		}
		client = extractive.NewClient(sum, extractive.Config{
			MaxSentences: ex.MaxSentences,
			Delay:        time.Duration(ex.DelayMillis) * time.Millisecond,
		})
	case "openai":
		if cfg.Generator.OpenAI == nil {
			return nil, errors.New("openai generator config missing")
		}
		oc := cfg.Generator.OpenAI
		client = openai.NewClient(openai.Config{
			BaseURL:    oc.BaseURL,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			MaxRetries: oc.Retries(),
		})
		cs := credential.NewStore(st)
		if err := cs.SeedFromEnv(ctx, oc.APIKeyEnv); err != nil {
			return nil, fmt.Errorf("seed credential: %w", err)
		}
		provider, creds = cs, cs
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Generator.Type)
	}

	a := &app{cfg: cfg, logger: logger, store: st}

	var m *metrics.Metrics
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		if m, err = metrics.New(reg); err != nil {
			return nil, err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		a.metrics = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	tracker := budget.NewTracker(cfg.Budget.TotalTokens)
	a.index = corpus.NewIndex(chunker.NewParagraphChunker(cfg.Chunker.MaxChunkChars))
	a.service = service.NewChatService(service.Deps{
		Extractor:    extract.NewFileExtractor(maxFileBytes),
		Index:        a.index,
		Summarizer:   sum,
		Orchestrator: stream.New(client, provider, tracker, logger),
		Budget:       tracker,
		Store:        st,
		Credentials:  creds,
		Metrics:      m,
		Logger:       logger,
	}, service.Options{
		Settings: domain.Settings{
			Model:             cfg.Settings.Model,
			Temperature:       cfg.Settings.Temperature,
			SystemInstruction: cfg.Settings.SystemInstruction,
		},
		TopK:                   cfg.Ranker.TopK,
		EstimatedTokensPerTurn: cfg.Budget.EstimatedTokensPerTurn,
		SummarySentences:       cfg.Summarizer.MaxSentences,
		ExportDir:              cfg.ExportDir,
	})
	logger.Info("docchat ready",
		zap.String("generator", client.Name()),
		zap.String("store", cfg.Store.Type),
		zap.Int("budget", cfg.Budget.TotalTokens))
	return a, nil
}

func (a *app) Close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.metrics.Shutdown(ctx)
		cancel()
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
