package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"social-insight/internal/analyzer"
	"social-insight/internal/batch"
	"social-insight/internal/export"
	"social-insight/internal/insights"
	"social-insight/internal/llm"
	"social-insight/internal/llm/gemini"
	openai "social-insight/internal/llm/openai"
	"social-insight/internal/records"
	"social-insight/internal/services/health"
	"social-insight/internal/shared/config"
	"social-insight/internal/shared/server"
	"social-insight/internal/shared/storage/object"
	localstore "social-insight/internal/shared/storage/object/local"
	s3store "social-insight/internal/shared/storage/object/s3"
	"social-insight/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	Store           object.ObjectStore
	LLM             llm.Client
	Analyzer        *analyzer.Analyzer
	Records         *records.Store
	Batches         *batch.Orchestrator
	Exporter        *export.Exporter
	Insights        *insights.Service
	InsightsHandler *insights.Handler
	Health          *health.Service
}

// Build prepares every dependency and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Assemble(cfg, client, store), nil
}

// Assemble wires the domain services around an LLM client and an object store.
func Assemble(cfg config.Config, client llm.Client, store object.ObjectStore) *App {
	an := analyzer.New(client, cfg.AnalyzerTimeout)
	recs := records.NewStore()
	batches := batch.New(an, recs)
	exporter := export.New(export.ExcelWriter{})
	svc := insights.NewService(recs, batches, exporter, store)
	handler := insights.NewHandler(svc, server.SubmitLimiter(cfg))
	_, placeholder := client.(llm.PlaceholderClient)
	healthSvc := health.NewService(cfg.LLMProvider, client != nil && !placeholder, cfg.ObjectStoreType, recs.Len, batches.Progress)

	app := &App{
		Config:          cfg,
		Store:           store,
		LLM:             client,
		Analyzer:        an,
		Records:         recs,
		Batches:         batches,
		Exporter:        exporter,
		Insights:        svc,
		InsightsHandler: handler,
		Health:          healthSvc,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		InsightsHandler: handler,
		Health:          healthSvc,
	})
	return app
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "none":
		return llm.PlaceholderClient{}, nil
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return devFallback(cfg, "OPENAI_API_KEY")
		}
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.AnalyzerTimeout)
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		return client, nil
	default:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return devFallback(cfg, "GEMINI_API_KEY")
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, cfg.SearchGrounding)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return client, nil
	}
}

// devFallback keeps local environments bootable without credentials; every analysis then fails
// with llm.ErrNotImplemented and is recorded as an item error.
func devFallback(cfg config.Config, key string) (llm.Client, error) {
	if !cfg.IsDevLike() {
		return nil, fmt.Errorf("%s is required", key)
	}
	telemetry.Warn("bootstrap.llm_placeholder", map[string]any{
		"provider": cfg.LLMProvider,
		"missing":  key,
	})
	return llm.PlaceholderClient{}, nil
}
