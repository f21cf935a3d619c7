// Package bootstrap wires configuration into a ready to serve pipeline for the entry points
package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/bububa/calorielens/agents"
	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/components/ingest"
	"github.com/bububa/calorielens/components/providers"
	"github.com/bububa/calorielens/components/source"
	"github.com/bububa/calorielens/config"
	"github.com/bububa/calorielens/schema"
	"github.com/bububa/calorielens/tools"
	"github.com/bububa/calorielens/tools/calorieninjas"
)

// App the process wide services built once at startup
type App struct {
	Config   *config.Config
	Pipeline *agents.Pipeline
	logger   *slog.Logger
	model    components.VisionModel
}

// Build validates cfg and constructs the vision client, agents and pipeline.
// Nothing talks to the network here; a ConfigurationError is returned before any client exists.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	model, err := providers.New(ctx, providers.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	agentOpts := []agents.Option{
		agents.WithClient(model),
		agents.WithTimeout(time.Duration(cfg.Timeout)),
		agents.WithMaxTokens(cfg.MaxTokens),
		agents.WithLogger(logger),
	}
	if cfg.Temperature != nil {
		agentOpts = append(agentOpts, agents.WithTemperature(*cfg.Temperature))
	}
	pipelineOpts := []agents.PipelineOption{
		agents.WithIngestor(ingest.New(ingest.WithDir(cfg.TempDir), ingest.WithMaxBytes(cfg.MaxUploadBytes))),
		agents.WithMode(cfg.Mode),
		agents.WithPipelineLogger(logger),
	}
	switch cfg.Mode {
	case agents.ModeLookup:
		builder := agents.NewQueryBuilder(append(agentOpts, agents.WithModel(cfg.QueryModel))...)
		lookup := calorieninjas.New(
			calorieninjas.WithAPIKey(cfg.CalorieNinjas.APIKey),
			calorieninjas.WithBaseURL(cfg.CalorieNinjas.BaseURL),
			calorieninjas.WithTimeout(time.Duration(cfg.Timeout)),
			calorieninjas.WithToolOptions(lookupHooks(logger)...),
		)
		pipelineOpts = append(pipelineOpts, agents.WithQueryBuilder(builder), agents.WithLookup(lookup))
	default:
		estimator := agents.NewEstimator(append(agentOpts, agents.WithModel(cfg.Model))...)
		setEstimatorHooks(estimator, logger)
		pipelineOpts = append(pipelineOpts, agents.WithEstimator(estimator))
	}
	pipeline := agents.NewPipeline(pipelineOpts...)
	if err := pipeline.Ready(); err != nil {
		providers.Close(model)
		return nil, err
	}
	return &App{
		Config:   cfg,
		Pipeline: pipeline,
		logger:   logger,
		model:    model,
	}, nil
}

// Run handles one request
func (a *App) Run(ctx context.Context, req *agents.Request) *agents.Result {
	return a.Pipeline.Run(ctx, req)
}

// Load reads an image reference (path, http(s) URL or s3 URI) into a request
func (a *App) Load(ctx context.Context, ref string, hint string) (*agents.Request, error) {
	img, err := source.Load(ctx, ref, source.WithMaxBytes(a.Config.MaxUploadBytes))
	if err != nil {
		return nil, err
	}
	return &agents.Request{Data: img.Data, Ext: img.Ext, Hint: hint}, nil
}

// Close releases the vision client
func (a *App) Close() error {
	return providers.Close(a.model)
}

func setEstimatorHooks(e *agents.Estimator, logger *slog.Logger) {
	e.SetStartHook(func(ctx context.Context, e *agents.Estimator, in *agents.Input) {
		logger.DebugContext(ctx, "estimate started",
			slog.String("provider", e.Provider()),
			slog.String("model", e.Model()),
			slog.String("image", in.Image.ID()),
			slog.String("mime", in.Image.MIMEType()),
		)
	})
	e.SetEndHook(func(ctx context.Context, e *agents.Estimator, in *agents.Input, out *schema.NutritionEstimate, resp *components.LLMResponse) {
		attrs := []any{
			slog.String("provider", e.Provider()),
			slog.Int("items", len(out.Items)),
		}
		if resp != nil && resp.Usage != nil {
			attrs = append(attrs, slog.Int64("input_tokens", resp.Usage.InputTokens), slog.Int64("output_tokens", resp.Usage.OutputTokens))
		}
		if d := out.Reconcile(schema.DefaultTolerance); len(d) > 0 {
			attrs = append(attrs, slog.Any("discrepancies", d))
		}
		logger.DebugContext(ctx, "estimate received", attrs...)
	})
	e.SetErrorHook(func(ctx context.Context, e *agents.Estimator, in *agents.Input, resp *components.LLMResponse, err error) {
		logger.WarnContext(ctx, "estimate rejected",
			slog.String("provider", e.Provider()),
			slog.String("kind", components.KindOf(err).String()),
			slog.Any("error", err),
		)
	})
}

func lookupHooks(logger *slog.Logger) []tools.Option {
	return []tools.Option{
		tools.WithStartHook(func(ctx context.Context, t tools.ITool, in any) {
			if input, ok := in.(*calorieninjas.Input); ok {
				logger.DebugContext(ctx, "nutrition lookup", slog.String("tool", t.Title()), slog.String("query", input.Query))
			}
		}),
		tools.WithErrorHook(func(ctx context.Context, t tools.ITool, in any, err error) {
			logger.WarnContext(ctx, "nutrition lookup failed", slog.String("tool", t.Title()), slog.Any("error", err))
		}),
	}
}
