package agents

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/components/ingest"
	"github.com/bububa/calorielens/schema"
)

// Mode selects how a meal photo is turned into an estimate
type Mode = string

const (
	// ModeStructured the vision model returns the whole NutritionEstimate
	ModeStructured Mode = "structured"
	// ModeLookup the vision model writes a food query that is resolved by a nutrition database
	ModeLookup Mode = "lookup"
)

// NutritionLookup resolves a free text food query into an estimate and the full per item facts
type NutritionLookup interface {
	Lookup(ctx context.Context, query string) (*schema.NutritionEstimate, []schema.NutritionFacts, error)
}

// Request one user action: the uploaded bytes and their declared extension
type Request struct {
	Data []byte
	Ext  string
	Hint string
}

// Result outcome of one request, either Estimate or Err is set
type Result struct {
	RequestID string                    `json:"request_id"`
	Mode      Mode                      `json:"mode"`
	Estimate  *schema.NutritionEstimate `json:"estimate,omitempty"`
	Query     string                    `json:"query,omitempty"`
	Facts     []schema.NutritionFacts   `json:"facts,omitempty"`
	Provider  components.Provider       `json:"provider,omitempty"`
	Model     string                    `json:"model,omitempty"`
	Usage     *components.LLMUsage      `json:"usage,omitempty"`
	Elapsed   time.Duration             `json:"elapsed"`
	Err       error                     `json:"-"`
	Kind      components.ErrorKind      `json:"-"`
}

// OK reports whether the request produced an estimate
func (r Result) OK() bool {
	return r.Err == nil && r.Estimate != nil
}

// Pipeline stages an upload, runs it through the configured mode and always releases the staged file
type Pipeline struct {
	ingestor     *ingest.Ingestor
	estimator    *Estimator
	queryBuilder *QueryBuilder
	lookup       NutritionLookup
	mode         Mode
	logger       *slog.Logger
}

type PipelineOption func(p *Pipeline)

func WithIngestor(ingestor *ingest.Ingestor) PipelineOption {
	return func(p *Pipeline) {
		p.ingestor = ingestor
	}
}

func WithEstimator(estimator *Estimator) PipelineOption {
	return func(p *Pipeline) {
		p.estimator = estimator
	}
}

func WithQueryBuilder(builder *QueryBuilder) PipelineOption {
	return func(p *Pipeline) {
		p.queryBuilder = builder
	}
}

func WithLookup(lookup NutritionLookup) PipelineOption {
	return func(p *Pipeline) {
		p.lookup = lookup
	}
}

func WithMode(mode Mode) PipelineOption {
	return func(p *Pipeline) {
		p.mode = mode
	}
}

func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// NewPipeline returns a new Pipeline, structured mode by default
func NewPipeline(options ...PipelineOption) *Pipeline {
	ret := new(Pipeline)
	for _, opt := range options {
		opt(ret)
	}
	if ret.ingestor == nil {
		ret.ingestor = ingest.New()
	}
	if ret.mode == "" {
		ret.mode = ModeStructured
	}
	if ret.logger == nil {
		ret.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return ret
}

func (p *Pipeline) Mode() Mode {
	return p.mode
}

// Ready returns the ConfigurationError that would fail every request, nil when the pipeline can serve
func (p *Pipeline) Ready() error {
	switch p.mode {
	case ModeStructured:
		if p.estimator == nil {
			return components.NewConfigurationError("mode", "structured mode needs an estimator")
		}
		return p.estimator.checkReady()
	case ModeLookup:
		if p.queryBuilder == nil {
			return components.NewConfigurationError("mode", "lookup mode needs a query builder")
		}
		if p.lookup == nil {
			return components.NewConfigurationError("CALORIE_NINJAS_API_KEY", "lookup mode needs a nutrition database")
		}
		return p.queryBuilder.checkReady()
	}
	return components.NewConfigurationError("mode", "unsupported mode %q", p.mode)
}

// Run handles one request. Configuration is checked before anything is written;
// the staged image is removed on every path.
func (p *Pipeline) Run(ctx context.Context, req *Request) *Result {
	start := time.Now()
	ret := &Result{
		RequestID: xid.New().String(),
		Mode:      p.mode,
	}
	err := p.run(ctx, req, ret)
	ret.Elapsed = time.Since(start)
	if err != nil {
		ret.Err = err
		ret.Kind = components.KindOf(err)
		ret.Estimate = nil
		ret.Facts = nil
		p.logger.ErrorContext(ctx, "estimate failed",
			slog.String("request_id", ret.RequestID),
			slog.String("mode", p.mode),
			slog.String("kind", ret.Kind.String()),
			slog.Duration("elapsed", ret.Elapsed),
			slog.Any("error", err),
		)
		return ret
	}
	p.logger.InfoContext(ctx, "estimate finished",
		slog.String("request_id", ret.RequestID),
		slog.String("mode", p.mode),
		slog.Int("items", len(ret.Estimate.Items)),
		slog.Float64("total_calories_kcal", ret.Estimate.TotalCaloriesKcal),
		slog.Duration("elapsed", ret.Elapsed),
	)
	return ret
}

func (p *Pipeline) run(ctx context.Context, req *Request, ret *Result) error {
	if err := p.Ready(); err != nil {
		return err
	}
	if req == nil {
		return components.NewInvalidInputError("empty request")
	}
	file, err := p.ingestor.Ingest(req.Data, req.Ext)
	if err != nil {
		return err
	}
	defer file.Close()
	if declared := file.DeclaredMIMEType(); declared != file.MIMEType() {
		p.logger.WarnContext(ctx, "image content does not match its extension",
			slog.String("request_id", ret.RequestID),
			slog.String("declared", declared),
			slog.String("detected", file.MIMEType()),
		)
	}
	apiResp := new(components.LLMResponse)
	defer func() {
		ret.Usage = apiResp.Usage
		if apiResp.Model != "" {
			ret.Model = apiResp.Model
		}
	}()
	if p.mode == ModeLookup {
		ret.Provider = p.queryBuilder.Provider()
		ret.Model = p.queryBuilder.Model()
		query, err := p.queryBuilder.Build(ctx, file, req.Hint, apiResp)
		if err != nil {
			return err
		}
		ret.Query = query
		lookupCtx, cancel := context.WithTimeout(ctx, p.queryBuilder.Timeout())
		defer cancel()
		est, facts, err := p.lookup.Lookup(lookupCtx, query)
		if err != nil {
			return components.AsProviderError("nutrition lookup", err)
		}
		ret.Estimate = est
		ret.Facts = facts
		return nil
	}
	ret.Provider = p.estimator.Provider()
	ret.Model = p.estimator.Model()
	est := new(schema.NutritionEstimate)
	if err := p.estimator.Run(ctx, &Input{Image: file, Hint: req.Hint}, est, apiResp); err != nil {
		return err
	}
	ret.Estimate = est
	return nil
}
