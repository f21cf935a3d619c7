package agents

import (
	"context"
	"strings"

	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/schema"
)

// Input one estimation request
type Input struct {
	// Image staged meal photo
	Image components.ImageFile
	// Hint optional free text from the user, e.g. "the glass holds orange juice"
	Hint string
}

// Estimator asks a vision model for a structured NutritionEstimate of a meal photo.
// Each Run uploads the image once and issues exactly one generation request, failures are never retried.
type Estimator struct {
	Config
	startHook func(context.Context, *Estimator, *Input)
	endHook   func(context.Context, *Estimator, *Input, *schema.NutritionEstimate, *components.LLMResponse)
	errorHook func(context.Context, *Estimator, *Input, *components.LLMResponse, error)
}

// NewEstimator initializes the Estimator
func NewEstimator(options ...Option) *Estimator {
	ret := &Estimator{Config: newConfig(options)}
	if ret.systemPromptGenerator == nil {
		ret.systemPromptGenerator = NutritionPrompt()
	}
	if ret.name == "" {
		ret.name = "estimator"
	}
	return ret
}

func (e *Estimator) SetStartHook(fn func(context.Context, *Estimator, *Input)) {
	e.startHook = fn
}

func (e *Estimator) SetEndHook(fn func(context.Context, *Estimator, *Input, *schema.NutritionEstimate, *components.LLMResponse)) {
	e.endHook = fn
}

func (e *Estimator) SetErrorHook(fn func(context.Context, *Estimator, *Input, *components.LLMResponse, error)) {
	e.errorHook = fn
}

// Run estimates the meal in input.Image into output.
// output is only written when the response passed validation.
func (e *Estimator) Run(ctx context.Context, input *Input, output *schema.NutritionEstimate, apiResp *components.LLMResponse) error {
	if fn := e.startHook; fn != nil {
		fn(ctx, e, input)
	}
	if err := e.run(ctx, input, output, apiResp); err != nil {
		if fn := e.errorHook; fn != nil {
			fn(ctx, e, input, apiResp, err)
		}
		return err
	}
	if fn := e.endHook; fn != nil {
		fn(ctx, e, input, output, apiResp)
	}
	return nil
}

func (e *Estimator) run(ctx context.Context, input *Input, output *schema.NutritionEstimate, apiResp *components.LLMResponse) error {
	if err := e.checkReady(); err != nil {
		return err
	}
	if input == nil || input.Image == nil {
		return components.NewInvalidInputError("no image to estimate")
	}
	prompt := e.SystemPrompt(hintContext(strings.TrimSpace(input.Hint))...)
	raw, err := e.exchange(ctx, input.Image, prompt, output, apiResp)
	if err != nil {
		return err
	}
	est, err := schema.Decode(raw)
	if err != nil {
		return err
	}
	*output = *est
	return nil
}

// Estimate is a shortcut of Run without hint and response metadata
func (e *Estimator) Estimate(ctx context.Context, file components.ImageFile) (*schema.NutritionEstimate, error) {
	ret := new(schema.NutritionEstimate)
	if err := e.Run(ctx, &Input{Image: file}, ret, nil); err != nil {
		return nil, err
	}
	return ret, nil
}
