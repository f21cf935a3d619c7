package agents

import (
	"context"
	"strings"

	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/schema"
)

// QueryBuilder describes a meal photo as a one sentence nutrition database query
type QueryBuilder struct {
	Config
}

// NewQueryBuilder initializes the QueryBuilder
func NewQueryBuilder(options ...Option) *QueryBuilder {
	ret := &QueryBuilder{Config: newConfig(options)}
	if ret.systemPromptGenerator == nil {
		ret.systemPromptGenerator = QueryPrompt()
	}
	if ret.name == "" {
		ret.name = "query_builder"
	}
	return ret
}

// Build returns the query describing the food in file, whitespace and newlines collapsed to single spaces
func (b *QueryBuilder) Build(ctx context.Context, file components.ImageFile, hint string, apiResp *components.LLMResponse) (string, error) {
	if err := b.checkReady(); err != nil {
		return "", err
	}
	if file == nil {
		return "", components.NewInvalidInputError("no image to describe")
	}
	prompt := b.SystemPrompt(hintContext(strings.TrimSpace(hint))...)
	var query schema.String
	txt, err := b.exchange(ctx, file, prompt, query, apiResp)
	if err != nil {
		return "", err
	}
	if err := query.Unmarshal([]byte(strings.Join(strings.Fields(txt), " "))); err != nil {
		return "", err
	}
	return query.String(), nil
}
