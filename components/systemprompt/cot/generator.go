package cot

import (
	"fmt"
	"strings"

	"github.com/bububa/calorielens/components/systemprompt"
)

// Generator is Chain-of-Thought system prompt generator
type Generator struct {
	systemprompt.BaseGenerator
	background      []string
	steps           []string
	outputInstructs []string
	jsonOutput      bool
}

var _ systemprompt.Generator = (*Generator)(nil)

// New returns a new system prompt Generator
func New(options ...Option) *Generator {
	ret := new(Generator)
	for _, opt := range options {
		opt(ret)
	}
	if len(ret.background) == 0 {
		ret.background = []string{"- This is a conversation with a helpful and friendly AI assistant."}
	}
	if ret.jsonOutput {
		ret.outputInstructs = append(ret.outputInstructs, "- Always respond using the proper JSON schema.")
	}
	return ret
}

func (g *Generator) Generate(extra ...systemprompt.ContextProvider) string {
	var (
		sections = map[string][]string{
			"IDENTITY and PURPOSE":     g.background,
			"INTERNAL ASSISTANT STEPS": g.steps,
			"OUTPUT INSTRUCTIONS":      g.outputInstructs,
		}
		promptParts []string
	)
	for _, title := range []string{"IDENTITY and PURPOSE", "INTERNAL ASSISTANT STEPS", "OUTPUT INSTRUCTIONS"} {
		content := sections[title]
		if len(content) > 0 {
			promptParts = append(promptParts, fmt.Sprintf("# %s", title))
			promptParts = append(promptParts, content...)
			promptParts = append(promptParts, "")
		}
	}
	providers := make([]systemprompt.ContextProvider, 0, len(g.ContextProviders())+len(extra))
	providers = append(providers, g.ContextProviders()...)
	providers = append(providers, extra...)
	var contextParts []string
	for _, provider := range providers {
		if info := provider.Info(); info != "" {
			contextParts = append(contextParts, fmt.Sprintf("## %s", provider.Title()), info, "")
		}
	}
	if len(contextParts) > 0 {
		promptParts = append(promptParts, "# EXTRA INFORMATION AND CONTEXT")
		promptParts = append(promptParts, contextParts...)
	}
	return strings.TrimSpace(strings.Join(promptParts, "\n"))
}
