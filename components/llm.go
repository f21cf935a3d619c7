package components

import (
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
)

// LLMResponse provider chat response metadata
type LLMResponse struct {
	ID        string    `json:"id,omitempty"`
	Provider  Provider  `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	Usage     *LLMUsage `json:"usage,omitempty"`
	Timestamp int64     `json:"ts,omitempty"`
	// FinishReason provider specific stop reason
	FinishReason string `json:"finish_reason,omitempty"`
}

// FromOpenAI convert response from openai
func (r *LLMResponse) FromOpenAI(v *openai.ChatCompletionResponse) {
	r.ID = v.ID
	r.Provider = ProviderOpenAI
	r.Model = v.Model
	r.Timestamp = v.Created
	r.Usage = &LLMUsage{
		InputTokens:  int64(v.Usage.PromptTokens),
		OutputTokens: int64(v.Usage.CompletionTokens),
	}
	if len(v.Choices) > 0 {
		r.FinishReason = string(v.Choices[0].FinishReason)
	}
}

// FromAnthropic convert response from anthropic
func (r *LLMResponse) FromAnthropic(v *anthropic.MessagesResponse) {
	r.ID = v.ID
	r.Provider = ProviderAnthropic
	r.Model = string(v.Model)
	r.Timestamp = time.Now().Unix()
	r.Usage = &LLMUsage{
		InputTokens:  int64(v.Usage.InputTokens),
		OutputTokens: int64(v.Usage.OutputTokens),
	}
	r.FinishReason = string(v.StopReason)
}

// FromGemini convert response from gemini
func (r *LLMResponse) FromGemini(model string, v *genai.GenerateContentResponse) {
	r.Provider = ProviderGemini
	r.Model = model
	r.Timestamp = time.Now().Unix()
	if v.UsageMetadata != nil && (v.UsageMetadata.PromptTokenCount > 0 || v.UsageMetadata.CandidatesTokenCount > 0) {
		r.Usage = &LLMUsage{
			InputTokens:  int64(v.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(v.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(v.Candidates) > 0 && v.Candidates[0] != nil {
		r.FinishReason = fmt.Sprint(v.Candidates[0].FinishReason)
	}
}

type LLMUsage struct {
	InputTokens  int64 `json:"input_tokens,omitempty"`
	OutputTokens int64 `json:"output_tokens,omitempty"`
}
