package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/calorielens/components"
)

// Model is an OpenAI chat completion backed VisionModel.
// Images are sent inline as data URLs so Upload and Delete never call the API.
type Model struct {
	*openai.Client
}

var _ components.VisionModel = (*Model)(nil)

// New creates the OpenAI client, baseURL is optional
func New(apiKey string, baseURL string) (*Model, error) {
	if apiKey == "" {
		return nil, components.NewConfigurationError("OPENAI_API_KEY", "is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Model{Client: openai.NewClientWithConfig(cfg)}, nil
}

func (m *Model) Name() components.Provider {
	return components.ProviderOpenAI
}

// Upload reads the image into a base64 data URL
func (m *Model) Upload(ctx context.Context, file components.ImageFile) (*components.UploadedFile, error) {
	rd, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	bs, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	return &components.UploadedFile{
		Name:     file.ID(),
		URI:      fmt.Sprintf("data:%s;base64,%s", file.MIMEType(), base64.StdEncoding.EncodeToString(bs)),
		MIMEType: file.MIMEType(),
	}, nil
}

func (m *Model) Generate(ctx context.Context, req *components.GenerateRequest, resp *components.LLMResponse) (string, error) {
	msg := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: req.Prompt,
			},
		},
	}
	if req.File != nil {
		msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    req.File.URI,
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	chatReq := openai.ChatCompletionRequest{
		Model:               req.Model,
		MaxCompletionTokens: req.MaxTokens,
		Messages:            []openai.ChatCompletionMessage{msg},
	}
	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
	}
	if req.Schema != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.SchemaName,
				Description: req.Schema.Description,
				Schema:      StrictSchema(req.Schema),
				Strict:      true,
			},
		}
	}
	res, err := m.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", providerError(err)
	}
	if resp != nil {
		resp.FromOpenAI(&res)
	}
	if len(res.Choices) == 0 {
		return "", nil
	}
	return res.Choices[0].Message.Content, nil
}

// Delete is a no-op, inline images are not stored by the provider
func (m *Model) Delete(ctx context.Context, file *components.UploadedFile) error {
	return nil
}

func providerError(err error) error {
	ret := &components.ProviderError{
		Provider: components.ProviderOpenAI,
		Err:      err,
	}
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
	)
	if errors.As(err, &apiErr) {
		ret.Status = apiErr.HTTPStatusCode
		ret.Body = apiErr.Message
	} else if errors.As(err, &reqErr) {
		ret.Status = reqErr.HTTPStatusCode
	}
	return ret
}
