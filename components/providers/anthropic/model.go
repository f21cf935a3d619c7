package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/bububa/calorielens/components"
)

// DefaultMaxTokens used when the request leaves MaxTokens unset, the messages API requires one
const DefaultMaxTokens = 4096

// Model is an Anthropic messages API backed VisionModel.
// The API has no response schema parameter, so the schema is appended to the prompt
// and a surrounding markdown fence is stripped from the answer.
type Model struct {
	*anthropic.Client
}

var _ components.VisionModel = (*Model)(nil)

// New creates the Anthropic client, baseURL is optional
func New(apiKey string, baseURL string) (*Model, error) {
	if apiKey == "" {
		return nil, components.NewConfigurationError("ANTHROPIC_API_KEY", "is not set")
	}
	opts := make([]anthropic.ClientOption, 0, 1)
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &Model{Client: anthropic.NewClient(apiKey, opts...)}, nil
}

func (m *Model) Name() components.Provider {
	return components.ProviderAnthropic
}

// Upload reads the image bytes, they are sent base64 encoded with the request
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
		MIMEType: file.MIMEType(),
		Data:     bs,
	}, nil
}

func (m *Model) Generate(ctx context.Context, req *components.GenerateRequest, resp *components.LLMResponse) (string, error) {
	prompt, err := PromptWithSchema(req)
	if err != nil {
		return "", err
	}
	contents := make([]anthropic.MessageContent, 0, 2)
	if req.File != nil {
		contents = append(contents, anthropic.NewImageMessageContent(anthropic.MessageContentSource{
			Type:      "base64",
			MediaType: req.File.MIMEType,
			Data:      base64.StdEncoding.EncodeToString(req.File.Data),
		}))
	}
	contents = append(contents, anthropic.NewTextMessageContent(prompt))
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	chatReq := anthropic.MessagesRequest{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: contents,
			},
		},
	}
	res, err := m.CreateMessages(ctx, chatReq)
	if err != nil {
		return "", providerError(err)
	}
	if resp != nil {
		resp.FromAnthropic(&res)
	}
	txt := res.GetFirstContentText()
	if req.Schema != nil {
		txt = TrimFence(txt)
	}
	return txt, nil
}

// Delete is a no-op, inline images are not stored by the provider
func (m *Model) Delete(ctx context.Context, file *components.UploadedFile) error {
	return nil
}

// PromptWithSchema appends the target JSON schema to the request prompt
func PromptWithSchema(req *components.GenerateRequest) (string, error) {
	if req.Schema == nil {
		return req.Prompt, nil
	}
	bs, err := json.MarshalIndent(req.Schema, "", "  ")
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(req.Prompt)
	sb.WriteString("\n\nRespond with a single JSON object, without markdown, that validates against this JSON schema:\n")
	sb.Write(bs)
	return sb.String(), nil
}

// TrimFence strips a ```json ... ``` fence around txt
func TrimFence(txt string) string {
	trimmed := strings.TrimSpace(txt)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return txt
	}
	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 && !strings.ContainsAny(trimmed[:idx], "{[") {
		trimmed = trimmed[idx+1:]
	}
	return strings.TrimSpace(trimmed)
}

func providerError(err error) error {
	ret := &components.ProviderError{
		Provider: components.ProviderAnthropic,
		Err:      err,
	}
	var (
		apiErr *anthropic.APIError
		reqErr *anthropic.RequestError
	)
	if errors.As(err, &apiErr) {
		ret.Body = apiErr.Message
	}
	if errors.As(err, &reqErr) {
		ret.Status = reqErr.StatusCode
	}
	return ret
}
