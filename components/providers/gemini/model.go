package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/bububa/calorielens/components"
)

// Model is a Gemini backed VisionModel using the Files API for uploads
type Model struct {
	*genai.Client
}

var _ components.VisionModel = (*Model)(nil)

type Option func(*[]option.ClientOption)

// WithClientOptions passes extra options to the underlying genai client
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *[]option.ClientOption) {
		*o = append(*o, opts...)
	}
}

// New creates the Gemini client, apiKey is required
func New(ctx context.Context, apiKey string, opts ...Option) (*Model, error) {
	if apiKey == "" {
		return nil, components.NewConfigurationError("GEMINI_API_KEY", "is not set")
	}
	clientOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
	for _, opt := range opts {
		opt(&clientOpts)
	}
	clt, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, components.NewConfigurationError("GEMINI_API_KEY", "could not create client: %v", err)
	}
	return &Model{Client: clt}, nil
}

func (m *Model) Name() components.Provider {
	return components.ProviderGemini
}

// Upload sends the image through the Files API
func (m *Model) Upload(ctx context.Context, file components.ImageFile) (*components.UploadedFile, error) {
	rd, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	uploaded, err := m.UploadFile(ctx, "", rd, &genai.UploadFileOptions{
		DisplayName: file.ID(),
		MIMEType:    file.MIMEType(),
	})
	if err != nil {
		return nil, providerError(err)
	}
	return &components.UploadedFile{
		Name:     uploaded.Name,
		URI:      uploaded.URI,
		MIMEType: uploaded.MIMEType,
	}, nil
}

// Generate sends the prompt followed by the uploaded file. With a schema the model is
// constrained to application/json output matching it.
func (m *Model) Generate(ctx context.Context, req *components.GenerateRequest, resp *components.LLMResponse) (string, error) {
	model := m.GenerativeModel(req.Model)
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.Schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = ConvertSchema(req.Schema)
	}
	parts := []genai.Part{genai.Text(req.Prompt)}
	if req.File != nil {
		parts = append(parts, genai.FileData{
			MIMEType: req.File.MIMEType,
			URI:      req.File.URI,
		})
	}
	res, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", providerError(err)
	}
	if resp != nil {
		resp.FromGemini(req.Model, res)
	}
	return responseText(res), nil
}

// Delete removes the uploaded file from the Files API
func (m *Model) Delete(ctx context.Context, file *components.UploadedFile) error {
	if file == nil || file.Name == "" {
		return nil
	}
	if err := m.DeleteFile(ctx, file.Name); err != nil {
		return providerError(err)
	}
	return nil
}

func responseText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 {
		return ""
	}
	candidate := res.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

func providerError(err error) error {
	ret := &components.ProviderError{
		Provider: components.ProviderGemini,
		Err:      err,
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		ret.Status = apiErr.Code
		ret.Body = apiErr.Body
		if ret.Body == "" {
			ret.Body = apiErr.Message
		}
	}
	return ret
}
