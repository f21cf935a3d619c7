package components

import (
	"context"
	"io"

	"github.com/invopop/jsonschema"
)

type Provider = string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ImageFile is an image staged on local storage, ready to be sent to a provider
type ImageFile interface {
	Path() string
	MIMEType() string
	// ID content derived identifier of the image
	ID() string
	Open() (io.ReadCloser, error)
}

// UploadedFile reference to an image handed to a provider.
// URI is a provider file URI or a data URL, Data holds the raw bytes for
// providers that take images inline.
type UploadedFile struct {
	Name     string
	URI      string
	MIMEType string
	Data     []byte
}

// GenerateRequest a single generation call about one uploaded image
type GenerateRequest struct {
	Model  string
	Prompt string
	File   *UploadedFile
	// Schema target JSON schema, nil requests plain text
	Schema     *jsonschema.Schema
	SchemaName string
	// Temperature nil keeps the provider default
	Temperature *float32
	MaxTokens   int
}

// VisionModel is a multimodal model that accepts an image and a prompt.
// Implementations must return classified errors (ProviderError for transport and status failures).
type VisionModel interface {
	Name() Provider
	// Upload hands the image to the provider
	Upload(ctx context.Context, file ImageFile) (*UploadedFile, error)
	// Generate issues one generation request and returns the raw response text
	Generate(ctx context.Context, req *GenerateRequest, resp *LLMResponse) (string, error)
	// Delete releases the uploaded file on the provider side, a no-op for inline providers
	Delete(ctx context.Context, file *UploadedFile) error
}
