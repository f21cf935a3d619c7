package components

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the model answers without any text
var ErrEmptyResponse = errors.New("model returned an empty response")

// ErrorKind classifies a failed request so callers can branch on it
type ErrorKind int

const (
	UnknownErrorKind ErrorKind = iota
	ConfigurationErrorKind
	InvalidInputErrorKind
	ProviderErrorKind
	SchemaValidationErrorKind
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigurationErrorKind:
		return "configuration"
	case InvalidInputErrorKind:
		return "invalid_input"
	case ProviderErrorKind:
		return "provider"
	case SchemaValidationErrorKind:
		return "schema_validation"
	default:
		return "unknown"
	}
}

// ConfigurationError missing or invalid credential/setting, raised before any external call
type ConfigurationError struct {
	// Key the configuration key at fault, e.g. GEMINI_API_KEY
	Key string
	Msg string
	Err error
}

// NewConfigurationError returns a ConfigurationError for key
func NewConfigurationError(key string, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Key: key, Msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error: " + e.Msg
	if e.Key != "" {
		msg = fmt.Sprintf("configuration error: %s: %s", e.Key, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// InvalidInputError malformed or disallowed upload
type InvalidInputError struct {
	Msg string
	Err error
}

// NewInvalidInputError returns an InvalidInputError with a formatted message
func NewInvalidInputError(format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Msg: fmt.Sprintf(format, args...)}
}

func (e *InvalidInputError) Error() string {
	if e.Err == nil {
		return "invalid input: " + e.Msg
	}
	return fmt.Sprintf("invalid input: %s: %v", e.Msg, e.Err)
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// ProviderError transport, status or empty-response failure of an external call.
// Status and Body are kept verbatim when the provider returned them.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + " error"
	if e.Status > 0 {
		msg = fmt.Sprintf("%s %d", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// SchemaValidationError the response text does not conform to the expected structure.
// Raw holds the untouched response for diagnostics.
type SchemaValidationError struct {
	Raw string
	Err error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("response does not match schema: %v", e.Err)
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Err
}

// KindOf returns the taxonomy kind of err, UnknownErrorKind when err is not one of ours
func KindOf(err error) ErrorKind {
	if err == nil {
		return UnknownErrorKind
	}
	var (
		configErr   *ConfigurationError
		inputErr    *InvalidInputError
		providerErr *ProviderError
		schemaErr   *SchemaValidationError
	)
	switch {
	case errors.As(err, &configErr):
		return ConfigurationErrorKind
	case errors.As(err, &inputErr):
		return InvalidInputErrorKind
	case errors.As(err, &schemaErr):
		return SchemaValidationErrorKind
	case errors.As(err, &providerErr):
		return ProviderErrorKind
	}
	return UnknownErrorKind
}

// AsProviderError keeps classified errors as they are and wraps anything else into a ProviderError
func AsProviderError(provider string, err error) error {
	if err == nil || KindOf(err) != UnknownErrorKind {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}
