package gemini

import (
	"slices"

	"github.com/google/generative-ai-go/genai"
	"github.com/invopop/jsonschema"
)

// ConvertSchema translates a reflected JSON schema into the subset genai.Schema supports.
// Properties missing from required are marked nullable.
func ConvertSchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	ret := &genai.Schema{
		Type:        convertType(s.Type),
		Description: s.Description,
	}
	if s.Items != nil {
		ret.Items = ConvertSchema(s.Items)
	}
	if s.Properties != nil && s.Properties.Len() > 0 {
		ret.Properties = make(map[string]*genai.Schema, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			prop := ConvertSchema(pair.Value)
			if !slices.Contains(s.Required, pair.Key) {
				prop.Nullable = true
			}
			ret.Properties[pair.Key] = prop
		}
		ret.Required = append([]string(nil), s.Required...)
	}
	return ret
}

func convertType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
