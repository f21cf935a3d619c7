package openai

import (
	"github.com/invopop/jsonschema"
)

// StrictSchema returns a copy of s usable with strict structured outputs:
// every property is required, optional ones accept null instead, and no
// additional properties are allowed.
func StrictSchema(s *jsonschema.Schema) *jsonschema.Schema {
	if s == nil {
		return nil
	}
	ret := *s
	if s.Items != nil {
		ret.Items = StrictSchema(s.Items)
	}
	if s.Properties == nil || s.Properties.Len() == 0 {
		return &ret
	}
	required := make(map[string]struct{}, len(s.Required))
	for _, name := range s.Required {
		required[name] = struct{}{}
	}
	ret.Properties = jsonschema.NewProperties()
	ret.Required = make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		prop := StrictSchema(pair.Value)
		if _, ok := required[pair.Key]; !ok {
			prop = &jsonschema.Schema{AnyOf: []*jsonschema.Schema{prop, {Type: "null"}}}
		}
		ret.Properties.Set(pair.Key, prop)
		ret.Required = append(ret.Required, pair.Key)
	}
	ret.AdditionalProperties = jsonschema.FalseSchema
	return &ret
}
