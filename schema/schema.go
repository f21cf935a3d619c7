package schema

import (
	"github.com/invopop/jsonschema"
)

// Schema is implemented by every structure a model is asked to produce
type Schema interface {
	// SchemaName is the name sent along with schema-guided requests
	SchemaName() string
}

// Reflect builds the JSON schema of s from its json/jsonschema tags.
// Plain text schemas return nil.
func Reflect(s Schema) *jsonschema.Schema {
	switch s.(type) {
	case String, *String:
		return nil
	}
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
		Anonymous:      true,
	}
	ret := r.Reflect(s)
	ret.Version = ""
	return ret
}
