package schema

// String is a plain text answer, no structure is requested from the model
type String string

func (s String) SchemaName() string {
	return "text"
}

func (s String) String() string {
	return string(s)
}

func (s *String) Unmarshal(bs []byte) error {
	*s = String(bs)
	return nil
}
