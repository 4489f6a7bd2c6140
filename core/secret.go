package core

// Secret wraps an API key so it never leaks through fmt, JSON or YAML output.
// Use Expose to read the value when building auth headers.
type Secret struct {
	value string
}

// NewSecret creates a new Secret from a string value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

const redacted = "[REDACTED]"

func (s Secret) String() string   { return redacted }
func (s Secret) GoString() string { return "core.Secret{" + redacted + "}" }

// MarshalJSON always encodes the placeholder.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// MarshalText always encodes the placeholder.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Expose returns the actual secret value.
func (s Secret) Expose() string {
	return s.value
}

// IsEmpty reports whether no value is set.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}
