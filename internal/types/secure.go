package types

// RedactedPlaceholder replaces secret values in logs and serialized output.
// Clients that echo it back in an update mean "keep the stored value".
const RedactedPlaceholder = "***REDACTED***"

var redactedJSON = []byte(`"` + RedactedPlaceholder + `"`)

// SecretString holds a credential (provider API key, SMTP password) that must
// never reach a log line or a JSON response. String and MarshalJSON return the
// redacted placeholder; decoding a SecretString from JSON keeps the raw value
// so the page can submit credentials.
type SecretString string

// String returns a redacted placeholder instead of the raw value.
func (s SecretString) String() string {
	return RedactedPlaceholder
}

// MarshalJSON encodes the placeholder when a value is set and an empty string
// otherwise, so the page can tell "configured" from "missing".
func (s SecretString) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte(`""`), nil
	}
	return redactedJSON, nil
}

// Unmask returns the raw plaintext value. Only vendor clients building
// Authorization headers or relay payloads should call it.
func (s SecretString) Unmask() string {
	return string(s)
}

// IsRedacted reports whether the value is the placeholder itself, i.e. a
// client round-tripped a redacted response.
func (s SecretString) IsRedacted() bool {
	return string(s) == RedactedPlaceholder
}

// KeepIfRedacted returns prev when s is the redacted placeholder and s
// otherwise.
func (s SecretString) KeepIfRedacted(prev SecretString) SecretString {
	if s.IsRedacted() {
		return prev
	}
	return s
}
