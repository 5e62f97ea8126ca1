package provider

// CanonicalProfile is the normalized user shape produced per request from a
// provider's raw profile and discarded after use. Only ExternalID is
// required; every other field defaults to empty when the provider omits it.
type CanonicalProfile struct {
	Provider   string `json:"provider"`
	ExternalID string `json:"externalId"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	BirthYear  string `json:"birthYear,omitempty"`
	Birthday   string `json:"birthday,omitempty"`
	Gender     string `json:"gender,omitempty"`

	// Tokens from the code exchange, attached by the caller.
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

// Str reads a string value at key, defaulting to "".
func Str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// Sub reads a nested object at key, defaulting to nil.
func Sub(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}
