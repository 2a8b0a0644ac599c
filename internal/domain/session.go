package domain

// DefaultAPIVersion is used when no Admin API version is configured
const DefaultAPIVersion = "unstable"

// SessionConfig carries the process-wide settings used to build API sessions
type SessionConfig struct {
	APIVersion string
}

// Version returns the configured API version or DefaultAPIVersion
func (c SessionConfig) Version() string {
	if c.APIVersion == "" {
		return DefaultAPIVersion
	}
	return c.APIVersion
}

// Session is a transient handle for authenticated Admin API calls on behalf
// of one shop. It is never persisted.
type Session struct {
	Shop       string `json:"shop"`
	APIVersion string `json:"api_version"`
	Token      string `json:"-"`
}

// NewSession builds a session value. An empty version falls back to DefaultAPIVersion.
func NewSession(shop, apiVersion, token string) Session {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return Session{
		Shop:       shop,
		APIVersion: apiVersion,
		Token:      token,
	}
}
