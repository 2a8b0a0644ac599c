package domain

import "time"

// InstallStateTTL bounds how long an OAuth install handshake may take
const InstallStateTTL = 10 * time.Minute

// InstallState represents a pending OAuth install handshake
type InstallState struct {
	Shop      string    `json:"shop"`
	State     string    `json:"state"`
	Scopes    []string  `json:"scopes"`
	ReturnURL string    `json:"return_url"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the handshake can no longer be completed
func (s *InstallState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
