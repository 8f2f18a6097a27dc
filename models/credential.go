package models

import "time"

// Credential is the SoundCloud OAuth token bundle this server acts with.
// Only one is live per deployment.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	Expires      time.Time `json:"expires"` // zero when the platform did not say
	Scope        string    `json:"scope"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the access token is known to be stale at now
func (c *Credential) Expired(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return true
	}
	return !c.Expires.IsZero() && !now.Before(c.Expires)
}
