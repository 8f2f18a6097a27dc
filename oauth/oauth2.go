package oauth

import (
	"golang.org/x/oauth2"
)

const (
	// SoundCloud's OAuth 2.1 endpoints
	DefaultAuthURL  = "https://secure.soundcloud.com/authorize"
	DefaultTokenURL = "https://secure.soundcloud.com/oauth/token"
)

// NewConfig builds the oauth2 config for the authorization code flow.
// Empty endpoint URLs fall back to SoundCloud's.
func NewConfig(clientID, clientSecret, redirectURI string, scopes []string, authURL, tokenURL string) oauth2.Config {
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	return oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
			// SoundCloud expects the client secret in the form body
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// PKCE holds a code verifier generated once per client. The challenge in the
// authorization URL stays the same for the life of the process.
type PKCE struct {
	verifier string
}

func NewPKCE() PKCE {
	return PKCE{verifier: oauth2.GenerateVerifier()}
}

// AuthOptions adds the S256 code challenge to an authorization URL
func (p PKCE) AuthOptions() []oauth2.AuthCodeOption {
	return []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(p.verifier),
	}
}

// ExchangeOptions adds the code verifier to a token exchange
func (p PKCE) ExchangeOptions() []oauth2.AuthCodeOption {
	return []oauth2.AuthCodeOption{
		oauth2.VerifierOption(p.verifier),
	}
}
