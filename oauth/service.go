package oauth

import (
	"context"

	"github.com/socialsounds/server/models"
)

// Authorizer builds the authorization redirect and exchanges the code the
// provider sends back
type Authorizer interface {
	AuthorizationURL() string
	ExchangeToken(ctx context.Context, code string) (*models.Credential, error)
}

// CredentialKeeper holds the credential the exchange produces
type CredentialKeeper interface {
	DropCredential(ctx context.Context) error
	ReplaceCredential(ctx context.Context, cred *models.Credential) error
}
