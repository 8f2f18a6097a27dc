package oauth

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/socialsounds/server/models"
)

// Manager runs the authorization code flow that connects this server to a
// SoundCloud account
type Manager struct {
	authorizer Authorizer
	sessions   CredentialKeeper
	logger     *zap.Logger
}

func NewManager(authorizer Authorizer, sessions CredentialKeeper, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		authorizer: authorizer,
		sessions:   sessions,
		logger:     logger.Named("oauth"),
	}
}

// HandleLogin redirects to the provider's authorization page
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, m.authorizer.AuthorizationURL(), http.StatusSeeOther)
}

// Connect resets the stored credential, exchanges code for a new one and
// stores it. The reset happens before the exchange: after a failed exchange
// no credential is stored.
func (m *Manager) Connect(ctx context.Context, code string) (*models.Credential, error) {
	if err := m.sessions.DropCredential(ctx); err != nil {
		return nil, err
	}

	cred, err := m.authorizer.ExchangeToken(ctx, code)
	if err != nil {
		m.logger.Warn("authorization code exchange failed", zap.Error(err))
		return nil, err
	}

	if err := m.sessions.ReplaceCredential(ctx, cred); err != nil {
		return nil, err
	}

	m.logger.Info("connected SoundCloud account", zap.String("scope", cred.Scope))
	return cred, nil
}
