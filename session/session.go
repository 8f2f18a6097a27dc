package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/socialsounds/server/db"
	"github.com/socialsounds/server/models"
)

// ErrStorageUnavailable is returned when the credential store cannot be reached
var ErrStorageUnavailable = db.ErrStorageUnavailable

// ErrInvalidCredential is returned when asked to store a credential without an access token
var ErrInvalidCredential = errors.New("credential has no access token")

// CredentialStore persists the single SoundCloud credential
type CredentialStore interface {
	GetCredential(ctx context.Context) (*models.Credential, error)
	ReplaceCredential(ctx context.Context, cred *models.Credential) error
	DeleteCredential(ctx context.Context) error
}

// SessionManager owns the lifecycle of the SoundCloud credential this server
// uploads with. Every read goes to the store, so a replaced credential is
// visible to the next request.
type SessionManager struct {
	store  CredentialStore
	logger *zap.Logger
}

func NewSessionManager(store CredentialStore, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		store:  store,
		logger: logger.Named("session"),
	}
}

// Load checks the store for an existing credential. Called once at process start.
func (sm *SessionManager) Load(ctx context.Context) error {
	cred, err := sm.CurrentCredential(ctx)
	if err != nil {
		return err
	}

	if cred == nil {
		sm.logger.Warn("no SoundCloud credential stored, visit /soundcloud/authenticate to connect an account")
		return nil
	}

	sm.logger.Info("loaded SoundCloud credential",
		zap.String("scope", cred.Scope),
		zap.Time("expires", cred.Expires))
	return nil
}

// CurrentCredential returns the live credential, or nil if none is stored
func (sm *SessionManager) CurrentCredential(ctx context.Context) (*models.Credential, error) {
	cred, err := sm.store.GetCredential(ctx)
	if err != nil {
		sm.logger.Error("failed to read credential", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return cred, nil
}

// ReplaceCredential discards any stored credential and stores cred as the
// only one
func (sm *SessionManager) ReplaceCredential(ctx context.Context, cred *models.Credential) error {
	if cred == nil || cred.AccessToken == "" {
		return ErrInvalidCredential
	}

	if err := sm.store.ReplaceCredential(ctx, cred); err != nil {
		sm.logger.Error("failed to store credential", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	sm.logger.Info("stored new SoundCloud credential",
		zap.String("scope", cred.Scope),
		zap.Time("expires", cred.Expires))
	return nil
}

// DropCredential removes the stored credential
func (sm *SessionManager) DropCredential(ctx context.Context) error {
	if err := sm.store.DeleteCredential(ctx); err != nil {
		sm.logger.Error("failed to drop credential", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	sm.logger.Info("dropped SoundCloud credential")
	return nil
}
