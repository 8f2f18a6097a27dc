package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialsounds/server/models"
)

type mockAuthorizer struct {
	url       string
	cred      *models.Credential
	err       error
	exchanged []string
}

func (m *mockAuthorizer) AuthorizationURL() string { return m.url }

func (m *mockAuthorizer) ExchangeToken(ctx context.Context, code string) (*models.Credential, error) {
	m.exchanged = append(m.exchanged, code)
	return m.cred, m.err
}

type mockKeeper struct {
	calls   []string
	current *models.Credential
	dropErr error
	saveErr error
}

func (m *mockKeeper) DropCredential(ctx context.Context) error {
	m.calls = append(m.calls, "drop")
	if m.dropErr != nil {
		return m.dropErr
	}
	m.current = nil
	return nil
}

func (m *mockKeeper) ReplaceCredential(ctx context.Context, cred *models.Credential) error {
	m.calls = append(m.calls, "replace")
	if m.saveErr != nil {
		return m.saveErr
	}
	m.current = cred
	return nil
}

func TestHandleLogin(t *testing.T) {
	auth := &mockAuthorizer{url: "https://secure.soundcloud.com/authorize?client_id=x"}
	m := NewManager(auth, &mockKeeper{}, nil)

	rr := httptest.NewRecorder()
	m.HandleLogin(rr, httptest.NewRequest(http.MethodGet, "/soundcloud/authenticate", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, auth.url, rr.Header().Get("Location"))
}

func TestConnect(t *testing.T) {
	auth := &mockAuthorizer{cred: &models.Credential{AccessToken: "tok1"}}
	keeper := &mockKeeper{current: &models.Credential{AccessToken: "tok0"}}
	m := NewManager(auth, keeper, nil)

	cred, err := m.Connect(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "tok1", cred.AccessToken)
	assert.Equal(t, []string{"abc123"}, auth.exchanged)
	assert.Equal(t, []string{"drop", "replace"}, keeper.calls)
	assert.Same(t, cred, keeper.current)
}

func TestConnect_ExchangeFails(t *testing.T) {
	exchangeErr := errors.New("invalid_grant")
	auth := &mockAuthorizer{err: exchangeErr}
	keeper := &mockKeeper{current: &models.Credential{AccessToken: "tok0"}}
	m := NewManager(auth, keeper, nil)

	_, err := m.Connect(context.Background(), "stale")
	assert.ErrorIs(t, err, exchangeErr)
	assert.Equal(t, []string{"drop"}, keeper.calls)
	assert.Nil(t, keeper.current, "previous credential was dropped before the exchange")
}

func TestConnect_DropFails(t *testing.T) {
	storeErr := errors.New("store down")
	auth := &mockAuthorizer{cred: &models.Credential{AccessToken: "tok1"}}
	keeper := &mockKeeper{dropErr: storeErr}
	m := NewManager(auth, keeper, nil)

	_, err := m.Connect(context.Background(), "abc123")
	assert.ErrorIs(t, err, storeErr)
	assert.Empty(t, auth.exchanged, "no exchange when the reset fails")
}

func TestConnect_SaveFails(t *testing.T) {
	storeErr := errors.New("store down")
	auth := &mockAuthorizer{cred: &models.Credential{AccessToken: "tok1"}}
	keeper := &mockKeeper{saveErr: storeErr}
	m := NewManager(auth, keeper, nil)

	_, err := m.Connect(context.Background(), "abc123")
	assert.ErrorIs(t, err, storeErr)
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("id", "secret", "http://localhost/cb", nil, "", "")
	assert.Equal(t, DefaultAuthURL, cfg.Endpoint.AuthURL)
	assert.Equal(t, DefaultTokenURL, cfg.Endpoint.TokenURL)
}

func TestPKCE(t *testing.T) {
	p := NewPKCE()
	assert.Len(t, p.AuthOptions(), 1)
	assert.Len(t, p.ExchangeOptions(), 1)
	assert.NotEqual(t, p.verifier, NewPKCE().verifier, "each client gets its own verifier")
}
