package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/socialsounds/server/db"
	"github.com/socialsounds/server/models"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	if err := database.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	t.Cleanup(func() { database.Close() })
	return database
}

func newMockManager(t *testing.T) (*SessionManager, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewSessionManager(&db.DB{DB: mockDB}, zaptest.NewLogger(t)), mock
}

func TestCurrentCredential_NoneStored(t *testing.T) {
	sm := NewSessionManager(setupTestDB(t), zaptest.NewLogger(t))

	cred, err := sm.CurrentCredential(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestReplaceThenCurrent_RoundTrip(t *testing.T) {
	sm := NewSessionManager(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()

	want := &models.Credential{
		AccessToken:  "tok1",
		RefreshToken: "ref1",
		Scope:        "non-expiring",
		Expires:      time.Date(2031, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, sm.ReplaceCredential(ctx, want))

	got, err := sm.CurrentCredential(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.Equal(t, want.Scope, got.Scope)
	assert.True(t, want.Expires.Equal(got.Expires))
}

func TestReplaceCredential_DiscardsPrevious(t *testing.T) {
	sm := NewSessionManager(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, sm.ReplaceCredential(ctx, &models.Credential{AccessToken: "old"}))
	require.NoError(t, sm.ReplaceCredential(ctx, &models.Credential{AccessToken: "new"}))

	got, err := sm.CurrentCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)
}

func TestReplaceCredential_RejectsEmptyToken(t *testing.T) {
	sm := NewSessionManager(setupTestDB(t), zaptest.NewLogger(t))

	err := sm.ReplaceCredential(context.Background(), &models.Credential{Scope: "*"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	err = sm.ReplaceCredential(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestDropCredential(t *testing.T) {
	sm := NewSessionManager(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, sm.ReplaceCredential(ctx, &models.Credential{AccessToken: "tok"}))
	require.NoError(t, sm.DropCredential(ctx))

	got, err := sm.CurrentCredential(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoad(t *testing.T) {
	sm := NewSessionManager(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, sm.Load(ctx), "empty store is not an error")

	require.NoError(t, sm.ReplaceCredential(ctx, &models.Credential{AccessToken: "tok"}))
	require.NoError(t, sm.Load(ctx))
}

func TestStorageUnavailable(t *testing.T) {
	storeErr := errors.New("unable to open database file")

	t.Run("current credential", func(t *testing.T) {
		sm, mock := newMockManager(t)
		mock.ExpectQuery(`SELECT .* FROM soundcloud_credentials`).WillReturnError(storeErr)

		_, err := sm.CurrentCredential(context.Background())
		assert.ErrorIs(t, err, ErrStorageUnavailable)
		assert.Contains(t, err.Error(), "unable to open database file")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replace credential", func(t *testing.T) {
		sm, mock := newMockManager(t)
		mock.ExpectBegin().WillReturnError(storeErr)

		err := sm.ReplaceCredential(context.Background(), &models.Credential{AccessToken: "tok"})
		assert.ErrorIs(t, err, ErrStorageUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replace rolls back when insert fails", func(t *testing.T) {
		sm, mock := newMockManager(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM soundcloud_credentials`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO soundcloud_credentials`).WillReturnError(storeErr)
		mock.ExpectRollback()

		err := sm.ReplaceCredential(context.Background(), &models.Credential{AccessToken: "tok"})
		assert.ErrorIs(t, err, ErrStorageUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("drop credential", func(t *testing.T) {
		sm, mock := newMockManager(t)
		mock.ExpectExec(`DELETE FROM soundcloud_credentials`).WillReturnError(storeErr)

		err := sm.DropCredential(context.Background())
		assert.ErrorIs(t, err, ErrStorageUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("load", func(t *testing.T) {
		sm, mock := newMockManager(t)
		mock.ExpectQuery(`SELECT .* FROM soundcloud_credentials`).WillReturnError(storeErr)

		assert.ErrorIs(t, sm.Load(context.Background()), ErrStorageUnavailable)
	})
}
