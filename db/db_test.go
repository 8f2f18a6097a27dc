package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialsounds/server/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := New(":memory:")
	require.NoError(t, err, "Failed to create test database")

	require.NoError(t, database.Initialize(), "Failed to initialize test database")

	t.Cleanup(func() { database.Close() })
	return database
}

func TestInitializeIsIdempotent(t *testing.T) {
	database := setupTestDB(t)
	require.NoError(t, database.Initialize())
}

func TestSaveSound(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	sound := &models.Sound{
		Latitude:              51.5,
		Longitude:             -0.12,
		HumanReadableLocation: "Hyde Park",
		Description:           "birdsong",
		RemoteTrackID:         "tr_42",
	}
	require.NoError(t, database.SaveSound(ctx, sound))
	assert.NotEmpty(t, sound.ID, "id should be generated")
	assert.False(t, sound.CreatedAt.IsZero(), "created_at should be set")

	sounds, err := database.GetAllSounds(ctx)
	require.NoError(t, err)
	require.Len(t, sounds, 1)

	got := sounds[0]
	assert.Equal(t, sound.ID, got.ID)
	assert.Equal(t, 51.5, got.Latitude)
	assert.Equal(t, -0.12, got.Longitude)
	assert.Equal(t, "Hyde Park", got.HumanReadableLocation)
	assert.Equal(t, "birdsong", got.Description)
	assert.Equal(t, "tr_42", got.RemoteTrackID)
}

func TestSaveSound_DuplicateRemoteTrack(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.SaveSound(ctx, &models.Sound{RemoteTrackID: "tr_1"}))
	err := database.SaveSound(ctx, &models.Sound{RemoteTrackID: "tr_1"})
	assert.Error(t, err, "remote_track_id must be unique")
}

func TestGetAllSounds_Empty(t *testing.T) {
	database := setupTestDB(t)

	sounds, err := database.GetAllSounds(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sounds, "empty listing should be an empty slice, not nil")
	assert.Empty(t, sounds)
}

func TestGetCredential_None(t *testing.T) {
	database := setupTestDB(t)

	cred, err := database.GetCredential(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestReplaceCredential(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	first := &models.Credential{AccessToken: "tok0", RefreshToken: "ref0", Scope: "*", Expires: expires}
	require.NoError(t, database.ReplaceCredential(ctx, first))

	second := &models.Credential{AccessToken: "tok1", RefreshToken: "ref1", Scope: "non-expiring"}
	require.NoError(t, database.ReplaceCredential(ctx, second))

	got, err := database.GetCredential(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok1", got.AccessToken)
	assert.Equal(t, "ref1", got.RefreshToken)
	assert.Equal(t, "non-expiring", got.Scope)
	assert.True(t, got.Expires.IsZero(), "no expiry was stored")

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM soundcloud_credentials`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestReplaceCredential_KeepsExpiry(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, database.ReplaceCredential(ctx, &models.Credential{AccessToken: "tok", Expires: expires}))

	got, err := database.GetCredential(ctx)
	require.NoError(t, err)
	assert.True(t, expires.Equal(got.Expires), "expected %v, got %v", expires, got.Expires)
}

func TestCredentialTableHoldsOneRow(t *testing.T) {
	database := setupTestDB(t)

	_, err := database.Exec(`
	INSERT INTO soundcloud_credentials (id, access_token, created_at) VALUES (2, 'other', ?)`, time.Now())
	assert.Error(t, err, "only id 1 is allowed")
}

func TestDeleteCredential(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.ReplaceCredential(ctx, &models.Credential{AccessToken: "tok"}))
	require.NoError(t, database.DeleteCredential(ctx))

	got, err := database.GetCredential(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	// deleting nothing is fine
	require.NoError(t, database.DeleteCredential(ctx))
}
