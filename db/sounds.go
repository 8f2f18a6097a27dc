package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/socialsounds/server/models"
)

// SaveSound stores a sound. ID and CreatedAt are filled in when empty.
func (db *DB) SaveSound(ctx context.Context, sound *models.Sound) error {
	if sound.ID == "" {
		sound.ID = uuid.NewString()
	}
	if sound.CreatedAt.IsZero() {
		sound.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, `
	INSERT INTO sounds (id, latitude, longitude, human_readable_location, description, remote_track_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sound.ID, sound.Latitude, sound.Longitude, sound.HumanReadableLocation,
		sound.Description, sound.RemoteTrackID, sound.CreatedAt)

	return err
}

// GetAllSounds returns every stored sound
func (db *DB) GetAllSounds(ctx context.Context) ([]*models.Sound, error) {
	rows, err := db.QueryContext(ctx, `
    SELECT id, latitude, longitude, human_readable_location, description, remote_track_id, created_at
    FROM sounds
    ORDER BY created_at`)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sounds := []*models.Sound{}

	for rows.Next() {
		sound := &models.Sound{}
		err := rows.Scan(
			&sound.ID, &sound.Latitude, &sound.Longitude, &sound.HumanReadableLocation,
			&sound.Description, &sound.RemoteTrackID, &sound.CreatedAt)
		if err != nil {
			return nil, err
		}
		sounds = append(sounds, sound)
	}

	return sounds, rows.Err()
}
