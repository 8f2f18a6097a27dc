package models

import (
	"encoding/json"
	"time"
)

// Sound links a geolocation and description to a track hosted on SoundCloud
type Sound struct {
	ID                    string
	Latitude              float64
	Longitude             float64
	HumanReadableLocation string
	Description           string
	RemoteTrackID         string // assigned by SoundCloud, never changes
	CreatedAt             time.Time
}

// Location returns the (latitude, longitude) pair
func (s Sound) Location() [2]float64 {
	return [2]float64{s.Latitude, s.Longitude}
}

type soundJSON struct {
	Location              [2]float64 `json:"location"`
	HumanReadableLocation string     `json:"human_readable_location"`
	Description           string     `json:"description"`
	RemoteTrackID         string     `json:"remote_track_id"`
}

// MarshalJSON renders the location as a two element array. Local bookkeeping
// (ID, CreatedAt) stays out of the listing.
func (s Sound) MarshalJSON() ([]byte, error) {
	return json.Marshal(soundJSON{
		Location:              s.Location(),
		HumanReadableLocation: s.HumanReadableLocation,
		Description:           s.Description,
		RemoteTrackID:         s.RemoteTrackID,
	})
}

// ProjectLocation is a configured area shown on the landing page map
type ProjectLocation struct {
	Name              string     `json:"name" mapstructure:"name"`
	HumanReadableName string     `json:"human_readable_name" mapstructure:"human_readable_name"`
	Centre            [2]float64 `json:"centre" mapstructure:"centre"`
}
