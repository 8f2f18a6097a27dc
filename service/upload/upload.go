package upload

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/socialsounds/server/db"
	"github.com/socialsounds/server/models"
	"github.com/socialsounds/server/service/soundcloud"
)

var (
	// ErrMissingAudio means the submission carried no sound file
	ErrMissingAudio = errors.New("no audio submitted")
	// ErrNotConnected means no SoundCloud account has been connected yet
	ErrNotConnected = errors.New("no SoundCloud account connected")
)

// TrackCreator uploads audio to the hosting platform
type TrackCreator interface {
	CreateTrack(ctx context.Context, upload soundcloud.TrackUpload, cred *models.Credential) (*soundcloud.RemoteTrack, error)
}

// CredentialSource supplies the credential uploads are made with
type CredentialSource interface {
	CurrentCredential(ctx context.Context) (*models.Credential, error)
}

// SoundStore persists sound records
type SoundStore interface {
	SaveSound(ctx context.Context, sound *models.Sound) error
}

// Submission is a parsed upload form
type Submission struct {
	Latitude              float64
	Longitude             float64
	HumanReadableLocation string
	Description           string
	Filename              string
	Audio                 []byte
}

// Result is what a processed upload produced
type Result struct {
	Sound     *models.Sound
	PublicURL string
}

// Service publishes submitted sounds: remote track first, local record second
type Service struct {
	tracks      TrackCreator
	credentials CredentialSource
	sounds      SoundStore
	logger      *zap.Logger
}

func NewService(tracks TrackCreator, credentials CredentialSource, sounds SoundStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tracks:      tracks,
		credentials: credentials,
		sounds:      sounds,
		logger:      logger.Named("upload"),
	}
}

// Process uploads the audio to SoundCloud and, only once that succeeded,
// records the sound locally. Nothing is retried or rolled back: if the local
// write fails the remote track is left orphaned and logged.
func (s *Service) Process(ctx context.Context, sub Submission) (*Result, error) {
	if len(sub.Audio) == 0 {
		return nil, ErrMissingAudio
	}

	cred, err := s.credentials.CurrentCredential(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNotConnected
	}

	track, err := s.tracks.CreateTrack(ctx, soundcloud.TrackUpload{
		Title:       sub.HumanReadableLocation,
		Description: sub.Description,
		Filename:    sub.Filename,
		Audio:       sub.Audio,
	}, cred)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote track: %w", err)
	}

	sound := &models.Sound{
		Latitude:              sub.Latitude,
		Longitude:             sub.Longitude,
		HumanReadableLocation: sub.HumanReadableLocation,
		Description:           sub.Description,
		RemoteTrackID:         track.ID,
	}

	if err := s.sounds.SaveSound(ctx, sound); err != nil {
		s.logger.Error("orphaned remote track: saved on SoundCloud but not recorded locally",
			zap.String("remote_track_id", track.ID),
			zap.String("url", track.PermalinkURL),
			zap.Error(err))
		return nil, fmt.Errorf("%w: failed to save sound: %w", db.ErrStorageUnavailable, err)
	}

	s.logger.Info("published sound",
		zap.String("id", sound.ID),
		zap.String("remote_track_id", track.ID),
		zap.String("location", sub.HumanReadableLocation))

	return &Result{Sound: sound, PublicURL: track.PermalinkURL}, nil
}
