package main

import (
	"go.uber.org/zap"

	"github.com/socialsounds/server/config"
	"github.com/socialsounds/server/db"
	"github.com/socialsounds/server/models"
	"github.com/socialsounds/server/oauth"
	"github.com/socialsounds/server/pages"
	"github.com/socialsounds/server/service/soundcloud"
	"github.com/socialsounds/server/service/upload"
	"github.com/socialsounds/server/session"
)

type application struct {
	logger         *zap.Logger
	database       *db.DB
	sessionManager *session.SessionManager
	oauthManager   *oauth.Manager
	soundcloud     *soundcloud.Client
	uploadService  *upload.Service
	pages          *pages.Pages
	locations      []models.ProjectLocation
	maxUploadBytes int64
}

// newApplication wires every component once; handlers only see what is
// passed in here
func newApplication(cfg *config.Config, database *db.DB, logger *zap.Logger) *application {
	sessionManager := session.NewSessionManager(database, logger)

	scClient := soundcloud.NewClient(soundcloud.Config{
		ClientID:     cfg.SoundCloud.ClientID,
		ClientSecret: cfg.SoundCloud.ClientSecret,
		RedirectURL:  cfg.CallbackURL(),
		Scopes:       cfg.SoundCloud.Scopes,
		AuthURL:      cfg.SoundCloud.AuthURL,
		TokenURL:     cfg.SoundCloud.TokenURL,
		APIURL:       cfg.SoundCloud.APIURL,
		Timeout:      cfg.SoundCloud.Timeout,

		RequestsPerSecond: cfg.SoundCloud.RequestsPerSecond,
	}, logger)

	return &application{
		logger:         logger.Named("http"),
		database:       database,
		sessionManager: sessionManager,
		oauthManager:   oauth.NewManager(scClient, sessionManager, logger),
		soundcloud:     scClient,
		uploadService:  upload.NewService(scClient, sessionManager, database, logger),
		pages:          pages.NewPages(),
		locations:      cfg.Locations,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}
