package main

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/socialsounds/server/db"
	"github.com/socialsounds/server/models"
	"github.com/socialsounds/server/pages"
	"github.com/socialsounds/server/service/soundcloud"
	"github.com/socialsounds/server/service/upload"
)

type homeParams struct {
	NavBar    pages.NavBar
	Locations []models.ProjectLocation
}

type uploadParams struct {
	NavBar  pages.NavBar
	Form    *upload.Form
	Message string
}

type callbackParams struct {
	NavBar pages.NavBar
	User   *soundcloud.User
}

// navBar reports the connection state; a store error only hides the link
func (app *application) navBar(r *http.Request) pages.NavBar {
	cred, err := app.sessionManager.CurrentCredential(r.Context())
	if err != nil {
		return pages.NavBar{}
	}
	return pages.NavBar{Connected: cred != nil}
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, "index", homeParams{
		NavBar:    app.navBar(r),
		Locations: app.locations,
	})
}

func (app *application) locationsJSON(w http.ResponseWriter, r *http.Request) {
	locations := app.locations
	if locations == nil {
		locations = []models.ProjectLocation{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{"locations": locations})
}

func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	if err := app.database.PingContext(r.Context()); err != nil {
		app.logger.Warn("health check failed", zap.Error(err))
		jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *application) soundcloudCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		if reason := r.URL.Query().Get("error"); reason != "" {
			app.logger.Warn("authorization denied", zap.String("error", reason),
				zap.String("description", r.URL.Query().Get("error_description")))
		}
		app.clientError(w, http.StatusBadRequest)
		return
	}

	cred, err := app.oauthManager.Connect(r.Context(), code)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	// the account is connected whether or not the profile can be shown
	user, err := app.soundcloud.Me(r.Context(), cred)
	if err != nil {
		app.logger.Warn("failed to fetch connected profile", zap.Error(err))
	}

	app.render(w, r, http.StatusOK, "soundcloud_callback", callbackParams{
		NavBar: pages.NavBar{Connected: true},
		User:   user,
	})
}

func (app *application) uploadForm(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusOK, "upload", uploadParams{
		NavBar: app.navBar(r),
		Form:   &upload.Form{},
	})
}

func (app *application) uploadSubmit(w http.ResponseWriter, r *http.Request) {
	form, err := upload.ParseForm(w, r, app.maxUploadBytes)
	if errors.Is(err, upload.ErrTooLarge) {
		app.errorResponse(w, r, err)
		return
	}
	if err != nil {
		app.logger.Warn("malformed upload form", zap.Error(err))
		app.clientError(w, http.StatusBadRequest)
		return
	}

	// without audio there is nothing to publish, show the form again
	if !form.HasAudio() {
		app.render(w, r, http.StatusOK, "upload", uploadParams{
			NavBar:  app.navBar(r),
			Form:    form,
			Message: "Choose a sound file to upload.",
		})
		return
	}

	sub, err := form.Validate()
	if err != nil {
		app.render(w, r, http.StatusUnprocessableEntity, "upload", uploadParams{
			NavBar: app.navBar(r),
			Form:   form,
		})
		return
	}

	result, err := app.uploadService.Process(r.Context(), sub)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	http.Redirect(w, r, result.PublicURL, http.StatusFound)
}

func (app *application) soundsJSON(w http.ResponseWriter, r *http.Request) {
	sounds, err := app.database.GetAllSounds(r.Context())
	if err != nil {
		app.errorResponse(w, r, fmt.Errorf("%w: failed to list sounds: %v", db.ErrStorageUnavailable, err))
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"sounds": sounds})
}
