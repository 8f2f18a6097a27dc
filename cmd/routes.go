package main

import (
	"net/http"

	"github.com/justinas/alice"

	"github.com/socialsounds/server/config"
	"github.com/socialsounds/server/pages"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", pages.Cache(app.pages.Static()))

	mux.HandleFunc("GET /{$}", app.home)
	mux.HandleFunc("GET /locations.json", app.locationsJSON)
	mux.HandleFunc("GET /healthz", app.healthz)

	// OAuth Routes
	mux.HandleFunc("GET /soundcloud/authenticate", app.oauthManager.HandleLogin)
	mux.HandleFunc("GET "+config.CallbackPath, app.soundcloudCallback)

	mux.HandleFunc("GET /upload", app.uploadForm)
	mux.HandleFunc("POST /upload", app.uploadSubmit)
	mux.HandleFunc("GET /sounds.json", app.soundsJSON)

	standard := alice.New(app.recoverPanic, app.logRequest, commonHeaders)

	return standard.Then(mux)
}
