package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/socialsounds/server/db"
	"github.com/socialsounds/server/service/soundcloud"
	"github.com/socialsounds/server/service/upload"
)

// The serverError helper logs the error with the request method and URI and
// a stack trace, then sends a generic 500 Internal Server Error response.
func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Error(err.Error(),
		zap.String("method", r.Method),
		zap.String("uri", r.URL.RequestURI()),
		zap.String("trace", string(debug.Stack())))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// the clientError helper sends a specific status code and corresponding description
func (app *application) clientError(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

// statusFor maps a workflow error to the response status
func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, soundcloud.ErrRemoteAuth):
		return http.StatusBadRequest
	case errors.Is(err, soundcloud.ErrAuthExpired), errors.Is(err, upload.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, soundcloud.ErrRemoteUpload):
		return http.StatusBadGateway
	case errors.Is(err, soundcloud.ErrNetwork):
		if soundcloud.IsTimeout(err) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, upload.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, upload.ErrMissingAudio):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse logs err once and writes the mapped status. Details stay in
// the log.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		app.serverError(w, r, err)
		return
	}

	app.logger.Warn(err.Error(),
		zap.String("method", r.Method),
		zap.String("uri", r.URL.RequestURI()),
		zap.Int("status", status))

	message := http.StatusText(status)
	if errors.Is(err, soundcloud.ErrAuthExpired) || errors.Is(err, upload.ErrNotConnected) {
		message = "No usable SoundCloud connection. Visit /soundcloud/authenticate to connect an account."
	}
	http.Error(w, message, status)
}

func (app *application) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	buf := new(bytes.Buffer)

	if err := app.pages.Execute(page, buf, data); err != nil {
		app.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	buf.WriteTo(w) //nolint:errcheck
}

func jsonResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data) //nolint:errcheck
	}
}
