package soundcloud

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

var (
	// ErrRemoteAuth means SoundCloud refused the authorization code
	ErrRemoteAuth = errors.New("soundcloud authorization failed")
	// ErrAuthExpired means the access token is missing or stale. Nothing
	// refreshes it; connect the account again.
	ErrAuthExpired = errors.New("soundcloud access token expired")
	// ErrRemoteUpload means SoundCloud rejected the track
	ErrRemoteUpload = errors.New("soundcloud rejected upload")
	// ErrNetwork means SoundCloud could not be reached in time
	ErrNetwork = errors.New("soundcloud unreachable")
)

// IsTimeout reports whether err came from a call that ran out of time
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTransportError(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func networkError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrNetwork, op, err)
}

// classifyExchangeError sorts token endpoint failures into remote auth and
// network errors. Only a 4xx answer blames the code.
func classifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		// the platform failed, the code may still be good
		if retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: token exchange: status %d", ErrNetwork, retrieveErr.Response.StatusCode)
		}

		code := retrieveErr.ErrorCode
		if code == "" && retrieveErr.Response != nil {
			code = fmt.Sprintf("status %d", retrieveErr.Response.StatusCode)
		}
		return fmt.Errorf("%w: %s", ErrRemoteAuth, code)
	}

	if isTransportError(err) {
		return networkError("token exchange", err)
	}

	return fmt.Errorf("%w: %v", ErrRemoteAuth, err)
}
