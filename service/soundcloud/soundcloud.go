package soundcloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/socialsounds/server/models"
	"github.com/socialsounds/server/oauth"
)

const (
	defaultAPIBaseURL = "https://api.soundcloud.com"
	defaultTimeout    = 30 * time.Second

	// SoundCloud allows bursts but throttles sustained API traffic
	defaultRequestsPerSecond = 5

	// how much of an error body ends up in error messages
	maxErrorBody = 512
)

// Config holds the client identity and endpoints
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	APIURL       string
	Timeout      time.Duration // per call
	HTTPClient   *http.Client  // optional

	// RequestsPerSecond paces API calls made by this process
	RequestsPerSecond float64
}

// TrackUpload is the metadata and audio for a new track. Title and
// Description are passed through as given; callers enforce length limits.
type TrackUpload struct {
	Title       string
	Description string
	Filename    string
	Audio       []byte
}

// RemoteTrack identifies a track created on SoundCloud
type RemoteTrack struct {
	ID           string
	PermalinkURL string
}

// User is the connected SoundCloud account
type User struct {
	ID           string `json:"-"`
	Username     string `json:"username"`
	PermalinkURL string `json:"permalink_url"`
}

// Client is a stateless adapter over the SoundCloud HTTP API. It never
// retries: a retried upload can create a duplicate track.
type Client struct {
	config     oauth2.Config
	pkce       oauth.PKCE
	apiBaseURL string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	apiBaseURL := strings.TrimSuffix(cfg.APIURL, "/")
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	return &Client{
		config:     oauth.NewConfig(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL, cfg.Scopes, cfg.AuthURL, cfg.TokenURL),
		pkce:       oauth.NewPKCE(),
		apiBaseURL: apiBaseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		timeout:    timeout,
		logger:     logger.Named("soundcloud"),
		now:        time.Now,
	}
}

// AuthorizationURL is where the account owner grants this server access.
// It makes no network calls.
func (c *Client) AuthorizationURL() string {
	return c.config.AuthCodeURL("", c.pkce.AuthOptions()...)
}

// ExchangeToken trades the authorization code from the callback for a credential
func (c *Client) ExchangeToken(ctx context.Context, code string) (*models.Credential, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: no authorization code", ErrRemoteAuth)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.config.Exchange(ctx, code, c.pkce.ExchangeOptions()...)
	if err != nil {
		c.logger.Warn("token exchange failed", zap.Error(err))
		return nil, classifyExchangeError(err)
	}

	cred := &models.Credential{
		AccessToken:  token.AccessToken,
		Expires:      token.Expiry,
		RefreshToken: token.RefreshToken,
		CreatedAt:    c.now().UTC(),
	}
	if scope, ok := token.Extra("scope").(string); ok {
		cred.Scope = scope
	}

	return cred, nil
}

// CreateTrack uploads the metadata and audio in one request
func (c *Client) CreateTrack(ctx context.Context, upload TrackUpload, cred *models.Credential) (*RemoteTrack, error) {
	if cred.Expired(c.now()) {
		return nil, ErrAuthExpired
	}
	if len(upload.Audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio payload", ErrRemoteUpload)
	}

	body, contentType, err := encodeTrack(upload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode track: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/tracks", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req, cred)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, networkError("create track", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError("create track", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, ErrRemoteUpload); err != nil {
		c.logger.Warn("track upload rejected", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, err
	}

	var created struct {
		ID           flexibleID `json:"id"`
		PermalinkURL string     `json:"permalink_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("%w: unreadable response: %v", ErrRemoteUpload, err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: response has no track id", ErrRemoteUpload)
	}
	if created.PermalinkURL == "" {
		c.logger.Error("track created without a permalink", zap.String("id", string(created.ID)))
		return nil, fmt.Errorf("%w: response has no permalink for track %s", ErrRemoteUpload, created.ID)
	}

	c.logger.Info("created track",
		zap.String("id", string(created.ID)),
		zap.String("url", created.PermalinkURL),
		zap.Int("bytes", len(upload.Audio)),
		zap.Duration("took", time.Since(start)))

	return &RemoteTrack{ID: string(created.ID), PermalinkURL: created.PermalinkURL}, nil
}

// Me fetches the account the credential belongs to
func (c *Client) Me(ctx context.Context, cred *models.Credential) (*User, error) {
	if cred.Expired(c.now()) {
		return nil, ErrAuthExpired
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req, cred)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, networkError("fetch profile", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError("fetch profile", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, nil); err != nil {
		return nil, err
	}

	var user struct {
		User
		ID flexibleID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	user.User.ID = string(user.ID)

	return &user.User, nil
}

func (c *Client) authorize(req *http.Request, cred *models.Credential) {
	req.Header.Set("Authorization", "OAuth "+cred.AccessToken)
	req.Header.Set("Accept", "application/json; charset=utf-8")
}

// checkResponse maps non-2xx statuses: 401 to ErrAuthExpired, anything else
// to kind (or a plain error when kind is nil)
func checkResponse(resp *http.Response, kind error) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrAuthExpired, msg)
	}
	if kind == nil {
		return fmt.Errorf("soundcloud API error: status %d, body: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("%w: status %d, body: %s", kind, resp.StatusCode, msg)
}

func encodeTrack(upload TrackUpload) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	if err := mw.WriteField("track[title]", upload.Title); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("track[description]", upload.Description); err != nil {
		return nil, "", err
	}

	filename := upload.Filename
	if filename == "" {
		filename = "sound"
	}
	part, err := mw.CreateFormFile("track[asset_data]", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(upload.Audio); err != nil {
		return nil, "", err
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

// flexibleID accepts SoundCloud ids sent either as numbers or strings
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = flexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unexpected id %s", data)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("unexpected id %s", data)
	}
	*id = flexibleID(n.String())
	return nil
}
