package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/socialsounds/server/logger"
	"github.com/socialsounds/server/models"
)

// CallbackPath is where SoundCloud sends the browser back after authorization
const CallbackPath = "/soundcloud/callback"

const (
	minSoundCloudTimeout = 10 * time.Second
	maxSoundCloudTimeout = 60 * time.Second
)

type ServerConfig struct {
	Host         string
	Port         string
	RootURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type SoundCloudConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIURL       string
	Scopes       []string
	Timeout      time.Duration

	// RequestsPerSecond paces outbound API calls
	RequestsPerSecond float64
}

// Config is the resolved configuration of one server process
type Config struct {
	Server     ServerConfig
	DBPath     string
	SoundCloud SoundCloudConfig
	Log        logger.Config
	Locations  []models.ProjectLocation

	// MaxUploadBytes caps the body of an upload request
	MaxUploadBytes int64

	// File is the config file that was read, empty when none was found
	File string
}

// CallbackURL is the fixed redirect URI registered with SoundCloud
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.Server.RootURL, "/") + CallbackPath
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.root_url", "http://localhost:8080")
	viper.SetDefault("server.read_timeout", "90s")
	viper.SetDefault("server.write_timeout", "90s")
	viper.SetDefault("db.path", "./data/socialsounds.db")

	// soundcloud defaults
	viper.SetDefault("soundcloud.auth_url", "https://secure.soundcloud.com/authorize")
	viper.SetDefault("soundcloud.token_url", "https://secure.soundcloud.com/oauth/token")
	viper.SetDefault("soundcloud.api_url", "https://api.soundcloud.com")
	viper.SetDefault("soundcloud.scopes", "")
	viper.SetDefault("soundcloud.timeout", "30s")
	viper.SetDefault("soundcloud.requests_per_second", 5)

	viper.SetDefault("upload.max_bytes", 64<<20)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age_days", 28)

	viper.SetDefault("locations", []map[string]any{
		{"name": "london", "human_readable_name": "London", "centre": []float64{51.5074, -0.1278}},
	})
}

// Load initializes the configuration with viper and resolves it. Missing
// required settings are reported together.
func Load() (*Config, error) {
	// a missing .env is fine, the environment and config file still apply
	_ = godotenv.Load()

	setDefaults()

	viper.AutomaticEnv()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	cfg := &Config{}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		cfg.File = viper.ConfigFileUsed()
	}

	// check for required settings
	requiredVars := []string{"soundcloud.client_id", "soundcloud.client_secret"}
	missingVars := []string{}

	for _, v := range requiredVars {
		if viper.GetString(v) == "" {
			missingVars = append(missingVars, v)
		}
	}

	if len(missingVars) > 0 {
		return nil, fmt.Errorf("required configuration variables not set: %s", strings.Join(missingVars, ", "))
	}

	return resolve(cfg)
}

func resolve(cfg *Config) (*Config, error) {
	cfg.Server = ServerConfig{
		Host:         viper.GetString("server.host"),
		Port:         viper.GetString("server.port"),
		RootURL:      viper.GetString("server.root_url"),
		ReadTimeout:  viper.GetDuration("server.read_timeout"),
		WriteTimeout: viper.GetDuration("server.write_timeout"),
	}
	cfg.DBPath = viper.GetString("db.path")

	cfg.SoundCloud = SoundCloudConfig{
		ClientID:     viper.GetString("soundcloud.client_id"),
		ClientSecret: viper.GetString("soundcloud.client_secret"),
		AuthURL:      viper.GetString("soundcloud.auth_url"),
		TokenURL:     viper.GetString("soundcloud.token_url"),
		APIURL:       viper.GetString("soundcloud.api_url"),
		Scopes:       strings.Fields(viper.GetString("soundcloud.scopes")),
		Timeout:      viper.GetDuration("soundcloud.timeout"),

		RequestsPerSecond: viper.GetFloat64("soundcloud.requests_per_second"),
	}
	if t := cfg.SoundCloud.Timeout; t < minSoundCloudTimeout || t > maxSoundCloudTimeout {
		return nil, fmt.Errorf("soundcloud.timeout must be between %s and %s, got %s",
			minSoundCloudTimeout, maxSoundCloudTimeout, t)
	}

	cfg.MaxUploadBytes = viper.GetInt64("upload.max_bytes")
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("upload.max_bytes must be positive, got %d", cfg.MaxUploadBytes)
	}

	cfg.Log = logger.Config{
		Level:      viper.GetString("log.level"),
		OutputPath: viper.GetString("log.file"),
		MaxSize:    viper.GetInt("log.max_size_mb"),
		MaxBackups: viper.GetInt("log.max_backups"),
		MaxAge:     viper.GetInt("log.max_age_days"),
		Compress:   true,
	}

	if err := viper.UnmarshalKey("locations", &cfg.Locations); err != nil {
		return nil, fmt.Errorf("invalid locations: %w", err)
	}

	return cfg, nil
}
