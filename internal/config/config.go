package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/amaumene/watchsync/internal/models"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Plex
	PlexToken        string
	PlexUsername     string
	PlexPassword     string
	PlexServerName   string
	PlexLibraryNames []string
	PlexExtraUsers   []string
	PlexSyncAdmin    bool // Sync the server owner's own watched states

	// Shoko
	ShokoHostname string
	ShokoPort     int
	ShokoUsername string
	ShokoPassword string
	ShokoDevice   string // Client label sent when requesting an API key

	// Daemon
	SyncSchedule string // Cron expression for scheduled export runs
	SyncWindow   string // Relative range used by scheduled runs
	JournalKeep  int    // Number of runs kept in the journal

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/watchsync.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("PLEX_SYNC_ADMIN", true)
	v.SetDefault("SHOKO_HOSTNAME", "127.0.0.1")
	v.SetDefault("SHOKO_PORT", 8111)
	v.SetDefault("SHOKO_USERNAME", "Default")
	v.SetDefault("SHOKO_DEVICE", "Shoko Relay Scripts for Plex")
	v.SetDefault("SYNC_SCHEDULE", "0 */6 * * *")
	v.SetDefault("SYNC_WINDOW", "1d")
	v.SetDefault("JOURNAL_KEEP", 50)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "watchsync")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		// Plex
		PlexToken:        v.GetString("PLEX_TOKEN"),
		PlexUsername:     v.GetString("PLEX_USERNAME"),
		PlexPassword:     v.GetString("PLEX_PASSWORD"),
		PlexServerName:   v.GetString("PLEX_SERVER_NAME"),
		PlexLibraryNames: splitList(v.GetString("PLEX_LIBRARY_NAMES")),
		PlexExtraUsers:   splitList(v.GetString("PLEX_EXTRA_USERS")),
		PlexSyncAdmin:    v.GetBool("PLEX_SYNC_ADMIN"),

		// Shoko
		ShokoHostname: v.GetString("SHOKO_HOSTNAME"),
		ShokoPort:     v.GetInt("SHOKO_PORT"),
		ShokoUsername: v.GetString("SHOKO_USERNAME"),
		ShokoPassword: v.GetString("SHOKO_PASSWORD"),
		ShokoDevice:   v.GetString("SHOKO_DEVICE"),

		// Daemon
		SyncSchedule: v.GetString("SYNC_SCHEDULE"),
		SyncWindow:   v.GetString("SYNC_WINDOW"),
		JournalKeep:  v.GetInt("JOURNAL_KEEP"),

		// Server
		ServerPort: v.GetString("SERVER_PORT"),

		// Paths
		DatabaseFile: filepath.Join(configDir, "watchsync.db"),

		// Logging
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.PlexToken == "" && (c.PlexUsername == "" || c.PlexPassword == "") {
		return &models.ConfigError{Field: "PLEX_TOKEN", Reason: "PLEX_TOKEN or PLEX_USERNAME and PLEX_PASSWORD are required"}
	}
	if c.PlexServerName == "" {
		return &models.ConfigError{Field: "PLEX_SERVER_NAME", Reason: "required"}
	}
	if len(c.PlexLibraryNames) == 0 {
		return &models.ConfigError{Field: "PLEX_LIBRARY_NAMES", Reason: "required"}
	}
	if c.ShokoHostname == "" {
		return &models.ConfigError{Field: "SHOKO_HOSTNAME", Reason: "required"}
	}
	if c.ShokoPort <= 0 || c.ShokoPort > 65535 {
		return &models.ConfigError{Field: "SHOKO_PORT", Value: strconv.Itoa(c.ShokoPort), Reason: "must be between 1 and 65535"}
	}
	return nil
}

// ShokoURL is the base URL of the Shoko Server API
func (c *Config) ShokoURL() string {
	return fmt.Sprintf("http://%s:%d", c.ShokoHostname, c.ShokoPort)
}

// splitList parses comma separated lists such as "Anime Shows, Anime Movies"
func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
