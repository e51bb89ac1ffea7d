package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration. Everything comes from the
// environment, with an optional .env file for local development.
type Config struct {
	Port int

	// Paths
	DataDir      string
	DatabaseFile string

	// Discovery catalog. An empty key disables discovery and search;
	// the rest of the application keeps working without it.
	TMDBAPIKey string

	// Upstream base URLs, overridable for local testing.
	IMDBBaseURL     string
	EpguidesBaseURL string

	LogLevel string
}

func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// The .env file is optional.
	_ = viper.ReadInConfig()

	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("IMDB_BASE_URL", "https://www.imdb.com")
	viper.SetDefault("EPGUIDES_BASE_URL", "https://epguides.com")

	dataDir, err := filepath.Abs(viper.GetString("DATA_DIR"))
	if err != nil {
		return nil, fmt.Errorf("resolve DATA_DIR: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	databaseFile := viper.GetString("DATABASE_FILE")
	if databaseFile == "" {
		databaseFile = filepath.Join(dataDir, "trackarr.db")
	}

	return &Config{
		Port:            viper.GetInt("PORT"),
		DataDir:         dataDir,
		DatabaseFile:    databaseFile,
		TMDBAPIKey:      viper.GetString("TMDB_API_KEY"),
		IMDBBaseURL:     viper.GetString("IMDB_BASE_URL"),
		EpguidesBaseURL: viper.GetString("EPGUIDES_BASE_URL"),
		LogLevel:        viper.GetString("LOG_LEVEL"),
	}, nil
}
