package core

import (
	"time"
)

type Config struct {
	Telegram TelegramConfig
	Spotify  SpotifyConfig
	Download DownloadConfig
	Media    MediaConfig
	Server   ServerConfig
	Log      LogConfig
}

type TelegramConfig struct {
	BotToken string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

type DownloadConfig struct {
	YtDlpPath   string
	MaxRetries  int
	RetryDelay  time.Duration
	SearchLimit int
}

type MediaConfig struct {
	Dir          string // staging root for tracks, covers and archives
	CachePath    string // sqlite delivery cache, empty disables caching
	CoverMaxSize int    // covers are downscaled to fit this square, 0 keeps original
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level string
}

func DefaultConfig() *Config {
	return &Config{
		Download: DownloadConfig{
			YtDlpPath:   "yt-dlp",
			MaxRetries:  3,
			RetryDelay:  5 * time.Second,
			SearchLimit: 1,
		},
		Media: MediaConfig{
			Dir:          "./media",
			CachePath:    "./delivery_cache.db",
			CoverMaxSize: 1200,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
