// Package main provides the spotloader service entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"spotloader/internal/audio"
	"spotloader/internal/chat/telegram"
	"spotloader/internal/core"
	httpserver "spotloader/internal/http"
	"spotloader/internal/media"
	"spotloader/internal/spotify"
	"spotloader/internal/store"
	"spotloader/internal/youtube"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spotloader",
	Short: "Spotloader - Telegram Spotify downloader bot",
	Long: `Spotloader is a Telegram bot that resolves Spotify track, album and
playlist links, fetches the audio from YouTube, tags it with the catalog
metadata and delivers the result back to the chat.`,
	RunE: runSpotloader,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("telegram-bot-token", "", "Telegram bot token")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("ytdlp-path", "yt-dlp", "path to the yt-dlp binary")
	rootCmd.PersistentFlags().Int("download-retries", 3, "download attempts per track")
	rootCmd.PersistentFlags().Duration("download-retry-delay", 5*time.Second, "delay between download attempts")
	rootCmd.PersistentFlags().String("media-dir", "./media", "staging directory for downloads")
	rootCmd.PersistentFlags().String("cache-path", "./delivery_cache.db", "delivery cache database path (empty disables)")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("SPOTLOADER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Telegram.BotToken = viper.GetString("telegram-bot-token")

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")

	if p := viper.GetString("ytdlp-path"); p != "" {
		cfg.Download.YtDlpPath = p
	}
	if r := viper.GetInt("download-retries"); r > 0 {
		cfg.Download.MaxRetries = r
	}
	if d := viper.GetDuration("download-retry-delay"); d > 0 {
		cfg.Download.RetryDelay = d
	}

	if dir := viper.GetString("media-dir"); dir != "" {
		cfg.Media.Dir = dir
	}
	cfg.Media.CachePath = viper.GetString("cache-path")

	if host := viper.GetString("server-host"); host != "" {
		cfg.Server.Host = host
	}
	if port := viper.GetInt("server-port"); port != 0 {
		cfg.Server.Port = port
	}

	cfg.Log.Level = viper.GetString("log-level")

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runSpotloader(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting spotloader",
		zap.String("media_dir", config.Media.Dir),
		zap.String("ytdlp", config.Download.YtDlpPath))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := os.MkdirAll(config.Media.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	catalog := spotify.NewClient(&config.Spotify, logger.Named("spotify"))
	if err := catalog.Authenticate(ctx); err != nil {
		return fmt.Errorf("failed to authenticate with Spotify: %w", err)
	}

	httpServer := httpserver.NewServer(&config.Server, logger.Named("http"))

	var cache core.DeliveryCache
	if config.Media.CachePath != "" {
		dc, err := store.OpenDeliveryCache(config.Media.CachePath, logger.Named("cache"))
		if err != nil {
			return fmt.Errorf("failed to open delivery cache: %w", err)
		}
		defer dc.Close()
		cache = dc
	} else {
		cache = store.NopDeliveryCache{}
	}

	dedup := store.NewUpdateDedup(10000, 0.001)

	locator := youtube.NewLocator(&config.Download, logger.Named("locator"))
	acquirer := youtube.NewAcquirer(&config.Download, httpServer, logger.Named("acquirer"))
	tagger := audio.NewTagger(logger.Named("tagger"))
	covers := media.NewCoverFetcher(config.Media.CoverMaxSize, logger.Named("covers"))
	archiver := audio.NewArchiver(logger.Named("archiver"))

	pipeline := core.NewPipeline(locator, acquirer, tagger, covers, logger.Named("pipeline"))
	batch := core.NewBatch(pipeline, archiver, logger.Named("batch"))

	frontend := telegram.NewFrontend(
		&telegram.Config{BotToken: config.Telegram.BotToken},
		logger.Named("telegram"),
	)
	if err := frontend.Start(ctx); err != nil {
		return fmt.Errorf("failed to start telegram frontend: %w", err)
	}

	dispatcher := core.NewDispatcher(
		config,
		catalog,
		pipeline,
		batch,
		frontend,
		dedup,
		cache,
		httpServer,
		logger.Named("dispatcher"),
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return frontend.Listen(gCtx, dispatcher.HandleMessage)
	})

	logger.Info("Spotloader started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("Spotloader stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Spotloader stopped gracefully")
	return nil
}

func validateConfig() error {
	if config.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required")
	}
	if config.Spotify.ClientID == "" {
		return fmt.Errorf("spotify client ID is required")
	}
	if config.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify client secret is required")
	}
	return nil
}
