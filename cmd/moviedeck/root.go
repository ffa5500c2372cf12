package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/moviedeck/internal/app"
	"github.com/vmunix/moviedeck/internal/config"
	"github.com/vmunix/moviedeck/internal/wishlist"
)

var version = "dev"

var (
	configPath string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "moviedeck",
	Short: "Browse movies and keep a wishlist",
	Long: `moviedeck - browse TMDB movies and keep a per-user wishlist

Catalog responses are cached locally for 30 minutes. The wishlist follows
whoever is logged in: anonymous, a local email account, or Kakao.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: discovered)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("moviedeck {{.Version}}\n")
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig uses --config, then discovery, then built-in defaults.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			cfg := config.Default()
			cfg.TMDB.APIKey = os.Getenv("TMDB_API_KEY")
			return cfg, nil
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := cfg.Server.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

// openApp loads config and opens the application. Wishlist notifications
// are printed unless JSON output is requested.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	out := cmd.OutOrStdout()
	notifier := wishlist.NotifierFunc(func(_ context.Context, n wishlist.Notification) {
		if !jsonOutput {
			fmt.Fprintln(out, n.Message)
		}
	})
	return app.Open(cmd.Context(), cfg, logger, app.WithNotifier(notifier))
}

// withApp runs fn against an opened app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) (err error) {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
