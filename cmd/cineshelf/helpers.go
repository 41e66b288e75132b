package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/CineShelf/internal/browse"
	"github.com/vadimtrunov/CineShelf/internal/catalog"
	"github.com/vadimtrunov/CineShelf/internal/config"
	"github.com/vadimtrunov/CineShelf/internal/details"
	"github.com/vadimtrunov/CineShelf/internal/httpclient"
	"github.com/vadimtrunov/CineShelf/internal/repository"
	"github.com/vadimtrunov/CineShelf/internal/watchlist"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	styleStar    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow

	styleTitle    = lipgloss.NewStyle().Bold(true)
	styleSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true) // cyan bold

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// services bundles the catalog repository and the watchlist store.
type services struct {
	movies *repository.Movies
	store  *watchlist.Store
}

// Close releases the watchlist database.
func (s *services) Close() error {
	return s.store.Close()
}

// initServices creates the catalog repository and opens the watchlist store.
func initServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services, error) {
	movies, err := initMovies(cfg, logger)
	if err != nil {
		return nil, err
	}
	store, err := initWatchlist(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &services{movies: movies, store: store}, nil
}

// initMovies creates the catalog client and the repository on top of it.
func initMovies(cfg *config.Config, logger *slog.Logger) (*repository.Movies, error) {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.TMDb.Timeout
	httpCfg.MaxAttempts = cfg.TMDb.MaxAttempts

	client, err := catalog.New(catalog.Config{
		BaseURL: cfg.TMDb.BaseURL,
		Token:   cfg.TMDb.APIKey,
		HTTP:    httpCfg,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	logger.Debug("catalog client initialized", slog.String("url", sanitizeURL(cfg.TMDb.BaseURL)))
	return repository.NewMovies(client, cfg.TMDb.Language), nil
}

// initWatchlist opens the configured watchlist database, creating the data
// directory for SQLite files.
func initWatchlist(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*watchlist.Store, error) {
	if cfg.Storage.Driver == watchlist.DriverSQLite && isSQLiteFile(cfg.Storage.DSN) {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DSN), 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	store, err := watchlist.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open watchlist: %w", err)
	}
	return store, nil
}

func isSQLiteFile(dsn string) bool {
	return dsn != "" && !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:")
}

// browseConfig maps the config file section onto the orchestrator config.
func browseConfig(cfg *config.Config) browse.Config {
	return browse.Config{
		Debounce:       cfg.Browse.Debounce,
		MinQueryLength: cfg.Browse.MinQueryLength,
	}
}

// detailsConfig maps the config file section onto the aggregator config.
func detailsConfig(cfg *config.Config) details.Config {
	return details.Config{
		CreditConcurrency: cfg.Details.CreditConcurrency,
		TopN:              cfg.Details.TopN,
	}
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
