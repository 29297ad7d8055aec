package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Team-synvo/jb-ai/internal/catalog"
	"github.com/Team-synvo/jb-ai/internal/format"
	"github.com/Team-synvo/jb-ai/internal/platform/config"
	"github.com/Team-synvo/jb-ai/internal/platform/observability"
	"github.com/Team-synvo/jb-ai/internal/platform/secrets"
	"github.com/Team-synvo/jb-ai/internal/tui"
	"github.com/Team-synvo/jb-ai/internal/visits"
)

const appDir = "jb-ai"

func main() {
	var (
		catalogPath string
		baseURL     string
		offline     bool
		envFile     string
	)
	flag.StringVar(&catalogPath, "catalog", "", "catalog YAML file (defaults to APP_CATALOG_PATH or the built-in catalog)")
	flag.StringVar(&baseURL, "api", "", "web server base URL for the visitor counter (overrides APP_API_BASE_URL)")
	flag.BoolVar(&offline, "offline", false, "do not contact the visitor counter")
	flag.StringVar(&envFile, "env", ".env", "dotenv file")
	flag.Parse()

	if err := run(catalogPath, baseURL, envFile, offline); err != nil {
		fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
		os.Exit(1)
	}
}

func run(catalogPath, baseURL, envFile string, offline bool) error {
	envValues, err := config.EnvironmentValues(config.WithEnvFile(envFile))
	if err != nil {
		return err
	}
	fetcher := secrets.NewFetcher(secrets.OptionsFromEnv(envValues)...)
	defer fetcher.Close()

	cfg, err := config.Load(context.Background(),
		config.WithEnvFile(envFile),
		config.WithSecretResolver(fetcher),
	)
	if err != nil {
		return err
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	if baseURL != "" {
		cfg.Client.BaseURL = baseURL
	}

	stateDir, err := resolveStateDir(cfg.Client.StateDir)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file next to the visit marker.
	logger, err := observability.NewLogger(observability.LoggerOptions{
		Level:       cfg.Log.Level,
		Development: true,
		OutputPaths: []string{filepath.Join(stateDir, "catalog.log")},
	})
	if err != nil {
		return fmt.Errorf("initialise logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	opts := []tui.Option{}
	if clipboard.Unsupported {
		keys := tui.DefaultKeyMap
		keys.Copy.SetEnabled(false)
		opts = append(opts, tui.WithKeyMap(keys))
		logger.Info("clipboard unavailable; copy disabled")
	}
	if !offline {
		tracker := visits.NewTracker(
			visits.NewClient(cfg.Client.BaseURL),
			stateDir,
			visits.WithRefreshInterval(cfg.Client.RefreshInterval),
			visits.WithLanguage(format.Lang(cfg.Catalog.Lang)),
			visits.WithTrackerLogger(logger.Named("visits")),
		)
		opts = append(opts, tui.WithTracker(tracker))
	}

	logger.Info("starting terminal browser",
		zap.String("catalog", cfg.Catalog.Path),
		zap.String("api", cfg.Client.BaseURL),
		zap.Bool("offline", offline),
	)
	if _, err := tea.NewProgram(tui.New(cat, opts...), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run terminal browser: %w", err)
	}
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

func resolveStateDir(configured string) (string, error) {
	dir := strings.TrimSpace(configured)
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("locate config directory: %w", err)
		}
		dir = filepath.Join(base, appDir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state directory: %w", err)
	}
	return dir, nil
}
