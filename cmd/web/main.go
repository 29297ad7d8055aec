package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/Team-synvo/jb-ai/internal/catalog"
	"github.com/Team-synvo/jb-ai/internal/format"
	"github.com/Team-synvo/jb-ai/internal/handlers"
	"github.com/Team-synvo/jb-ai/internal/middleware"
	"github.com/Team-synvo/jb-ai/internal/platform/config"
	pfirestore "github.com/Team-synvo/jb-ai/internal/platform/firestore"
	"github.com/Team-synvo/jb-ai/internal/platform/observability"
	"github.com/Team-synvo/jb-ai/internal/platform/secrets"
	"github.com/Team-synvo/jb-ai/internal/visits"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		addr        string
		catalogPath string
		tmplDir     string
		envFile     string
	)
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides APP_SERVER_PORT)")
	flag.StringVar(&catalogPath, "catalog", "", "catalog YAML file (overrides APP_CATALOG_PATH)")
	flag.StringVar(&tmplDir, "templates", "", "template directory reparsed on every request in dev mode")
	flag.StringVar(&envFile, "env", ".env", "dotenv file")
	flag.Parse()

	envValues, err := config.EnvironmentValues(config.WithEnvFile(envFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read environment: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(observability.LoggerOptions{
		Level:       envValues["LOG_LEVEL"],
		Development: isTrue(envValues["APP_DEV"]),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	logger := baseLogger.Named("web")

	fetcher := secrets.NewFetcher(append(secrets.OptionsFromEnv(envValues), secrets.WithLogger(logger.Named("secrets")))...)
	cfg, err := config.Load(context.Background(),
		config.WithEnvFile(envFile),
		config.WithSecretResolver(fetcher),
	)
	_ = fetcher.Close()
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
	if addr != "" {
		cfg.Server.Port = addr
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
		cfg.Catalog.Watch = cfg.Server.DevMode
	}

	// stop and Sync must run before os.Exit.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(observability.WithLogger(ctx, logger), cfg, tmplDir)
	stop()
	if err != nil {
		logger.Error("web server stopped", zap.Error(err))
	}
	_ = baseLogger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, tmplDir string) error {
	logger := observability.FromContext(ctx)

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	store := catalog.NewStore(cat)

	repo, closeRepo, err := openRepository(ctx, cfg.Visits, cfg.Cloud)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRepo.Close(); err != nil {
			logger.Warn("visits repository close error", zap.Error(err))
		}
	}()

	counter, err := visits.NewService(repo, cfg.Visits.CounterID, visits.WithLogger(logger.Named("visits")))
	if err != nil {
		return err
	}

	if !cfg.Server.DevMode {
		tmplDir = ""
	}
	renderer, err := handlers.NewRenderer(tmplDir)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	lang := format.Lang(cfg.Catalog.Lang)
	cookies := middleware.NewVisitorCookies(cfg.Cookie, logger.Named("visitor"))
	site := handlers.NewSiteHandlers(store, renderer,
		handlers.WithTotals(counter),
		handlers.WithLanguage(lang),
		handlers.WithRefreshInterval(cfg.Client.RefreshInterval),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithSiteMiddlewares(cookies.Middleware),
		handlers.WithRequestTimeout(cfg.Server.RequestTimeout),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(
			handlers.WithHealthVersion(buildVersion()),
		)),
		handlers.WithSiteHandlers(site),
		handlers.WithVisitHandlers(handlers.NewVisitHandlers(counter, cookies)),
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	g.Go(func() error {
		serverLogger.Info("jb-ai web listening",
			zap.String("backend", cfg.Visits.Backend),
			zap.Bool("dev", cfg.Server.DevMode),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Catalog.Watch {
		watcher := catalog.NewWatcher(cfg.Catalog.Path, store, logger.Named("catalog"))
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received; draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return catalog.Default()
	}
	return catalog.Load(cfg.Path)
}

// openRepository returns the configured counter store and whatever must be closed on exit.
func openRepository(ctx context.Context, cfg config.VisitsConfig, cloud config.CloudConfig) (visits.Repository, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		repo, err := visits.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case config.BackendFirestore:
		providerOpts := []pfirestore.ProviderOption{pfirestore.WithDialTimeout(cfg.DialTimeout)}
		if cloud.CredentialsFile != "" {
			providerOpts = append(providerOpts, pfirestore.WithClientOptions(option.WithCredentialsFile(cloud.CredentialsFile)))
		}
		provider := pfirestore.NewProvider(cfg, providerOpts...)
		if _, err := provider.Client(ctx); err != nil {
			return nil, nil, fmt.Errorf("initialise firestore client: %w", err)
		}
		repo, err := visits.NewFirestoreRepository(provider,
			pfirestore.WithTxAttempts(cfg.TxAttempts),
			pfirestore.WithTxTimeout(cfg.TxTimeout),
		)
		if err != nil {
			_ = provider.Close()
			return nil, nil, err
		}
		return repo, provider, nil
	default:
		return visits.NewMemoryRepository(), closerFunc(func() error { return nil }), nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func isTrue(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func buildVersion() string {
	if v := strings.TrimSpace(os.Getenv("APP_BUILD_VERSION")); v != "" {
		return v
	}
	return "dev"
}
