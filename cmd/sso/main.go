package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/greenmarket/sso/internal/cache"
	"github.com/greenmarket/sso/internal/config"
	httpx "github.com/greenmarket/sso/internal/http"
	"github.com/greenmarket/sso/internal/http/handlers"
	"github.com/greenmarket/sso/internal/http/middlewares"
	"github.com/greenmarket/sso/internal/observability/logger"
	"github.com/greenmarket/sso/internal/provider"
	"github.com/greenmarket/sso/internal/provider/google"
	"github.com/greenmarket/sso/internal/provider/kakao"
	"github.com/greenmarket/sso/internal/provider/naver"
	"github.com/greenmarket/sso/internal/sso"
	"github.com/greenmarket/sso/internal/store/pg"
	"github.com/greenmarket/sso/internal/token"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	// .env is optional; real deployments inject env directly.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:           "sso",
		Short:         "Social login and identity linking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return migrate(cmd.Context(), cfg)
		},
	}

	root.AddCommand(serveCmd, migrateCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
	})
}

func migrate(ctx context.Context, cfg *config.Config) error {
	initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	store, err := pg.Connect(ctx, pg.Config{
		DSN:             cfg.Storage.DSN,
		MaxConns:        cfg.Storage.Postgres.MaxConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.L().Info("migrations applied")
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	initLogger(cfg)
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	store, err := pg.Connect(ctx, pg.Config{
		DSN:             cfg.Storage.DSN,
		MaxConns:        cfg.Storage.Postgres.MaxConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer store.Close()

	if cfg.Flags.Migrate {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	cacheClient := cache.New(cache.Config{
		Driver: cfg.Cache.Kind,
		Addr:   cfg.Cache.Redis.Addr,
		DB:     cfg.Cache.Redis.DB,
		Prefix: cfg.Cache.Redis.Prefix,
	})
	defer func() { _ = cacheClient.Close() }()

	registry := buildRegistry(cfg)
	for _, name := range registry.Names() {
		log.Info("provider enabled", logger.Provider(name))
	}

	issuer := token.NewIssuer(cfg.JWT.Issuer, []byte(cfg.JWT.Secret), cfg.SessionTTL())
	resolver := sso.NewResolver(store)
	gate := sso.NewSuspensionGate(store)
	loginSvc := sso.NewLoginService(registry, resolver, gate, issuer, store)
	signupSvc := sso.NewSignupService(store, issuer, cacheClient)
	links := sso.NewLinkManager(store, registry)

	metricsHandler, err := httpx.RegisterMetrics(httpx.MetricsConfig{
		Pool: func() *pgxpool.Pool { return store.Pool() },
	})
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	health := &handlers.HealthHandler{
		Ping: func(ctx context.Context) error { return store.Pool().Ping(ctx) },
	}

	router := httpx.NewRouter(httpx.RouterDeps{
		Public: []httpx.Registrar{
			handlers.NewSocialHandler(loginSvc, signupSvc, registry),
		},
		Authed: []httpx.Registrar{
			handlers.NewMeHandler(links),
		},
		Auth:    middlewares.WithAuth(issuer),
		Healthz: health.Healthz,
		Readyz:  health.Readyz,
		Metrics: metricsHandler,
	})

	log.Info("starting",
		logger.String("env", cfg.App.Env),
		logger.String("addr", cfg.Server.Addr),
		logger.Count(len(registry.Names())),
	)
	return httpx.NewServer(cfg.Server.Addr, router).Start(ctx)
}

func buildRegistry(cfg *config.Config) *provider.Registry {
	registry := provider.NewRegistry()
	factories := map[string]provider.Factory{
		kakao.ProviderName:  kakao.Factory,
		naver.ProviderName:  naver.Factory,
		google.ProviderName: google.Factory,
	}
	for name, block := range cfg.EnabledProviders() {
		factory, ok := factories[name]
		if !ok {
			continue
		}
		registry.Register(name, block.Client(), factory)
	}
	return registry
}
