package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/agentgate/internal/config"
	ctrl "github.com/dropDatabas3/agentgate/internal/http/controllers/auth"
	"github.com/dropDatabas3/agentgate/internal/http/router"
	svc "github.com/dropDatabas3/agentgate/internal/http/services/auth"
	"github.com/dropDatabas3/agentgate/internal/infra/cachefactory"
	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
	"github.com/dropDatabas3/agentgate/internal/metrics"
	"github.com/dropDatabas3/agentgate/internal/observability/logger"
	"github.com/dropDatabas3/agentgate/internal/store"
	"github.com/dropDatabas3/agentgate/internal/store/memory"
	"github.com/dropDatabas3/agentgate/internal/store/pg"
)

// issuerName es el claim `iss` de todos los tokens emitidos.
const issuerName = "agentgate"

func newServeCmd() *cobra.Command {
	var (
		envFile    string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, configPath)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "ruta a .env (opcional)")
	cmd.Flags().StringVar(&configPath, "config", "", "ruta a config.yaml (opcional)")
	return cmd
}

func runServe(envFile, configPath string) error {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "agentgate",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.With(logger.Component("serve"))

	// Claves de firma/verificación.
	source := jwtx.NewKeySource(jwtx.KeySourceConfig{
		PrivateKeyJSON: cfg.Keys.PrivateJWK,
		PublicKeyJSON:  cfg.Keys.PublicJWK,
		Dir:            cfg.Keys.Dir,
	})
	issuer := jwtx.NewIssuer(issuerName, source)
	verifier := jwtx.NewVerifier(issuerName, source)

	if _, err := source.SigningKey(); err != nil {
		// Sin clave el servicio arranca igual: JWKS y health siguen
		// siendo útiles, /token devolverá server_error.
		log.Warn("no signing key configured, token issuance disabled", logger.Err(err))
	}

	// Registry de dos tiers.
	fallback := memory.New(cfg.Storage.ServersDBFile)
	if err := fallback.Load(); err != nil {
		return err
	}
	primary := pg.New(cfg.Storage.DatabaseURL)

	var cacheCfg cachefactory.Config
	cacheCfg.Redis.Addr = cfg.Redis.Addr
	cacheCfg.Redis.DB = cfg.Redis.DB
	c := cachefactory.Open(cacheCfg)

	registry := store.NewRegistry(primary, fallback, c)

	guard := svc.NewAdminGuard(
		cfg.Admin.ClientID, cfg.Admin.ClientSecret,
		cfg.Management.ClientID, cfg.Management.ClientSecret,
	)

	services := svc.NewServices(svc.Deps{
		Registry:  registry,
		Issuer:    issuer,
		KeySource: source,
		Cache:     c,
		Guard:     guard,
		DevMode:   cfg.IsDevelopment(),
	})
	controllers := ctrl.NewControllers(services)

	if err := metrics.Register(nil); err != nil {
		return err
	}

	handler := router.New(router.Deps{
		Controllers: controllers,
		Verifier:    verifier,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Bool("dev_mode", cfg.IsDevelopment()),
			logger.StorageType(registry.StorageType(context.Background())),
		)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		primary.Close()
	}
	return nil
}
