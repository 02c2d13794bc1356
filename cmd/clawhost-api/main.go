package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openclaw/clawhost/internal/api"
	"github.com/openclaw/clawhost/internal/config"
	"github.com/openclaw/clawhost/internal/core"
	"github.com/openclaw/clawhost/internal/db"
	"github.com/openclaw/clawhost/internal/logging"
	"github.com/openclaw/clawhost/internal/metrics"
	"github.com/openclaw/clawhost/internal/paas"
	"github.com/openclaw/clawhost/internal/pairing"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-api-key" {
		createAPIKey(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations/core", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("clawhost-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corePool, err := db.NewCorePool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer corePool.Close()
	metrics.RegisterPgxPoolMetrics(corePool)

	platformClient, err := newPlatformClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create platform client")
	}

	instances := core.NewInstanceService(corePool)
	logs := core.NewDeploymentLogService(corePool)
	orchestrator := core.NewOrchestrator(instances, logs, platformClient, core.OrchestratorOptions{
		GatewayImage: cfg.GatewayImage,
		GatewayCmd:   cfg.GatewayCmd,
	}, logger)
	resolver := pairing.NewResolver(instances, platformClient, cfg.PairingExecTemplate, cfg.GatewayCmd, logger)

	go orchestrator.RunHealthSweeper(ctx, cfg.HealthCheckInterval)

	srv := api.NewServer(logger, corePool, instances, logs, orchestrator, resolver, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Str("platform", cfg.Platform).Msg("starting API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

func newPlatformClient(cfg *config.Config) (paas.Client, error) {
	switch cfg.Platform {
	case "docker":
		return paas.NewDockerClient(cfg.DockerHost, cfg.DockerNetwork)
	default:
		return paas.NewRailwayClient(cfg.RailwayAPIURL, cfg.RailwayAPIToken, cfg.RailwayProjectID, cfg.RailwayEnvironmentID), nil
	}
}

func createAPIKey(args []string) {
	fs := flag.NewFlagSet("create-api-key", flag.ExitOnError)
	email := fs.String("email", "", "Email of the owning user (required)")
	name := fs.String("name", "", "Name for the API key (required)")
	fs.Parse(args)

	if *email == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "error: --email and --name are required")
		fmt.Fprintln(os.Stderr, "usage: clawhost-api create-api-key --email <email> --name <name>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewCorePool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := core.NewAPIKeyService(pool)
	key, rawKey, err := svc.Create(ctx, *email, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API key created successfully.\n\n")
	fmt.Printf("  Name:   %s\n", key.Name)
	fmt.Printf("  User:   %s\n", key.UserID)
	fmt.Printf("  ID:     %s\n", key.ID)
	fmt.Printf("  Key:    %s\n\n", rawKey)
	fmt.Printf("Save this key - it will not be shown again.\n")
}
