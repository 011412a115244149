package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/modelgate/modelgate/config"
	"github.com/modelgate/modelgate/internal/budget"
	"github.com/modelgate/modelgate/internal/confirm"
	"github.com/modelgate/modelgate/internal/gateway"
	"github.com/modelgate/modelgate/internal/policy"
	"github.com/modelgate/modelgate/internal/provider"
	"github.com/modelgate/modelgate/internal/router"
	"github.com/modelgate/modelgate/internal/store"
	"github.com/modelgate/modelgate/internal/telemetry"
	transporthttp "github.com/modelgate/modelgate/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting modelgate...")
	log.Printf("External HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Admin HTTP Port: %d", cfg.AdminPort)
	log.Printf("Database: %s", cfg.DatabaseURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize provider adapters
	providers := provider.NewRegistryFromConfig(cfg)
	log.Printf("Registered providers: %v", providers.Names())

	// Initialize policy engine and registry
	ctx := context.Background()
	engine, err := policy.NewEngine(ctx, policy.DefaultAuthzPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}
	policies, err := policy.NewRegistry(engine, policy.DefaultPolicies())
	if err != nil {
		log.Fatalf("Failed to initialize policy registry: %v", err)
	}

	// Initialize router. Precedence for the initial routing table:
	// persisted config, then the bootstrap YAML file, then built-in
	// defaults.
	routingCfg, err := db.LoadRoutingConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to load routing config: %v", err)
	}
	if routingCfg == nil && cfg.RoutingConfigPath != "" {
		routingCfg, err = router.LoadYAMLConfig(cfg.RoutingConfigPath)
		if err != nil {
			log.Fatalf("Failed to load routing config file: %v", err)
		}
		log.Printf("Loaded routing config from %s", cfg.RoutingConfigPath)
	}
	if routingCfg == nil {
		routingCfg = router.DefaultConfig(cfg)
		log.Printf("Using built-in default routing config")
	}
	rt := router.New(providers, routingCfg, db)

	// Initialize budget ledger
	ledger := budget.NewLedger(db)

	// Initialize confirmation gate and background sweeper
	gate := confirm.NewGate(db, cfg.ConfirmationExpiry)
	sweeper := confirm.NewSweeper(gate, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize telemetry
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	window := telemetry.NewWindow(0)
	recorder := telemetry.NewRecorder(db, metrics, window)

	// Initialize gateway
	gw := gateway.New(policies, rt, ledger, recorder, providers, cfg.SideEffectTimeout)

	// Create servers
	externalServer := transporthttp.NewExternalServer(gw, gate, window)
	adminServer := transporthttp.NewAdminServer(rt, ledger, db, gate)

	// Start external server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := externalServer.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start external server: %v", err)
		}
	}()

	// Start admin server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.AdminPort)
		if err := adminServer.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start admin server: %v", err)
		}
	}()

	log.Printf("External API started on port %d", cfg.HTTPPort)
	log.Printf("Admin API started on port %d", cfg.AdminPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down modelgate...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown both servers
	if err := externalServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown external server gracefully: %v", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown admin server gracefully: %v", err)
	}

	log.Println("Modelgate stopped")
}
