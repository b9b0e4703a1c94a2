package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yieldback-ledger/config"
	httpHandler "yieldback-ledger/internal/adapter/http/handler"
	pgStorage "yieldback-ledger/internal/adapter/storage/postgres"
	redisStorage "yieldback-ledger/internal/adapter/storage/redis"
	"yieldback-ledger/internal/core/ports"
	"yieldback-ledger/internal/service"
	"yieldback-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Yieldback Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	assetRepo := pgStorage.NewAssetRepo(pool)
	claimRepo := pgStorage.NewClaimRepo(pool)
	vaultRepo := pgStorage.NewVaultRepo(pool)
	yieldRepo := pgStorage.NewYieldPositionRepo(pool)
	treasuryRepo := pgStorage.NewTreasuryRepo(pool)
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	itemRepo := pgStorage.NewItemRepo(pool)
	purchaseRepo := pgStorage.NewPurchaseRepo(pool)
	feeRepo := pgStorage.NewFeeRepo(pool)
	auditRepo := pgStorage.NewAuditRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Initialize ledger services
	ledger := service.NewTokenLedger(claimRepo, log)
	treasury := service.NewTreasury(assetRepo, treasuryRepo, transactor, log)
	yieldSource := service.NewYieldSource(yieldRepo, assetRepo, log)

	// Initialize business services
	authSvc := service.NewAuthService(accountRepo, hashSvc, tokenSvc, auditSvc, log)
	vaultSvc := service.NewVaultService(
		vaultRepo,
		assetRepo,
		ledger,
		treasury,
		yieldSource,
		transactor,
		auditSvc,
		log,
	)
	notifier := service.NewWebhookNotifier(merchantRepo, encSvc, sigSvc, &http.Client{Timeout: 10 * time.Second}, log)
	settlementSvc := service.NewSettlementService(
		merchantRepo,
		itemRepo,
		purchaseRepo,
		feeRepo,
		ledger,
		treasury,
		transactor,
		encSvc,
		notifier,
		auditSvc,
		log,
	)

	// Faucet (dev/test only, disabled via config in production)
	var faucetSvc ports.FaucetService
	if cfg.Faucet.Enabled {
		cooldownStore := redisStorage.NewCooldownStore(rdb)
		faucetSvc = service.NewFaucetService(
			assetRepo,
			transactor,
			cooldownStore,
			auditSvc,
			cfg.Faucet.Grant,
			cfg.Faucet.Cooldown,
			log,
		)
		log.Info().Int64("grant", cfg.Faucet.Grant).Dur("cooldown", cfg.Faucet.Cooldown).Msg("Faucet enabled")
	}

	// Initialize rate limit store
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		VaultSvc:       vaultSvc,
		SettlementSvc:  settlementSvc,
		FaucetSvc:      faucetSvc,
		Treasury:       treasury,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		AuditSvc:       auditSvc,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
