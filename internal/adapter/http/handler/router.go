package handler

import (
	"yieldback-ledger/internal/adapter/http/middleware"
	redisStore "yieldback-ledger/internal/adapter/storage/redis"
	"yieldback-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	VaultSvc       ports.VaultService
	SettlementSvc  ports.SettlementService
	FaucetSvc      ports.FaucetService // nil = faucet disabled
	Treasury       ports.Treasury
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	// --- Vault (JWT-authenticated) ---
	vaultHandler := NewVaultHandler(deps.VaultSvc)
	vault := v1.Group("/vault", jwtAuth)
	{
		vault.POST("/deposit", rl("vault"), vaultHandler.Deposit)
		vault.POST("/withdraw", rl("vault"), vaultHandler.Withdraw)
		vault.GET("/balances", rl("views"), vaultHandler.Balances)
		vault.GET("/pool", rl("views"), vaultHandler.PoolStatus)
		vault.GET("/yield", rl("views"), vaultHandler.EstimateYield)
	}

	// --- Merchant registry (JWT-authenticated) ---
	merchantHandler := NewMerchantHandler(deps.SettlementSvc)
	merchants := v1.Group("/merchants", jwtAuth)
	{
		merchants.POST("", rl("merchants"), merchantHandler.Register)
		merchants.PUT("/me", rl("merchants"), merchantHandler.Update)
		merchants.GET("/:id", rl("views"), merchantHandler.Get)
	}

	// --- Item catalog and purchases (JWT-authenticated) ---
	itemHandler := NewItemHandler(deps.SettlementSvc)
	items := v1.Group("/items", jwtAuth)
	{
		items.POST("", rl("merchants"), itemHandler.List)
		items.PUT("/:id", rl("merchants"), itemHandler.Update)
		items.GET("/:id", rl("views"), itemHandler.Get)
		items.GET("/:id/eligibility", rl("views"), itemHandler.Eligibility)
		items.POST("/:id/purchase", rl("purchases"), itemHandler.Purchase)
	}
	v1.GET("/purchases/:id", jwtAuth, rl("views"), itemHandler.GetPurchase)

	// --- Faucet (JWT-authenticated, optional) ---
	if deps.FaucetSvc != nil {
		faucetHandler := NewFaucetHandler(deps.FaucetSvc)
		v1.POST("/faucet/claim", jwtAuth, rl("faucet"), faucetHandler.Claim)
	}

	// --- Public registry stats ---
	opsHandler := NewOpsHandler(deps.VaultSvc, deps.SettlementSvc, deps.Treasury)
	v1.GET("/stats", rl("views"), opsHandler.Stats)

	// --- Operator routes (JWT + operator role) ---
	ops := v1.Group("/ops", jwtAuth, middleware.OperatorOnly())
	{
		ops.POST("/deploy-pool", rl("ops"), opsHandler.DeployPool)
		ops.POST("/harvest", rl("ops"), opsHandler.Harvest)
		ops.POST("/distribute-yield", rl("ops"), opsHandler.DistributeYield)
		ops.POST("/collect-fees", rl("ops"), opsHandler.CollectFees)
		ops.POST("/pay-merchant", rl("ops"), opsHandler.PayMerchant)
		ops.POST("/treasury/transfer-control", rl("ops"), opsHandler.TransferControl)
		ops.GET("/treasury", rl("ops"), opsHandler.TreasuryStatus)
	}

	return r
}
