// Package server assembles the services and the HTTP routes of the API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"brandnft/internal/handlers"
	"brandnft/internal/middleware"
	"brandnft/internal/serial"
	"brandnft/internal/services"
)

// Services is the set of business services sharing one database and one
// ledger executor.
type Services struct {
	Users     services.UserServicer
	Wallets   services.WalletServicer
	Ledgers   services.ShareLedgerServicer
	Assets    services.AssetServicer
	Fractions services.FractionalizationServicer
	Audit     services.AuditServicer
}

// NewServices wires every service against db. All ledger mutations are
// serialized through a single executor.
func NewServices(db *gorm.DB) *Services {
	exec := serial.NewExecutor()
	wallets := services.NewWalletService(db, exec)
	ledgers := services.NewShareLedgerService(db, exec)
	return &Services{
		Users:     services.NewUserService(db),
		Wallets:   wallets,
		Ledgers:   ledgers,
		Assets:    services.NewAssetService(db, exec),
		Fractions: services.NewFractionalizationService(db, exec, ledgers, wallets),
		Audit:     services.NewAuditService(db),
	}
}

// Options tunes the router.
type Options struct {
	TreasuryAPIKey string
	RequestLogging bool
	Swagger        bool
}

// NewRouter registers the API routes.
func NewRouter(svc *Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	assetHandler := handlers.NewAssetHandler(svc.Assets, svc.Audit)
	fractionHandler := handlers.NewFractionHandler(svc.Fractions, svc.Audit)
	ledgerHandler := handlers.NewShareLedgerHandler(svc.Ledgers, svc.Audit)
	walletHandler := handlers.NewWalletHandler(svc.Wallets, svc.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.RequestLogging {
		router.Use(middleware.RequestLogging())
	}
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.TreasuryHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	v1.GET("/collection", assetHandler.GetCollection)
	v1.GET("/assets", assetHandler.ListAssets)
	v1.GET("/assets/count", assetHandler.Count)
	v1.GET("/assets/:id", assetHandler.GetAsset)
	v1.GET("/assets/:id/shares/available", fractionHandler.SharesAvailable)
	v1.GET("/assets/:id/share-ledger", fractionHandler.GetShareLedger)
	v1.GET("/assets/:id/purchases", fractionHandler.GetPurchases)
	v1.GET("/owners/:address/fractions", assetHandler.GetFractionsOf)
	v1.GET("/share-ledgers/:address", ledgerHandler.GetLedger)
	v1.GET("/share-ledgers/:address/balances", ledgerHandler.ListBalances)
	v1.GET("/share-ledgers/:address/balances/:holder", ledgerHandler.GetBalance)
	v1.GET("/wallets/:address", walletHandler.GetWallet)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/wallet", walletHandler.GetMyWallet)
	protected.GET("/fractions", assetHandler.GetMyFractions)
	protected.PUT("/collection/base-uri", assetHandler.SetBaseURI)

	assets := protected.Group("/assets")
	assets.POST("", assetHandler.Mint)
	assets.POST("/:id/fractionalize", fractionHandler.Fractionalize)
	assets.POST("/:id/disable-fractional-sale", fractionHandler.DisableFractionalSale)
	assets.POST("/:id/shares/buy", fractionHandler.BuyShares)

	ledgers := protected.Group("/share-ledgers")
	ledgers.POST("/:address/transfers", ledgerHandler.Transfer)
	ledgers.POST("/:address/mint", ledgerHandler.Mint)

	// Treasury routes, authenticated by API key
	treasury := v1.Group("/treasury")
	treasury.Use(middleware.TreasuryAuthMiddleware(opts.TreasuryAPIKey))
	treasury.POST("/users", authHandler.BindUser)
	treasury.POST("/deposits", walletHandler.Deposit)
	treasury.PUT("/wallets/:address/blocked", walletHandler.SetBlocked)

	return router
}
