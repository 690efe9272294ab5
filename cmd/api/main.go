package main

import (
	"fmt"
	"os"

	"brandnft/internal/address"
	"brandnft/internal/config"
	"brandnft/internal/database"
	"brandnft/internal/logger"
	"brandnft/internal/server"
	"brandnft/internal/validator"

	_ "brandnft/internal/docs" // Import swagger docs
)

// @title           BrandNFT API
// @version         1.0
// @description     BrandNFT mints priced collectibles and sells them in fixed-price fractional shares. Buyers pay in the native currency; the exact price is forwarded to the asset owner and any overpayment is refunded.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Treasury operator key.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	svc := server.NewServices(dbManager.DB())

	owner := appConfig.CollectionOwner
	if owner == "" {
		owner = address.Derive("deployer", appConfig.CollectionName, appConfig.CollectionSymbol)
		log.Warnw("COLLECTION_OWNER not set, using derived deployer address; bind it through POST /treasury/users", "owner", owner)
	}
	collection, err := svc.Assets.EnsureCollection(appConfig.CollectionName, appConfig.CollectionSymbol, owner, appConfig.BaseURI)
	if err != nil {
		return fmt.Errorf("failed to initialize collection: %w", err)
	}
	log.Infow("Collection ready",
		"name", collection.Name,
		"symbol", collection.Symbol,
		"owner", collection.OwnerAddress,
		"custody", collection.Address,
		"minted", collection.MintedCount,
	)

	if appConfig.TreasuryAPIKey == "" {
		log.Warn("TREASURY_API_KEY not set, treasury endpoints are disabled")
	}

	router := server.NewRouter(svc, server.Options{
		TreasuryAPIKey: appConfig.TreasuryAPIKey,
		RequestLogging: true,
		Swagger:        true,
	})

	log.Infof("Starting BrandNFT server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
