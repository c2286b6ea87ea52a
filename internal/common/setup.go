package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"coincore-go/internal/catalogue"
	"coincore-go/internal/coincore"
	"coincore-go/internal/database"
	"coincore-go/internal/engine"
	"coincore-go/internal/formance"
	"coincore-go/internal/models"
	"coincore-go/internal/prime"
	"coincore-go/internal/rates"

	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services bundles every wired backend plus the coincore facade built on
// top of them. Close releases the database handle; the HTTP-backed
// services need no teardown.
type Services struct {
	Ledger   *database.Service
	Prime    *prime.Service
	Fiat     *formance.Service
	Rates    *rates.Service
	Core     *coincore.Coincore
	Resolver *engine.Factory
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the full stack: custodial ledger, Prime client,
// Formance fiat rail, Binance rates, asset catalogue, engine factory, and
// finally the coincore facade with its account caches warmed.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := seedInterestConfig(ctx, dbService, cfg.Wallet.InterestAssets); err != nil {
		dbService.Close()
		return nil, err
	}

	zap.L().Info("Loading Prime API credentials")
	creds, err := loadPrimeCredentials()
	if err != nil {
		dbService.Close()
		return nil, err
	}

	primeService, err := prime.NewService(ctx, prime.Params{
		Credentials:       creds,
		Ledger:            dbService,
		PortfolioName:     cfg.Prime.PortfolioName,
		FundingFiats:      cfg.Wallet.FundingFiats,
		ExchangeAddresses: cfg.Wallet.ExchangeAddresses,
	})
	if err != nil {
		dbService.Close()
		return nil, err
	}

	fiatService, err := formance.NewService(ctx, cfg.Formance)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	rateService := rates.NewService(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET"))

	staticAssets, err := catalogue.LoadStaticAssets(cfg.Wallet.AssetsFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}
	cat, err := catalogue.New(ctx, staticAssets, nil)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	resolver := engine.NewFactory(primeService.Wallets(), primeService.Custodial(), fiatService)

	core, err := coincore.New(coincore.Params{
		Catalogue:    cat,
		Chain:        primeService.Wallets(),
		Custodial:    primeService.Custodial(),
		Fiat:         fiatService,
		Rates:        rateService,
		Resolver:     resolver,
		FiatCurrency: cfg.Wallet.FiatCurrency,
	})
	if err != nil {
		dbService.Close()
		return nil, err
	}

	if err := core.Init(ctx); err != nil {
		dbService.Close()
		return nil, err
	}

	return &Services{
		Ledger:   dbService,
		Prime:    primeService,
		Fiat:     fiatService,
		Rates:    rateService,
		Core:     core,
		Resolver: resolver,
	}, nil
}

// InitializeDatabaseOnly initializes just the ledger database without the
// remote backends. Useful for read-only operations like querying balances.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.Ledger != nil {
		cs.Ledger.Close()
	}
}

// seedInterestConfig marks the configured assets as interest-enabled so the
// custodial backend reports them available before the first remote sync.
func seedInterestConfig(ctx context.Context, db *database.Service, assets []string) error {
	for _, asset := range assets {
		if err := db.SetInterestConfig(ctx, asset, true, true, ""); err != nil {
			return fmt.Errorf("failed to seed interest config for %s: %w", asset, err)
		}
	}
	return nil
}

func loadPrimeCredentials() (*credentials.Credentials, error) {
	accessKey := os.Getenv("PRIME_ACCESS_KEY")
	passphrase := os.Getenv("PRIME_PASSPHRASE")
	signingKey := os.Getenv("PRIME_SIGNING_KEY")

	if accessKey == "" || passphrase == "" || signingKey == "" {
		return nil, fmt.Errorf("missing required Prime API credentials: PRIME_ACCESS_KEY, PRIME_PASSPHRASE, PRIME_SIGNING_KEY")
	}

	return &credentials.Credentials{
		AccessKey:  accessKey,
		Passphrase: passphrase,
		SigningKey: signingKey,
	}, nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
