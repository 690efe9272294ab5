package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"brandnft/internal/models"
	"brandnft/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, address string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// WalletServicer moves native value between addresses. Methods ending in
// WithDB run inside the caller's transaction and assume the caller already
// holds the ledger lock.
type WalletServicer interface {
	GetWallet(address string) (*models.Wallet, error)
	Deposit(address string, amount decimal.Decimal) (*models.Wallet, error)
	SetBlocked(address string, blocked bool) (*models.Wallet, error)
	TransferWithDB(tx *gorm.DB, from, to string, amount decimal.Decimal) error
}

// ShareLedgerServicer manages the fungible share pools. Methods ending in
// WithDB run inside the caller's transaction and assume the caller already
// holds the ledger lock.
type ShareLedgerServicer interface {
	CreateWithDB(tx *gorm.DB, ledgerAddress string, assetID uint64, name, symbol string, supply uint64, creator string) (*models.ShareLedger, error)
	GetLedger(ledgerAddress string) (*models.ShareLedger, error)
	BalanceOf(ledgerAddress, holder string) (uint64, error)
	BalanceOfWithDB(tx *gorm.DB, ledgerAddress, holder string) (uint64, error)
	ListBalances(ledgerAddress string) ([]models.ShareBalance, error)
	Transfer(caller, ledgerAddress, to string, units uint64) error
	TransferWithDB(tx *gorm.DB, ledgerAddress, from, to string, units uint64) error
	Mint(caller, ledgerAddress, to string, units uint64) error
}

// Fraction pairs an asset identifier with a snapshot of the asset.
type Fraction struct {
	AssetID uint64       `json:"token_id"`
	Asset   models.Asset `json:"asset"`
}

// AssetServicer is the asset registry together with the owner index.
type AssetServicer interface {
	EnsureCollection(name, symbol, owner, baseURI string) (*models.Collection, error)
	GetCollection() (*models.Collection, error)
	SetBaseURI(caller, uri string) (*models.Collection, error)
	Mint(caller string, price decimal.Decimal) (*models.Asset, error)
	GetAsset(assetID uint64) (*models.Asset, error)
	ListAssets(page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error)
	Count() (uint64, error)
	FractionsOf(owner string) ([]Fraction, error)
}

// BuyRequest is a share purchase with its attached payment.
type BuyRequest struct {
	Caller  string
	AssetID uint64
	Units   uint64
	Payment decimal.Decimal
}

// FractionalizationServicer is the per-asset share sale state machine.
type FractionalizationServicer interface {
	Fractionalize(caller string, assetID, totalShareUnits uint64) (*models.Asset, error)
	DisableFractionalSale(caller string, assetID uint64) (*models.Asset, error)
	SharesAvailable(assetID uint64) (uint64, error)
	BuyShares(req BuyRequest) (*models.SharePurchase, error)
	ShareLedgerAddressFor(assetID uint64) (string, error)
	GetPurchases(assetID uint64, page pagination.PageRequest) (*pagination.PageResponse[models.SharePurchase], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
