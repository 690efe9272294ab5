package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"brandnft/internal/address"
	"brandnft/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password, unique email and a
// fresh address.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Address:  address.New(),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCollection creates the collection owned by owner with no base URI.
func CreateTestCollection(t *testing.T, db *gorm.DB, owner string) *models.Collection {
	t.Helper()

	collection := &models.Collection{
		Name:         "BrandNFT",
		Symbol:       "BRDF",
		OwnerAddress: owner,
		Address:      address.Derive("collection", "BrandNFT", "BRDF", owner),
	}
	if err := db.Create(collection).Error; err != nil {
		t.Fatalf("failed to create test collection: %v", err)
	}
	return collection
}

// FundWallet sets the native balance of addr.
func FundWallet(t *testing.T, db *gorm.DB, addr string, amount string) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{Address: addr, Balance: decimal.RequireFromString(amount)}
	if err := db.Save(wallet).Error; err != nil {
		t.Fatalf("failed to fund test wallet: %v", err)
	}
	return wallet
}

// WalletBalance returns the stored native balance of addr, zero when the
// address has no wallet row.
func WalletBalance(t *testing.T, db *gorm.DB, addr string) decimal.Decimal {
	t.Helper()

	var wallet models.Wallet
	result := db.Where("address = ?", addr).Limit(1).Find(&wallet)
	if result.Error != nil {
		t.Fatalf("failed to read wallet %s: %v", addr, result.Error)
	}
	if result.RowsAffected == 0 {
		return decimal.Zero
	}
	return wallet.Balance
}

// ShareUnits returns holder's stored balance in a share ledger.
func ShareUnits(t *testing.T, db *gorm.DB, ledgerAddress, holder string) uint64 {
	t.Helper()

	var balance models.ShareBalance
	result := db.Where("ledger_address = ? AND holder = ?", ledgerAddress, holder).Limit(1).Find(&balance)
	if result.Error != nil {
		t.Fatalf("failed to read share balance: %v", result.Error)
	}
	return balance.Units
}
