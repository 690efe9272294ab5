package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"brandnft/internal/address"
	apperrors "brandnft/internal/errors"
	"brandnft/internal/models"
	"brandnft/internal/serial"
)

// walletService keeps native-value balances per address.
type walletService struct {
	db   *gorm.DB
	exec *serial.Executor
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(db *gorm.DB, exec *serial.Executor) WalletServicer {
	return &walletService{db: db, exec: exec}
}

// GetWallet returns the wallet of addr. Addresses that never held value get
// an empty, unblocked wallet.
func (s *walletService) GetWallet(addr string) (*models.Wallet, error) {
	canonical, err := address.Parse(addr)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	return serial.Query(s.exec, func() (*models.Wallet, error) {
		return findWallet(s.db, canonical)
	})
}

// Deposit credits amount to addr. It is the treasury's only source of value.
func (s *walletService) Deposit(addr string, amount decimal.Decimal) (*models.Wallet, error) {
	canonical, err := address.Parse(addr)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "deposit amount must be greater than zero")
	}

	var wallet *models.Wallet
	err = s.exec.Do(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			w, err := getOrCreateWallet(tx, canonical)
			if err != nil {
				return err
			}
			if w.Blocked {
				return apperrors.WithMessage(apperrors.ErrTransferFailed, "recipient refuses incoming value")
			}
			w.Balance = w.Balance.Add(amount)
			if err := tx.Model(w).Update("balance", w.Balance).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			wallet = w
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// SetBlocked marks addr as refusing (or accepting again) incoming value.
func (s *walletService) SetBlocked(addr string, blocked bool) (*models.Wallet, error) {
	canonical, err := address.Parse(addr)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	var wallet *models.Wallet
	err = s.exec.Do(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			w, err := getOrCreateWallet(tx, canonical)
			if err != nil {
				return err
			}
			if err := tx.Model(w).Update("blocked", blocked).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			w.Blocked = blocked
			wallet = w
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// TransferWithDB moves amount from one address to another within tx.
// A zero amount is a no-op.
func (s *walletService) TransferWithDB(tx *gorm.DB, from, to string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "transfer amount must not be negative")
	}
	if amount.IsZero() {
		return nil
	}

	source, err := getOrCreateWallet(tx, from)
	if err != nil {
		return err
	}
	if source.Balance.LessThan(amount) {
		return apperrors.ErrInsufficientBalance
	}

	if source.Address == to {
		return nil
	}

	target, err := getOrCreateWallet(tx, to)
	if err != nil {
		return err
	}
	if target.Blocked {
		return apperrors.Wrap(apperrors.ErrTransferFailed, fmt.Errorf("recipient %s refuses incoming value", to))
	}

	if err := tx.Model(source).Update("balance", source.Balance.Sub(amount)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(target).Update("balance", target.Balance.Add(amount)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// findWallet loads a wallet without creating it.
func findWallet(db *gorm.DB, addr string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.Where("address = ?", addr).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Wallet{Address: addr, Balance: decimal.Zero}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}

// getOrCreateWallet loads the wallet of addr, inserting an empty one first
// if the address never held value.
func getOrCreateWallet(tx *gorm.DB, addr string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Where("address = ?", addr).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	wallet = models.Wallet{Address: addr, Balance: decimal.Zero}
	if err := tx.Create(&wallet).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}
