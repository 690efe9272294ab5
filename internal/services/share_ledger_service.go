package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"brandnft/internal/address"
	apperrors "brandnft/internal/errors"
	"brandnft/internal/logger"
	"brandnft/internal/models"
	"brandnft/internal/serial"
)

// shareLedgerService keeps the fixed-supply share pools of fractionalized assets.
type shareLedgerService struct {
	db   *gorm.DB
	exec *serial.Executor
}

// NewShareLedgerService creates a new ShareLedgerServicer.
func NewShareLedgerService(db *gorm.DB, exec *serial.Executor) ShareLedgerServicer {
	return &shareLedgerService{db: db, exec: exec}
}

// CreateWithDB creates a ledger and credits the entire supply to creator.
// Supply is fixed from here on.
func (s *shareLedgerService) CreateWithDB(tx *gorm.DB, ledgerAddress string, assetID uint64, name, symbol string, supply uint64, creator string) (*models.ShareLedger, error) {
	if supply == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "share supply must be greater than zero")
	}

	var existing int64
	if err := tx.Model(&models.ShareLedger{}).
		Where("address = ? OR asset_id = ?", ledgerAddress, assetID).
		Count(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return nil, apperrors.Wrap(apperrors.ErrInternalConsistency,
			fmt.Errorf("share ledger for asset %d already exists", assetID))
	}

	ledger := &models.ShareLedger{
		Address:      ledgerAddress,
		AssetID:      assetID,
		Name:         name,
		Symbol:       symbol,
		TotalSupply:  supply,
		OwnerAddress: creator,
	}
	if err := tx.Create(ledger).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balance := &models.ShareBalance{LedgerAddress: ledgerAddress, Holder: creator, Units: supply}
	if err := tx.Create(balance).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Named("share-ledger").Infow("share ledger created",
		"ledger", ledgerAddress,
		"asset_id", assetID,
		"supply", supply,
	)
	return ledger, nil
}

// GetLedger returns the ledger metadata.
func (s *shareLedgerService) GetLedger(ledgerAddress string) (*models.ShareLedger, error) {
	canonical, err := address.Parse(ledgerAddress)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	return serial.Query(s.exec, func() (*models.ShareLedger, error) {
		return loadShareLedger(s.db, canonical)
	})
}

// BalanceOf returns holder's units. Unknown holders have zero units.
func (s *shareLedgerService) BalanceOf(ledgerAddress, holder string) (uint64, error) {
	canonicalLedger, err := address.Parse(ledgerAddress)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	canonicalHolder, err := address.Parse(holder)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	return serial.Query(s.exec, func() (uint64, error) {
		if _, err := loadShareLedger(s.db, canonicalLedger); err != nil {
			return 0, err
		}
		return s.BalanceOfWithDB(s.db, canonicalLedger, canonicalHolder)
	})
}

// BalanceOfWithDB reads holder's units within tx.
func (s *shareLedgerService) BalanceOfWithDB(tx *gorm.DB, ledgerAddress, holder string) (uint64, error) {
	var balance models.ShareBalance
	err := tx.Where("ledger_address = ? AND holder = ?", ledgerAddress, holder).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return balance.Units, nil
}

// ListBalances returns every non-empty balance of a ledger, largest first.
func (s *shareLedgerService) ListBalances(ledgerAddress string) ([]models.ShareBalance, error) {
	canonical, err := address.Parse(ledgerAddress)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	return serial.Query(s.exec, func() ([]models.ShareBalance, error) {
		if _, err := loadShareLedger(s.db, canonical); err != nil {
			return nil, err
		}
		var balances []models.ShareBalance
		if err := s.db.Where("ledger_address = ? AND units > 0", canonical).
			Order("units DESC, holder ASC").
			Find(&balances).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return balances, nil
	})
}

// Transfer moves units of caller's shares to another holder. The ledger
// owner holds the unsold pool and cannot transfer out of it here.
func (s *shareLedgerService) Transfer(caller, ledgerAddress, to string, units uint64) error {
	from, err := address.Parse(caller)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	canonicalLedger, err := address.Parse(ledgerAddress)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	canonicalTo, err := address.Parse(to)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	return s.exec.Do(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			ledger, err := loadShareLedger(tx, canonicalLedger)
			if err != nil {
				return err
			}
			if address.Equal(from, ledger.OwnerAddress) {
				return apperrors.ErrCustodyTransfer
			}
			return s.TransferWithDB(tx, canonicalLedger, from, canonicalTo, units)
		})
	})
}

// TransferWithDB moves units between holders of a ledger within tx.
func (s *shareLedgerService) TransferWithDB(tx *gorm.DB, ledgerAddress, from, to string, units uint64) error {
	if units == 0 {
		return nil
	}

	fromUnits, err := s.BalanceOfWithDB(tx, ledgerAddress, from)
	if err != nil {
		return err
	}
	if fromUnits < units {
		return apperrors.ErrInsufficientShares
	}
	if from == to {
		return nil
	}

	if err := setShareBalance(tx, ledgerAddress, from, fromUnits-units); err != nil {
		return err
	}

	toUnits, err := s.BalanceOfWithDB(tx, ledgerAddress, to)
	if err != nil {
		return err
	}
	if toUnits+units < toUnits {
		return apperrors.Wrap(apperrors.ErrInternalConsistency, fmt.Errorf("balance overflow for %s", to))
	}
	return setShareBalance(tx, ledgerAddress, to, toUnits+units)
}

// Mint always fails: supply is fixed once the ledger exists. Non-owners are
// told they lack permission before being told supply is fixed.
func (s *shareLedgerService) Mint(caller, ledgerAddress, _ string, _ uint64) error {
	canonical, err := address.Parse(ledgerAddress)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	return s.exec.Do(func() error {
		ledger, err := loadShareLedger(s.db, canonical)
		if err != nil {
			return err
		}
		if !address.Equal(caller, ledger.OwnerAddress) {
			return apperrors.ErrNotLedgerOwner
		}
		return apperrors.ErrSupplyFixed
	})
}

func loadShareLedger(db *gorm.DB, ledgerAddress string) (*models.ShareLedger, error) {
	var ledger models.ShareLedger
	if err := db.Where("address = ?", ledgerAddress).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShareLedgerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ledger, nil
}

// setShareBalance upserts a holder's balance row.
func setShareBalance(tx *gorm.DB, ledgerAddress, holder string, units uint64) error {
	balance := models.ShareBalance{LedgerAddress: ledgerAddress, Holder: holder, Units: units}
	if err := tx.Save(&balance).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
