package services

import (
	"fmt"
	"math"

	"gorm.io/gorm"

	"brandnft/internal/address"
	apperrors "brandnft/internal/errors"
	"brandnft/internal/logger"
	"brandnft/internal/models"
	"brandnft/internal/money"
	"brandnft/internal/pagination"
	"brandnft/internal/serial"
)

// fractionalizationService runs the per-asset share sale: it creates share
// ledgers, sells shares from custody and settles payments.
type fractionalizationService struct {
	db      *gorm.DB
	exec    *serial.Executor
	ledgers ShareLedgerServicer
	wallets WalletServicer
}

// NewFractionalizationService creates a new FractionalizationServicer.
func NewFractionalizationService(db *gorm.DB, exec *serial.Executor, ledgers ShareLedgerServicer, wallets WalletServicer) FractionalizationServicer {
	return &fractionalizationService{db: db, exec: exec, ledgers: ledgers, wallets: wallets}
}

// Fractionalize splits a whole asset into totalShareUnits shares held in the
// collection's custody and fixes the share value.
func (s *fractionalizationService) Fractionalize(caller string, assetID, totalShareUnits uint64) (*models.Asset, error) {
	if totalShareUnits == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "share units must be greater than zero")
	}
	if totalShareUnits > math.MaxInt64 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "share units exceed the storable maximum")
	}

	var asset *models.Asset
	err := s.exec.Do(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			a, err := loadAsset(tx, assetID)
			if err != nil {
				return err
			}
			if !address.Equal(caller, a.OwnerAddress) {
				return apperrors.ErrNotAssetOwner
			}
			if !a.State.CanTransitionTo(models.AssetStateFractionalized) {
				return apperrors.WithMessage(apperrors.ErrInvalidAssetState, "Asset is already fractionalized")
			}
			if a.SaleDisabled {
				return apperrors.ErrFractionalSaleDisabled
			}

			shareValue := money.ShareValue(a.Price, totalShareUnits)
			if !shareValue.IsPositive() {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "share value rounds to zero; use fewer share units")
			}

			collection, err := loadCollection(tx)
			if err != nil {
				return err
			}
			ledgerAddress := address.DeriveChild(collection.Address, a.ID)
			name := fmt.Sprintf("%s Fraction #%d", collection.Name, a.ID)
			if _, err := s.ledgers.CreateWithDB(tx, ledgerAddress, a.ID, name, "F"+collection.Symbol, totalShareUnits, collection.Address); err != nil {
				return err
			}

			if err := tx.Model(a).Updates(map[string]interface{}{
				"state":                models.AssetStateFractionalized,
				"share_ledger_address": ledgerAddress,
				"shares_amount":        totalShareUnits,
				"share_value":          shareValue,
			}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			a.State = models.AssetStateFractionalized
			a.ShareLedgerAddress = &ledgerAddress
			a.SharesAmount = totalShareUnits
			a.ShareValue = shareValue
			a.TokenURI = collection.TokenURI(a.ID)
			asset = a
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Named("fractionalization").Infow("asset fractionalized",
		"asset_id", asset.ID,
		"share_units", asset.SharesAmount,
		"share_value", asset.ShareValue.String(),
		"share_ledger", *asset.ShareLedgerAddress,
	)
	return asset, nil
}

// DisableFractionalSale permanently rules out fractionalizing a whole asset.
// Calling it again is a no-op.
func (s *fractionalizationService) DisableFractionalSale(caller string, assetID uint64) (*models.Asset, error) {
	var asset *models.Asset
	err := s.exec.Do(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			a, err := loadAsset(tx, assetID)
			if err != nil {
				return err
			}
			if !address.Equal(caller, a.OwnerAddress) {
				return apperrors.ErrNotAssetOwner
			}
			if a.State != models.AssetStateWhole {
				return apperrors.WithMessage(apperrors.ErrInvalidAssetState, "Fractional sale can only be disabled on a whole asset")
			}
			if !a.SaleDisabled {
				if err := tx.Model(a).Update("sale_disabled", true).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				a.SaleDisabled = true
			}

			collection, err := loadCollection(tx)
			if err != nil {
				return err
			}
			a.TokenURI = collection.TokenURI(a.ID)
			asset = a
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// SharesAvailable returns the units still held in custody for an asset.
func (s *fractionalizationService) SharesAvailable(assetID uint64) (uint64, error) {
	return serial.Query(s.exec, func() (uint64, error) {
		a, err := loadAsset(s.db, assetID)
		if err != nil {
			return 0, err
		}
		if !a.IsFractionalized() {
			return 0, apperrors.ErrNotFractionalized
		}
		collection, err := loadCollection(s.db)
		if err != nil {
			return 0, err
		}
		return s.ledgers.BalanceOfWithDB(s.db, *a.ShareLedgerAddress, collection.Address)
	})
}

// BuyShares sells req.Units shares from custody to the caller. The payment
// enters custody, the exact price is forwarded to the asset owner and any
// excess is refunded. Every step commits together or not at all.
func (s *fractionalizationService) BuyShares(req BuyRequest) (*models.SharePurchase, error) {
	buyer, err := address.Parse(req.Caller)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	if req.Payment.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, money.ErrNegative.Error())
	}

	var purchase *models.SharePurchase
	err = s.exec.Do(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			a, err := loadAsset(tx, req.AssetID)
			if err != nil {
				return err
			}
			if !a.IsFractionalized() {
				return apperrors.ErrNotFractionalized
			}
			if req.Units == 0 {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "units must be greater than zero")
			}

			collection, err := loadCollection(tx)
			if err != nil {
				return err
			}
			custody := collection.Address
			ledgerAddress := *a.ShareLedgerAddress

			available, err := s.ledgers.BalanceOfWithDB(tx, ledgerAddress, custody)
			if err != nil {
				return err
			}
			if req.Units > available {
				return apperrors.ErrInsufficientSupply
			}

			required := money.Required(a.ShareValue, req.Units)
			if req.Payment.LessThan(required) {
				return apperrors.ErrInsufficientFunds
			}

			if err := s.wallets.TransferWithDB(tx, buyer, custody, req.Payment); err != nil {
				return err
			}
			if err := s.ledgers.TransferWithDB(tx, ledgerAddress, custody, buyer, req.Units); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalConsistency, err)
			}
			if err := s.wallets.TransferWithDB(tx, custody, a.OwnerAddress, required); err != nil {
				return err
			}
			refund := money.Refund(req.Payment, required)
			if err := s.wallets.TransferWithDB(tx, custody, buyer, refund); err != nil {
				return err
			}

			soldOut := available == req.Units
			if soldOut {
				if !a.State.CanTransitionTo(models.AssetStateSoldOut) {
					return apperrors.Wrap(apperrors.ErrInternalConsistency,
						fmt.Errorf("asset %d exhausted shares in state %s", a.ID, a.State))
				}
				if err := tx.Model(a).Update("state", models.AssetStateSoldOut).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}

			p := &models.SharePurchase{
				AssetID:      a.ID,
				BuyerAddress: buyer,
				OwnerAddress: a.OwnerAddress,
				Units:        req.Units,
				ShareValue:   a.ShareValue,
				Payment:      req.Payment,
				Forwarded:    required,
				Refunded:     refund,
				SoldOut:      soldOut,
			}
			if err := tx.Create(p).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			purchase = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Named("fractionalization").Infow("shares purchased",
		"asset_id", purchase.AssetID,
		"buyer", purchase.BuyerAddress,
		"units", purchase.Units,
		"forwarded", purchase.Forwarded.String(),
		"refunded", purchase.Refunded.String(),
		"sold_out", purchase.SoldOut,
	)
	return purchase, nil
}

// ShareLedgerAddressFor returns the share ledger of a fractionalized asset.
func (s *fractionalizationService) ShareLedgerAddressFor(assetID uint64) (string, error) {
	return serial.Query(s.exec, func() (string, error) {
		a, err := loadAsset(s.db, assetID)
		if err != nil {
			return "", err
		}
		if !a.IsFractionalized() {
			return "", apperrors.ErrNotFractionalized
		}
		return *a.ShareLedgerAddress, nil
	})
}

// GetPurchases returns a page of purchase receipts for an asset, oldest first.
func (s *fractionalizationService) GetPurchases(assetID uint64, page pagination.PageRequest) (*pagination.PageResponse[models.SharePurchase], error) {
	page.Defaults()

	return serial.Query(s.exec, func() (*pagination.PageResponse[models.SharePurchase], error) {
		if _, err := loadAsset(s.db, assetID); err != nil {
			return nil, err
		}

		query := s.db.Model(&models.SharePurchase{}).Where("asset_id = ?", assetID)
		var total int64
		if err := query.Count(&total).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var purchases []models.SharePurchase
		if err := s.db.Where("asset_id = ?", assetID).
			Order("created_at ASC, id ASC").
			Scopes(pagination.Paginate(page)).
			Find(&purchases).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		resp := pagination.NewPageResponse(purchases, page.Page, page.PageSize, total)
		return &resp, nil
	})
}
