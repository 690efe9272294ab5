package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"brandnft/internal/address"
	apperrors "brandnft/internal/errors"
	"brandnft/internal/logger"
	"brandnft/internal/models"
	"brandnft/internal/money"
	"brandnft/internal/pagination"
	"brandnft/internal/serial"
)

// assetService is the asset registry. It also maintains the owner index.
type assetService struct {
	db   *gorm.DB
	exec *serial.Executor
}

// NewAssetService creates a new AssetServicer.
func NewAssetService(db *gorm.DB, exec *serial.Executor) AssetServicer {
	return &assetService{db: db, exec: exec}
}

// EnsureCollection creates the collection on first start. Later calls return
// the stored collection unchanged; name and symbol are immutable.
func (s *assetService) EnsureCollection(name, symbol, owner, baseURI string) (*models.Collection, error) {
	if name == "" || symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "collection name and symbol are required")
	}
	canonicalOwner, err := address.Parse(owner)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "collection owner: "+err.Error())
	}

	var collection *models.Collection
	err = s.exec.Do(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			existing, err := loadCollection(tx)
			if err == nil {
				collection = existing
				return nil
			}
			if !errors.Is(err, apperrors.ErrCollectionNotFound) {
				return err
			}

			created := &models.Collection{
				Name:         name,
				Symbol:       symbol,
				BaseURI:      baseURI,
				OwnerAddress: canonicalOwner,
				Address:      address.Derive("collection", name, symbol, canonicalOwner),
			}
			if err := tx.Create(created).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			logger.Named("registry").Infow("collection created",
				"name", name,
				"symbol", symbol,
				"address", created.Address,
			)
			collection = created
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// GetCollection returns the collection metadata.
func (s *assetService) GetCollection() (*models.Collection, error) {
	return serial.Query(s.exec, func() (*models.Collection, error) {
		return loadCollection(s.db)
	})
}

// SetBaseURI replaces the metadata prefix. Only the collection owner may call it.
func (s *assetService) SetBaseURI(caller, uri string) (*models.Collection, error) {
	var collection *models.Collection
	err := s.exec.Do(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			c, err := loadCollection(tx)
			if err != nil {
				return err
			}
			if !address.Equal(caller, c.OwnerAddress) {
				return apperrors.ErrNotCollectionOwner
			}
			if err := tx.Model(c).Update("base_uri", uri).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			c.BaseURI = uri
			collection = c
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// Mint creates the next asset for caller at the given price and appends it
// to the caller's owner index.
func (s *assetService) Mint(caller string, price decimal.Decimal) (*models.Asset, error) {
	owner, err := address.Parse(caller)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	if !price.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price must be greater than zero")
	}
	if !price.Equal(price.Truncate(money.Decimals)) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, money.ErrTooPrecise.Error())
	}

	var asset *models.Asset
	err = s.exec.Do(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			collection, err := loadCollection(tx)
			if err != nil {
				return err
			}

			id := collection.MintedCount + 1
			a := &models.Asset{
				ID:           id,
				OwnerAddress: owner,
				Price:        price,
				State:        models.AssetStateWhole,
				ShareValue:   decimal.Zero,
			}
			if err := tx.Create(a).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			var held int64
			if err := tx.Model(&models.OwnerIndexEntry{}).Where("owner_address = ?", owner).Count(&held).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			entry := &models.OwnerIndexEntry{OwnerAddress: owner, Position: uint64(held) + 1, AssetID: id}
			if err := tx.Create(entry).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			if err := tx.Model(collection).Update("minted_count", id).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			a.TokenURI = collection.TokenURI(id)
			asset = a
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// GetAsset returns a snapshot of one asset.
func (s *assetService) GetAsset(assetID uint64) (*models.Asset, error) {
	return serial.Query(s.exec, func() (*models.Asset, error) {
		collection, err := loadCollection(s.db)
		if err != nil {
			return nil, err
		}
		asset, err := loadAsset(s.db, assetID)
		if err != nil {
			return nil, err
		}
		asset.TokenURI = collection.TokenURI(asset.ID)
		return asset, nil
	})
}

// ListAssets returns a page of assets in minting order.
func (s *assetService) ListAssets(page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error) {
	page.Defaults()

	return serial.Query(s.exec, func() (*pagination.PageResponse[models.Asset], error) {
		collection, err := loadCollection(s.db)
		if err != nil {
			return nil, err
		}

		var total int64
		if err := s.db.Model(&models.Asset{}).Count(&total).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var assets []models.Asset
		if err := s.db.Order("id ASC").Scopes(pagination.Paginate(page)).Find(&assets).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range assets {
			assets[i].TokenURI = collection.TokenURI(assets[i].ID)
		}

		resp := pagination.NewPageResponse(assets, page.Page, page.PageSize, total)
		return &resp, nil
	})
}

// Count returns the number of minted assets.
func (s *assetService) Count() (uint64, error) {
	return serial.Query(s.exec, func() (uint64, error) {
		collection, err := loadCollection(s.db)
		if err != nil {
			return 0, err
		}
		return collection.MintedCount, nil
	})
}

// FractionsOf lists every asset owner has minted, in minting order, with a
// snapshot of each asset's current state.
func (s *assetService) FractionsOf(owner string) ([]Fraction, error) {
	canonical, err := address.Parse(owner)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	return serial.Query(s.exec, func() ([]Fraction, error) {
		collection, err := loadCollection(s.db)
		if err != nil {
			return nil, err
		}

		var entries []models.OwnerIndexEntry
		if err := s.db.Where("owner_address = ?", canonical).Order("position ASC").Find(&entries).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(entries) == 0 {
			return []Fraction{}, nil
		}

		ids := make([]uint64, len(entries))
		for i, e := range entries {
			ids[i] = e.AssetID
		}
		var assets []models.Asset
		if err := s.db.Where("id IN ?", ids).Find(&assets).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		byID := make(map[uint64]models.Asset, len(assets))
		for _, a := range assets {
			byID[a.ID] = a
		}

		fractions := make([]Fraction, 0, len(entries))
		for _, e := range entries {
			a, ok := byID[e.AssetID]
			if !ok {
				return nil, apperrors.Wrap(apperrors.ErrInternalConsistency,
					errors.New("owner index references a missing asset"))
			}
			a.TokenURI = collection.TokenURI(a.ID)
			fractions = append(fractions, Fraction{AssetID: a.ID, Asset: a})
		}
		return fractions, nil
	})
}

func loadCollection(db *gorm.DB) (*models.Collection, error) {
	var collection models.Collection
	if err := db.Order("id ASC").First(&collection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCollectionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &collection, nil
}

func loadAsset(db *gorm.DB, assetID uint64) (*models.Asset, error) {
	var asset models.Asset
	if err := db.Where("id = ?", assetID).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &asset, nil
}
