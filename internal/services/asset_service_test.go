package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"brandnft/internal/address"
	"brandnft/internal/logger"
	"brandnft/internal/models"
	"brandnft/internal/pagination"
	"brandnft/internal/serial"
	"brandnft/internal/testutil"
)

func init() {
	logger.Init("test")
}

// testLedger wires every ledger service around one database and executor.
type testLedger struct {
	db         *gorm.DB
	assets     AssetServicer
	engine     FractionalizationServicer
	ledgers    ShareLedgerServicer
	wallets    WalletServicer
	collection *models.Collection
	deployer   string
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	exec := serial.NewExecutor()
	wallets := NewWalletService(db, exec)
	ledgers := NewShareLedgerService(db, exec)
	assets := NewAssetService(db, exec)
	engine := NewFractionalizationService(db, exec, ledgers, wallets)

	deployer := address.New()
	collection, err := assets.EnsureCollection("BrandNFT", "BRDF", deployer, "")
	testutil.AssertNoError(t, err)

	return &testLedger{
		db:         db,
		assets:     assets,
		engine:     engine,
		ledgers:    ledgers,
		wallets:    wallets,
		collection: collection,
		deployer:   deployer,
	}
}

func (l *testLedger) mint(t *testing.T, owner, price string) *models.Asset {
	t.Helper()
	asset, err := l.assets.Mint(owner, decimal.RequireFromString(price))
	testutil.AssertNoError(t, err)
	return asset
}

func TestEnsureCollection(t *testing.T) {
	t.Run("creates_once", func(t *testing.T) {
		l := newTestLedger(t)

		again, err := l.assets.EnsureCollection("Other", "OTH", address.New(), "ipfs://x/")
		testutil.AssertNoError(t, err)

		if again.Name != "BrandNFT" || again.Symbol != "BRDF" {
			t.Errorf("expected original name and symbol, got %s/%s", again.Name, again.Symbol)
		}
		if again.Address != l.collection.Address {
			t.Errorf("expected custody address %s, got %s", l.collection.Address, again.Address)
		}

		var count int64
		l.db.Model(&models.Collection{}).Count(&count)
		if count != 1 {
			t.Errorf("expected 1 collection row, got %d", count)
		}
	})

	t.Run("invalid_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAssetService(db, serial.NewExecutor())

		_, err := svc.EnsureCollection("BrandNFT", "BRDF", "not-an-address", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("missing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAssetService(db, serial.NewExecutor())

		_, err := svc.EnsureCollection("", "BRDF", address.New(), "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestMint(t *testing.T) {
	t.Run("sequential_ids", func(t *testing.T) {
		l := newTestLedger(t)
		owner := address.New()

		first := l.mint(t, owner, "1")
		second := l.mint(t, owner, "2.5")

		if first.ID != 1 || second.ID != 2 {
			t.Errorf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
		}
		if first.State != models.AssetStateWhole {
			t.Errorf("expected state whole, got %s", first.State)
		}
		if first.IsFractionalized() {
			t.Error("freshly minted asset should not have a share ledger")
		}
		if first.SharesAmount != 0 || !first.ShareValue.IsZero() {
			t.Error("freshly minted asset should have no shares")
		}

		count, err := l.assets.Count()
		testutil.AssertNoError(t, err)
		if count != 2 {
			t.Errorf("expected count 2, got %d", count)
		}
	})

	t.Run("owner_is_caller", func(t *testing.T) {
		l := newTestLedger(t)
		owner := address.New()

		asset := l.mint(t, address.Normalize(owner), "1")
		if asset.OwnerAddress != owner {
			t.Errorf("expected checksummed owner %s, got %s", owner, asset.OwnerAddress)
		}
	})

	t.Run("rejects_non_positive_price", func(t *testing.T) {
		l := newTestLedger(t)

		_, err := l.assets.Mint(address.New(), decimal.Zero)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = l.assets.Mint(address.New(), decimal.RequireFromString("-1"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		count, _ := l.assets.Count()
		if count != 0 {
			t.Errorf("expected count 0 after rejected mints, got %d", count)
		}
	})

	t.Run("rejects_too_precise_price", func(t *testing.T) {
		l := newTestLedger(t)

		_, err := l.assets.Mint(address.New(), decimal.RequireFromString("0.0000000000000000001"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("price_keeps_full_precision", func(t *testing.T) {
		l := newTestLedger(t)
		minted := l.mint(t, address.New(), "123456789.123456789123456789")

		stored, err := l.assets.GetAsset(minted.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "123456789.123456789123456789", stored.Price)
	})

	t.Run("requires_collection", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAssetService(db, serial.NewExecutor())

		_, err := svc.Mint(address.New(), decimal.NewFromInt(1))
		testutil.AssertAppError(t, err, "COLLECTION_NOT_FOUND")
	})
}

func TestGetAsset(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		l := newTestLedger(t)
		owner := address.New()
		minted := l.mint(t, owner, "3")

		asset, err := l.assets.GetAsset(minted.ID)
		testutil.AssertNoError(t, err)

		if asset.OwnerAddress != owner {
			t.Errorf("expected owner %s, got %s", owner, asset.OwnerAddress)
		}
		testutil.AssertDecimal(t, "3", asset.Price)
	})

	t.Run("not_found", func(t *testing.T) {
		l := newTestLedger(t)

		_, err := l.assets.GetAsset(42)
		testutil.AssertAppError(t, err, "ASSET_NOT_FOUND")
	})
}

func TestSetBaseURI(t *testing.T) {
	t.Run("owner_sets_uri", func(t *testing.T) {
		l := newTestLedger(t)
		asset := l.mint(t, address.New(), "1")
		if asset.TokenURI != "" {
			t.Errorf("expected empty token URI before configuration, got %q", asset.TokenURI)
		}

		_, err := l.assets.SetBaseURI(l.deployer, "ipfs://brand/")
		testutil.AssertNoError(t, err)

		got, err := l.assets.GetAsset(asset.ID)
		testutil.AssertNoError(t, err)
		if got.TokenURI != "ipfs://brand/1" {
			t.Errorf("expected token URI ipfs://brand/1, got %q", got.TokenURI)
		}
	})

	t.Run("non_owner_rejected", func(t *testing.T) {
		l := newTestLedger(t)

		_, err := l.assets.SetBaseURI(address.New(), "ipfs://evil/")
		testutil.AssertAppError(t, err, "NOT_COLLECTION_OWNER")

		collection, err := l.assets.GetCollection()
		testutil.AssertNoError(t, err)
		if collection.BaseURI != "" {
			t.Errorf("expected base URI unchanged, got %q", collection.BaseURI)
		}
	})
}

func TestListAssets(t *testing.T) {
	l := newTestLedger(t)
	owner := address.New()
	for i := 0; i < 5; i++ {
		l.mint(t, owner, "1")
	}

	page, err := l.assets.ListAssets(pagination.PageRequest{Page: 2, PageSize: 2})
	testutil.AssertNoError(t, err)

	if page.TotalItems != 5 {
		t.Errorf("expected 5 total items, got %d", page.TotalItems)
	}
	if page.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", page.TotalPages)
	}
	if len(page.Data) != 2 || page.Data[0].ID != 3 || page.Data[1].ID != 4 {
		t.Errorf("expected assets 3 and 4 on page 2, got %+v", page.Data)
	}
}

func TestFractionsOf(t *testing.T) {
	t.Run("insertion_order_and_snapshots", func(t *testing.T) {
		l := newTestLedger(t)
		alice := address.New()
		bob := address.New()

		l.mint(t, alice, "1")
		l.mint(t, bob, "1")
		l.mint(t, alice, "2")

		_, err := l.engine.Fractionalize(alice, 3, 100)
		testutil.AssertNoError(t, err)

		fractions, err := l.assets.FractionsOf(alice)
		testutil.AssertNoError(t, err)

		if len(fractions) != 2 {
			t.Fatalf("expected 2 fractions, got %d", len(fractions))
		}
		if fractions[0].AssetID != 1 || fractions[1].AssetID != 3 {
			t.Errorf("expected assets 1 then 3, got %d then %d", fractions[0].AssetID, fractions[1].AssetID)
		}
		if fractions[0].Asset.State != models.AssetStateWhole {
			t.Errorf("expected asset 1 whole, got %s", fractions[0].Asset.State)
		}
		if fractions[1].Asset.State != models.AssetStateFractionalized {
			t.Errorf("expected asset 3 fractionalized, got %s", fractions[1].Asset.State)
		}
	})

	t.Run("kept_after_sell_out", func(t *testing.T) {
		l := newTestLedger(t)
		owner := address.New()
		buyer := address.New()
		l.mint(t, owner, "1")
		testutil.FundWallet(t, l.db, buyer, "1")

		_, err := l.engine.Fractionalize(owner, 1, 10)
		testutil.AssertNoError(t, err)
		_, err = l.engine.BuyShares(BuyRequest{Caller: buyer, AssetID: 1, Units: 10, Payment: decimal.NewFromInt(1)})
		testutil.AssertNoError(t, err)

		fractions, err := l.assets.FractionsOf(owner)
		testutil.AssertNoError(t, err)
		if len(fractions) != 1 || fractions[0].Asset.State != models.AssetStateSoldOut {
			t.Errorf("expected the sold-out asset to stay indexed, got %+v", fractions)
		}

		buyerFractions, err := l.assets.FractionsOf(buyer)
		testutil.AssertNoError(t, err)
		if len(buyerFractions) != 0 {
			t.Errorf("share buyers are not asset owners, got %d fractions", len(buyerFractions))
		}
	})

	t.Run("empty_for_unknown_owner", func(t *testing.T) {
		l := newTestLedger(t)

		fractions, err := l.assets.FractionsOf(address.New())
		testutil.AssertNoError(t, err)
		if fractions == nil || len(fractions) != 0 {
			t.Errorf("expected an empty, non-nil list, got %v", fractions)
		}
	})

	t.Run("invalid_owner", func(t *testing.T) {
		l := newTestLedger(t)

		_, err := l.assets.FractionsOf("0x123")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
