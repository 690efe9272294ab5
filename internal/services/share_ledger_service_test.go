package services

import (
	"testing"

	"gorm.io/gorm"

	"brandnft/internal/address"
	"brandnft/internal/serial"
	"brandnft/internal/testutil"
)

func newTestShareLedger(t *testing.T, supply uint64) (*gorm.DB, ShareLedgerServicer, string, string) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	svc := NewShareLedgerService(db, serial.NewExecutor())

	creator := address.New()
	ledgerAddress := address.DeriveChild(creator, 1)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.CreateWithDB(tx, ledgerAddress, 1, "BrandNFT Fraction #1", "FBRDF", supply, creator)
		return err
	})
	testutil.AssertNoError(t, err)
	return db, svc, ledgerAddress, creator
}

func TestShareLedgerCreate(t *testing.T) {
	t.Run("credits_creator", func(t *testing.T) {
		_, svc, ledgerAddress, creator := newTestShareLedger(t, 1000)

		units, err := svc.BalanceOf(ledgerAddress, creator)
		testutil.AssertNoError(t, err)
		if units != 1000 {
			t.Errorf("expected creator to hold 1000 units, got %d", units)
		}

		ledger, err := svc.GetLedger(ledgerAddress)
		testutil.AssertNoError(t, err)
		if ledger.OwnerAddress != creator {
			t.Errorf("expected owner %s, got %s", creator, ledger.OwnerAddress)
		}
	})

	t.Run("duplicate_asset_rejected", func(t *testing.T) {
		db, svc, _, creator := newTestShareLedger(t, 10)

		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.CreateWithDB(tx, address.New(), 1, "again", "AGN", 10, creator)
			return err
		})
		testutil.AssertAppError(t, err, "INTERNAL_CONSISTENCY")
	})

	t.Run("zero_supply_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewShareLedgerService(db, serial.NewExecutor())

		_, err := svc.CreateWithDB(db, address.New(), 1, "x", "X", 0, address.New())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestShareLedgerBalanceOf(t *testing.T) {
	t.Run("unknown_holder_is_zero", func(t *testing.T) {
		_, svc, ledgerAddress, _ := newTestShareLedger(t, 10)

		units, err := svc.BalanceOf(ledgerAddress, address.New())
		testutil.AssertNoError(t, err)
		if units != 0 {
			t.Errorf("expected 0 units, got %d", units)
		}
	})

	t.Run("unknown_ledger", func(t *testing.T) {
		_, svc, _, _ := newTestShareLedger(t, 10)

		_, err := svc.BalanceOf(address.New(), address.New())
		testutil.AssertAppError(t, err, "SHARE_LEDGER_NOT_FOUND")
	})

	t.Run("invalid_holder", func(t *testing.T) {
		_, svc, ledgerAddress, _ := newTestShareLedger(t, 10)

		_, err := svc.BalanceOf(ledgerAddress, "alice")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

// seedHolder moves units out of the ledger owner's pool the way a share
// purchase does.
func seedHolder(t *testing.T, db *gorm.DB, svc ShareLedgerServicer, ledgerAddress, owner, holder string, units uint64) {
	t.Helper()
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.TransferWithDB(tx, ledgerAddress, owner, holder, units)
	})
	testutil.AssertNoError(t, err)
}

func TestShareLedgerTransfer(t *testing.T) {
	t.Run("moves_units", func(t *testing.T) {
		db, svc, ledgerAddress, creator := newTestShareLedger(t, 100)
		bob, carol := address.New(), address.New()
		seedHolder(t, db, svc, ledgerAddress, creator, bob, 50)

		testutil.AssertNoError(t, svc.Transfer(bob, ledgerAddress, carol, 30))

		if got := testutil.ShareUnits(t, db, ledgerAddress, bob); got != 20 {
			t.Errorf("expected bob to hold 20, got %d", got)
		}
		if got := testutil.ShareUnits(t, db, ledgerAddress, carol); got != 30 {
			t.Errorf("expected carol to hold 30, got %d", got)
		}

		balances, err := svc.ListBalances(ledgerAddress)
		testutil.AssertNoError(t, err)
		if len(balances) != 3 || balances[0].Holder != creator || balances[1].Holder != carol {
			t.Errorf("expected creator then carol first of 3 balances, got %+v", balances)
		}
	})

	t.Run("owner_pool_is_locked", func(t *testing.T) {
		db, svc, ledgerAddress, creator := newTestShareLedger(t, 100)
		bob := address.New()

		err := svc.Transfer(creator, ledgerAddress, bob, 100)
		testutil.AssertAppError(t, err, "CUSTODY_TRANSFER_FORBIDDEN")

		err = svc.Transfer(address.Normalize(creator), ledgerAddress, bob, 1)
		testutil.AssertAppError(t, err, "CUSTODY_TRANSFER_FORBIDDEN")

		if got := testutil.ShareUnits(t, db, ledgerAddress, creator); got != 100 {
			t.Errorf("expected creator to keep 100, got %d", got)
		}
		if got := testutil.ShareUnits(t, db, ledgerAddress, bob); got != 0 {
			t.Errorf("expected bob to hold nothing, got %d", got)
		}
	})

	t.Run("insufficient_shares", func(t *testing.T) {
		db, svc, ledgerAddress, creator := newTestShareLedger(t, 100)
		bob := address.New()

		err := svc.Transfer(bob, ledgerAddress, creator, 1)
		testutil.AssertAppError(t, err, "INSUFFICIENT_SHARES")

		if got := testutil.ShareUnits(t, db, ledgerAddress, creator); got != 100 {
			t.Errorf("expected creator to keep 100, got %d", got)
		}
	})

	t.Run("to_self", func(t *testing.T) {
		db, svc, ledgerAddress, creator := newTestShareLedger(t, 100)
		bob := address.New()
		seedHolder(t, db, svc, ledgerAddress, creator, bob, 40)

		testutil.AssertNoError(t, svc.Transfer(bob, ledgerAddress, bob, 40))
		if got := testutil.ShareUnits(t, db, ledgerAddress, bob); got != 40 {
			t.Errorf("expected bob to keep 40, got %d", got)
		}
	})

	t.Run("unknown_ledger", func(t *testing.T) {
		_, svc, _, creator := newTestShareLedger(t, 100)

		err := svc.Transfer(creator, address.New(), address.New(), 1)
		testutil.AssertAppError(t, err, "SHARE_LEDGER_NOT_FOUND")
	})
}

func TestShareLedgerMint(t *testing.T) {
	t.Run("non_owner", func(t *testing.T) {
		_, svc, ledgerAddress, _ := newTestShareLedger(t, 100)

		err := svc.Mint(address.New(), ledgerAddress, address.New(), 5)
		testutil.AssertAppError(t, err, "NOT_LEDGER_OWNER")
	})

	t.Run("owner_supply_fixed", func(t *testing.T) {
		db, svc, ledgerAddress, creator := newTestShareLedger(t, 100)

		err := svc.Mint(creator, ledgerAddress, creator, 5)
		testutil.AssertAppError(t, err, "SUPPLY_FIXED")

		if got := testutil.ShareUnits(t, db, ledgerAddress, creator); got != 100 {
			t.Errorf("expected supply to stay 100, got %d", got)
		}
	})
}
