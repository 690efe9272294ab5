package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// mintAsset mints an asset at price for the token's user and returns its ID.
func (app *testApp) mintAsset(t *testing.T, token, price string) int {
	t.Helper()
	rec := app.request("POST", "/api/v1/assets", fmt.Sprintf(`{"price":%q}`, price), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("mint failed: %d %s", rec.Code, rec.Body.String())
	}
	return int(parseJSON(t, rec)["asset"].(map[string]interface{})["id"].(float64))
}

// fractionalize splits an asset and returns its share ledger address.
func (app *testApp) fractionalize(t *testing.T, token string, id, units int) string {
	t.Helper()
	rec := app.request("POST", fmt.Sprintf("/api/v1/assets/%d/fractionalize", id), fmt.Sprintf(`{"share_units":%d}`, units), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("fractionalize failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["asset"].(map[string]interface{})["share_ledger"].(string)
}

func (app *testApp) shareUnits(t *testing.T, ledger, holder string) float64 {
	t.Helper()
	rec := app.request("GET", fmt.Sprintf("/api/v1/share-ledgers/%s/balances/%s", ledger, holder), "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("balance failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["units"].(float64)
}

func TestFractionalFlow_MintFractionalizeBuy(t *testing.T) {
	app := setupApp(t)

	seller := app.registerUser(t, "seller@test.com", "password123")
	buyer := app.registerUser(t, "buyer@test.com", "password123")

	// Step 1: Mint
	id := app.mintAsset(t, seller.AccessToken, "1")
	if id != 1 {
		t.Fatalf("expected first asset id 1, got %d", id)
	}
	rec := app.request("GET", "/api/v1/assets/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get asset failed: %d", rec.Code)
	}
	asset := parseJSON(t, rec)["asset"].(map[string]interface{})
	if asset["owner"] != seller.Address || asset["state"] != "whole" {
		t.Fatalf("unexpected asset: %v", asset)
	}
	if asset["token_uri"] != "ipfs://brand/1" {
		t.Errorf("expected token uri ipfs://brand/1, got %v", asset["token_uri"])
	}

	// Step 2: Nothing to buy before fractionalization
	rec = app.request("GET", "/api/v1/assets/1/shares/available", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before fractionalization, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "TOKEN_NOT_FRACTIONALIZED" {
		t.Errorf("expected TOKEN_NOT_FRACTIONALIZED, got %s", code)
	}

	// Step 3: Only the owner may fractionalize
	rec = app.request("POST", "/api/v1/assets/1/fractionalize", `{"share_units":100}`, buyer.AccessToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", rec.Code)
	}

	ledger := app.fractionalize(t, seller.AccessToken, 1, 100)
	if app.shareUnits(t, ledger, app.Collection.Address) != 100 {
		t.Fatal("expected the full supply in custody")
	}

	rec = app.request("POST", "/api/v1/assets/1/fractionalize", `{"share_units":100}`, seller.AccessToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second fractionalize, got %d", rec.Code)
	}

	// Step 4: Buy 10 shares overpaying by 0.05
	app.deposit(t, buyer.Address, "1")
	rec = app.request("POST", "/api/v1/assets/1/shares/buy", `{"units":10,"payment":"0.15"}`, buyer.AccessToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %d %s", rec.Code, rec.Body.String())
	}
	purchase := parseJSON(t, rec)["purchase"].(map[string]interface{})
	if purchase["forwarded"] != "0.1" || purchase["refunded"] != "0.05" {
		t.Errorf("unexpected receipt: %v", purchase)
	}

	if got := app.balance(t, buyer.Address); got != "0.9" {
		t.Errorf("expected buyer balance 0.9, got %s", got)
	}
	if got := app.balance(t, seller.Address); got != "0.1" {
		t.Errorf("expected seller balance 0.1, got %s", got)
	}
	if got := app.balance(t, app.Collection.Address); got != "0" {
		t.Errorf("expected custody to keep no value, got %s", got)
	}
	if app.shareUnits(t, ledger, buyer.Address) != 10 {
		t.Error("expected buyer to hold 10 shares")
	}

	rec = app.request("GET", "/api/v1/assets/1/shares/available", "", "")
	if got := parseJSON(t, rec)["available"]; got != float64(90) {
		t.Errorf("expected 90 available, got %v", got)
	}

	// Step 5: Over-asking and underpaying both fail without side effects
	rec = app.request("POST", "/api/v1/assets/1/shares/buy", `{"units":91,"payment":"0.91"}`, buyer.AccessToken)
	if code := errorCode(t, rec); code != "INSUFFICIENT_SUPPLY" {
		t.Errorf("expected INSUFFICIENT_SUPPLY, got %s", code)
	}
	rec = app.request("POST", "/api/v1/assets/1/shares/buy", `{"units":5,"payment":"0.04"}`, buyer.AccessToken)
	if code := errorCode(t, rec); code != "INSUFFICIENT_FUNDS" {
		t.Errorf("expected INSUFFICIENT_FUNDS, got %s", code)
	}
	if got := app.balance(t, buyer.Address); got != "0.9" {
		t.Errorf("failed purchases changed the buyer balance to %s", got)
	}

	// Step 6: Buy out the rest
	app.deposit(t, buyer.Address, "1")
	rec = app.request("POST", "/api/v1/assets/1/shares/buy", `{"units":90,"payment":"0.9"}`, buyer.AccessToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy out failed: %d %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["purchase"].(map[string]interface{})["sold_out"] != true {
		t.Error("expected the last purchase to sell out the asset")
	}
	rec = app.request("GET", "/api/v1/assets/1", "", "")
	if state := parseJSON(t, rec)["asset"].(map[string]interface{})["state"]; state != "sold_out" {
		t.Errorf("expected sold_out, got %v", state)
	}
	rec = app.request("POST", "/api/v1/assets/1/shares/buy", `{"units":1,"payment":"0.01"}`, buyer.AccessToken)
	if code := errorCode(t, rec); code != "INSUFFICIENT_SUPPLY" {
		t.Errorf("expected INSUFFICIENT_SUPPLY after sell out, got %s", code)
	}

	// Step 7: Purchase history
	rec = app.request("GET", "/api/v1/assets/1/purchases", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("purchases failed: %d", rec.Code)
	}
	if data := parseJSON(t, rec)["data"].([]interface{}); len(data) != 2 {
		t.Errorf("expected 2 purchases, got %d", len(data))
	}
}

func TestFractionalFlow_ShareLedger(t *testing.T) {
	app := setupApp(t)

	seller := app.registerUser(t, "seller@test.com", "password123")
	buyer := app.registerUser(t, "buyer@test.com", "password123")
	friend := app.registerUser(t, "friend@test.com", "password123")

	app.mintAsset(t, seller.AccessToken, "2")
	ledger := app.fractionalize(t, seller.AccessToken, 1, 4)

	rec := app.request("GET", "/api/v1/share-ledgers/"+ledger, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get ledger failed: %d", rec.Code)
	}
	info := parseJSON(t, rec)["share_ledger"].(map[string]interface{})
	if info["name"] != "Brand Fraction #1" || info["symbol"] != "FBRD" {
		t.Errorf("unexpected ledger metadata: %v", info)
	}
	if info["owner"] != app.Collection.Address {
		t.Errorf("expected custody to own the ledger, got %v", info["owner"])
	}

	app.deposit(t, buyer.Address, "5")
	rec = app.request("POST", "/api/v1/assets/1/shares/buy", `{"units":2,"payment":"1"}`, buyer.AccessToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %d %s", rec.Code, rec.Body.String())
	}

	// Transfer one share to a friend
	rec = app.request("POST", "/api/v1/share-ledgers/"+ledger+"/transfers",
		fmt.Sprintf(`{"to":%q,"units":1}`, friend.Address), buyer.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer failed: %d %s", rec.Code, rec.Body.String())
	}
	if app.shareUnits(t, ledger, friend.Address) != 1 || app.shareUnits(t, ledger, buyer.Address) != 1 {
		t.Error("expected one share each after transfer")
	}

	rec = app.request("POST", "/api/v1/share-ledgers/"+ledger+"/transfers",
		fmt.Sprintf(`{"to":%q,"units":5}`, friend.Address), buyer.AccessToken)
	if code := errorCode(t, rec); code != "INSUFFICIENT_SHARES" {
		t.Errorf("expected INSUFFICIENT_SHARES, got %s", code)
	}

	// Supply is fixed
	rec = app.request("POST", "/api/v1/share-ledgers/"+ledger+"/mint",
		fmt.Sprintf(`{"to":%q,"units":1}`, buyer.Address), buyer.AccessToken)
	if code := errorCode(t, rec); code != "NOT_LEDGER_OWNER" {
		t.Errorf("expected NOT_LEDGER_OWNER, got %s", code)
	}

	rec = app.request("GET", "/api/v1/share-ledgers/"+ledger+"/balances", "", "")
	balances := parseJSON(t, rec)["balances"].([]interface{})
	if len(balances) != 3 {
		t.Fatalf("expected custody, buyer and friend balances, got %d", len(balances))
	}
	if first := balances[0].(map[string]interface{}); first["holder"] != app.Collection.Address {
		t.Errorf("expected custody to hold the most shares, got %v", first)
	}
}

func TestFractionalFlow_CustodyCannotBeClaimed(t *testing.T) {
	app := setupApp(t)

	seller := app.registerUser(t, "seller@test.com", "password123")
	buyer := app.registerUser(t, "buyer@test.com", "password123")
	app.mintAsset(t, seller.AccessToken, "1")
	ledger := app.fractionalize(t, seller.AccessToken, 1, 100)

	for i, addr := range []string{app.Collection.Address, ledger} {
		rec := app.treasury("POST", "/api/v1/treasury/users",
			fmt.Sprintf(`{"email":"claim%d@test.com","password":"password123","address":%q}`, i, addr))
		if code := errorCode(t, rec); code != "ADDRESS_RESERVED" {
			t.Errorf("expected ADDRESS_RESERVED for %s, got %s", addr, code)
		}
	}

	// Buyers cannot pull unsold shares out of custody either.
	rec := app.request("POST", "/api/v1/share-ledgers/"+ledger+"/transfers",
		fmt.Sprintf(`{"to":%q,"units":100}`, buyer.Address), buyer.AccessToken)
	if code := errorCode(t, rec); code != "INSUFFICIENT_SHARES" {
		t.Errorf("expected INSUFFICIENT_SHARES, got %s", code)
	}

	rec = app.request("GET", "/api/v1/assets/1/shares/available", "", "")
	if got := parseJSON(t, rec)["available"]; got != float64(100) {
		t.Errorf("expected 100 shares still in custody, got %v", got)
	}
	if got := app.balance(t, seller.Address); got != "0" {
		t.Errorf("expected seller unpaid, got %s", got)
	}
}

func TestFractionalFlow_DisableSaleAndOwnerIndex(t *testing.T) {
	app := setupApp(t)

	seller := app.registerUser(t, "seller@test.com", "password123")
	other := app.registerUser(t, "other@test.com", "password123")

	app.mintAsset(t, seller.AccessToken, "1")
	app.mintAsset(t, other.AccessToken, "3")
	app.mintAsset(t, seller.AccessToken, "2")

	rec := app.request("POST", "/api/v1/assets/3/disable-fractional-sale", "", seller.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("disable failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("POST", "/api/v1/assets/3/fractionalize", `{"share_units":10}`, seller.AccessToken)
	if code := errorCode(t, rec); code != "FRACTIONAL_SALE_DISABLED" {
		t.Errorf("expected FRACTIONAL_SALE_DISABLED, got %s", code)
	}

	app.fractionalize(t, seller.AccessToken, 1, 10)
	rec = app.request("POST", "/api/v1/assets/1/disable-fractional-sale", "", seller.AccessToken)
	if code := errorCode(t, rec); code != "INVALID_ASSET_STATE" {
		t.Errorf("expected INVALID_ASSET_STATE, got %s", code)
	}

	rec = app.request("GET", "/api/v1/fractions", "", seller.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("fractions failed: %d", rec.Code)
	}
	fractions := parseJSON(t, rec)["fractions"].([]interface{})
	if len(fractions) != 2 {
		t.Fatalf("expected 2 fractions, got %d", len(fractions))
	}
	for i, want := range []float64{1, 3} {
		if got := fractions[i].(map[string]interface{})["token_id"]; got != want {
			t.Errorf("fraction %d: expected token %v, got %v", i, want, got)
		}
	}
	first := fractions[0].(map[string]interface{})["asset"].(map[string]interface{})
	if first["state"] != "fractionalized" {
		t.Errorf("expected live snapshot of asset 1, got %v", first["state"])
	}

	rec = app.request("GET", "/api/v1/assets/count", "", "")
	if got := parseJSON(t, rec)["count"]; got != float64(3) {
		t.Errorf("expected count 3, got %v", got)
	}
}

func TestFractionalFlow_CollectionOwner(t *testing.T) {
	app := setupApp(t)

	owner := app.bindUser(t, "owner@test.com", "password123", app.OwnerAddress)
	stranger := app.registerUser(t, "stranger@test.com", "password123")

	rec := app.request("PUT", "/api/v1/collection/base-uri", `{"base_uri":"https://meta.example/"}`, stranger.AccessToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", rec.Code)
	}

	rec = app.request("PUT", "/api/v1/collection/base-uri", `{"base_uri":"https://meta.example/"}`, owner.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("set base uri failed: %d %s", rec.Code, rec.Body.String())
	}

	app.mintAsset(t, stranger.AccessToken, "1")
	rec = app.request("GET", "/api/v1/assets/1", "", "")
	if uri := parseJSON(t, rec)["asset"].(map[string]interface{})["token_uri"]; uri != "https://meta.example/1" {
		t.Errorf("expected new base uri in token uri, got %v", uri)
	}

	rec = app.request("GET", "/api/v1/collection", "", "")
	collection := parseJSON(t, rec)["collection"].(map[string]interface{})
	if collection["symbol"] != "BRD" || collection["count"] != float64(1) {
		t.Errorf("unexpected collection: %v", collection)
	}
}

func TestTreasury_RequiresAPIKey(t *testing.T) {
	app := setupApp(t)
	acct := app.registerUser(t, "t@test.com", "password123")

	rec := app.request("POST", "/api/v1/treasury/deposits", fmt.Sprintf(`{"address":%q,"amount":"1"}`, acct.Address), acct.AccessToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without API key, got %d", rec.Code)
	}

	rec = app.treasury("PUT", "/api/v1/treasury/wallets/"+acct.Address+"/blocked", `{"blocked":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("block failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.treasury("POST", "/api/v1/treasury/deposits", fmt.Sprintf(`{"address":%q,"amount":"1"}`, acct.Address))
	if code := errorCode(t, rec); code != "TRANSFER_FAILED" {
		t.Errorf("expected blocked wallet to refuse deposit, got %s", code)
	}
}
