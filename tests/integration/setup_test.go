package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"brandnft/internal/address"
	"brandnft/internal/logger"
	"brandnft/internal/middleware"
	"brandnft/internal/models"
	"brandnft/internal/server"
	"brandnft/internal/testutil"
	"brandnft/internal/validator"
)

const treasuryKey = "integration-treasury-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB         *gorm.DB
	Router     *gin.Engine
	Services   *server.Services
	Collection *models.Collection
	// OwnerAddress is the collection owner; bind a user to it to act as owner.
	OwnerAddress string
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	svc := server.NewServices(db)
	owner := address.Derive("deployer", t.Name())
	collection, err := svc.Assets.EnsureCollection("Brand", "BRD", owner, "ipfs://brand/")
	if err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}

	router := server.NewRouter(svc, server.Options{TreasuryAPIKey: treasuryKey})

	return &testApp{
		DB:           db,
		Router:       router,
		Services:     svc,
		Collection:   collection,
		OwnerAddress: owner,
	}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// treasury makes a request authenticated with the treasury API key.
func (app *testApp) treasury(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TreasuryHeader, treasuryKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got: %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// account is a registered user as seen by the client.
type account struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Address      string
}

// registerUser registers a new user through the public endpoint, which
// always generates the address.
func (app *testApp) registerUser(t *testing.T, email, password string) account {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return account{
		AccessToken:  result["access_token"].(string),
		RefreshToken: result["refresh_token"].(string),
		UserID:       user["id"].(string),
		Address:      user["address"].(string),
	}
}

// bindUser registers a user bound to addr through the treasury endpoint and
// signs them in.
func (app *testApp) bindUser(t *testing.T, email, password, addr string) account {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"address":%q}`, email, password, addr)
	rec := app.treasury("POST", "/api/v1/treasury/users", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("bind failed: %d %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	access, refresh := app.loginUser(t, email, password)
	return account{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       user["id"].(string),
		Address:      user["address"].(string),
	}
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// deposit credits amount to addr through the treasury endpoint.
func (app *testApp) deposit(t *testing.T, addr, amount string) {
	t.Helper()
	rec := app.treasury("POST", "/api/v1/treasury/deposits", fmt.Sprintf(`{"address":%q,"amount":%q}`, addr, amount))
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit failed: %d %s", rec.Code, rec.Body.String())
	}
}

// balance returns the wallet balance of addr as a decimal string.
func (app *testApp) balance(t *testing.T, addr string) string {
	t.Helper()
	rec := app.request("GET", "/api/v1/wallets/"+addr, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get wallet failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["wallet"].(map[string]interface{})["balance"].(string)
}
