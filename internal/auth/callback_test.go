package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/keywarden/keywarden/internal/config"
	"github.com/keywarden/keywarden/internal/db/models"
	"github.com/keywarden/keywarden/internal/provider"
	"github.com/keywarden/keywarden/internal/session"
	"gorm.io/gorm"
)

func newAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := database.AutoMigrate(
		&models.User{}, &models.Account{}, &models.Integration{},
		&models.Workflow{}, &models.WorkflowExecution{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

// fakeProviderLogin serves the token and userinfo endpoints the callback needs.
func fakeProviderLogin(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login/oauth/token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "provider-tok", "token_type": "bearer", "refresh_token": "provider-refresh", "expires_in": 3600}`))
		case "/login/oauth/userinfo":
			w.Write([]byte(`{"sub": "sub-1", "email": "u@example.com", "name": "U Ser"}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func newAuthConfig(serverURL string) *config.Config {
	return &config.Config{
		JWTSecret: "test-secret",
		Provider: config.ProviderConfig{
			BaseURL:      serverURL,
			ClientID:     "cid",
			ClientSecret: "csecret",
			RedirectURL:  "http://localhost/auth/callback",
		},
	}
}

func callbackRequest(sessionToken string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=xyz&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "xyz"})
	if sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken)
	}
	return req
}

func TestCallbackCreatesUserAndLinksAccount(t *testing.T) {
	database := newAuthTestDB(t)
	server := fakeProviderLogin(t)
	defer server.Close()
	cfg := newAuthConfig(server.URL)

	rec := httptest.NewRecorder()
	CallbackHandler(database, cfg, provider.NewClient(server.URL)).ServeHTTP(rec, callbackRequest(""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}

	var account models.Account
	if err := database.Where("provider = ? AND subject = ?", provider.Name, "sub-1").First(&account).Error; err != nil {
		t.Fatalf("account row missing: %v", err)
	}
	if account.AccessToken != "provider-tok" || account.UserID != resp.UserID {
		t.Fatalf("unexpected account: %+v", account)
	}

	var user models.User
	if err := database.First(&user, "id = ?", resp.UserID).Error; err != nil {
		t.Fatalf("user row missing: %v", err)
	}
	if user.IsAnonymous || user.Email != "u@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestCallbackMigratesAnonymousData(t *testing.T) {
	database := newAuthTestDB(t)
	server := fakeProviderLogin(t)
	defer server.Close()
	cfg := newAuthConfig(server.URL)

	anonID := uuid.New().String()
	if err := database.Create(&models.User{ID: anonID, IsAnonymous: true}).Error; err != nil {
		t.Fatalf("seed anon user: %v", err)
	}
	if err := database.Create(&models.Workflow{ID: uuid.New().String(), UserID: anonID, Name: "wf"}).Error; err != nil {
		t.Fatalf("seed workflow: %v", err)
	}
	if err := database.Create(models.NewManagedIntegration(anonID, "", "cipher")).Error; err != nil {
		t.Fatalf("seed integration: %v", err)
	}

	anonToken, err := session.Issue(cfg.JWTSecret, anonID)
	if err != nil {
		t.Fatalf("issue anon session: %v", err)
	}

	rec := httptest.NewRecorder()
	CallbackHandler(database, cfg, provider.NewClient(server.URL)).ServeHTTP(rec, callbackRequest(anonToken))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		UserID string `json:"userId"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.UserID == anonID {
		t.Fatal("session must be upgraded to the real user")
	}

	var count int64
	database.Model(&models.Workflow{}).Where("user_id = ?", resp.UserID).Count(&count)
	if count != 1 {
		t.Fatalf("workflow not migrated, %d rows for real user", count)
	}
	database.Model(&models.Integration{}).Where("user_id = ?", anonID).Count(&count)
	if count != 0 {
		t.Fatalf("integration still owned by anonymous user")
	}
}

func TestCallbackReusesExistingUserForKnownSubject(t *testing.T) {
	database := newAuthTestDB(t)
	server := fakeProviderLogin(t)
	defer server.Close()
	cfg := newAuthConfig(server.URL)
	handler := CallbackHandler(database, cfg, provider.NewClient(server.URL))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, callbackRequest(""))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, callbackRequest(""))

	var users int64
	database.Model(&models.User{}).Count(&users)
	if users != 1 {
		t.Fatalf("expected one user after repeated login, got %d", users)
	}
	var accounts int64
	database.Model(&models.Account{}).Count(&accounts)
	if accounts != 1 {
		t.Fatalf("expected one account after repeated login, got %d", accounts)
	}
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	database := newAuthTestDB(t)
	server := fakeProviderLogin(t)
	defer server.Close()
	cfg := newAuthConfig(server.URL)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=evil&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "xyz"})
	rec := httptest.NewRecorder()
	CallbackHandler(database, cfg, provider.NewClient(server.URL)).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnonymousHandlerMintsSession(t *testing.T) {
	database := newAuthTestDB(t)
	cfg := &config.Config{JWTSecret: "test-secret"}

	rec := httptest.NewRecorder()
	AnonymousHandler(database, cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/anonymous", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}

	var user models.User
	if err := database.First(&user, "id = ?", resp.UserID).Error; err != nil {
		t.Fatalf("anonymous user missing: %v", err)
	}
	if !user.IsAnonymous {
		t.Fatal("user must be anonymous")
	}

	r := httptest.NewRequest(http.MethodGet, "/api/consent", nil)
	r.Header.Set("Authorization", "Bearer "+resp.Token)
	if got := session.UserIDFromRequest(r, cfg.JWTSecret); got != resp.UserID {
		t.Fatalf("issued token does not validate, got %q", got)
	}
}
