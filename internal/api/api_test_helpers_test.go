package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecast/internal/db"
	"gorm.io/gorm"
)

const (
	testSecretKey = "0123456789abcdef0123456789abcdef"
	testPassword  = "StrongPass1"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type testApp struct {
	app      *fiber.App
	database *gorm.DB
	handler  *Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "cyclecast-api-test.db")
	database, err := db.OpenSQLite(databasePath, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	handler, err := NewHandlerWithDatabase(database, nil, Options{
		SecretKey: testSecretKey,
		Location:  time.UTC,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}
	handler.now = func() time.Time { return testNow }

	app := fiber.New()
	RegisterRoutes(app, handler)
	return &testApp{app: app, database: database, handler: handler}
}

type testResponse struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

func (app *testApp) do(t *testing.T, method string, path string, authCookie string, payload any) testResponse {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = strings.NewReader(string(encoded))
	}

	request := httptest.NewRequest(method, path, body)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if authCookie != "" {
		request.Header.Set("Cookie", authCookie)
	}
	return app.send(t, request)
}

func (app *testApp) send(t *testing.T, request *http.Request) testResponse {
	t.Helper()

	response, err := app.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", request.Method, request.URL.Path, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return testResponse{status: response.StatusCode, body: raw, cookies: response.Cookies()}
}

func (response testResponse) expectStatus(t *testing.T, status int) testResponse {
	t.Helper()
	if response.status != status {
		t.Fatalf("expected status %d, got %d: %s", status, response.status, string(response.body))
	}
	return response
}

func (response testResponse) decode(t *testing.T, target any) {
	t.Helper()
	if err := json.Unmarshal(response.body, target); err != nil {
		t.Fatalf("decode response %s: %v", string(response.body), err)
	}
}

func (response testResponse) authCookie(t *testing.T) string {
	t.Helper()
	for _, cookie := range response.cookies {
		if cookie.Name == authCookieName && cookie.Value != "" {
			return cookie.Name + "=" + cookie.Value
		}
	}
	t.Fatal("auth cookie is missing in response")
	return ""
}

func registerTestUser(t *testing.T, app *testApp, email string) string {
	t.Helper()

	response := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":            email,
		"password":         testPassword,
		"confirm_password": testPassword,
	}).expectStatus(t, http.StatusCreated)
	return response.authCookie(t)
}

func putDay(t *testing.T, app *testApp, authCookie string, day string, payload map[string]any) {
	t.Helper()
	app.do(t, http.MethodPut, "/api/days/"+day, authCookie, payload).expectStatus(t, http.StatusOK)
}
