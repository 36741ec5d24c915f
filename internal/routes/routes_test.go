package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"biometric-device-console/internal/config"
	"biometric-device-console/internal/directory"
	"biometric-device-console/internal/registry"
	"biometric-device-console/internal/session"
	"biometric-device-console/internal/storage"
)

type testApp struct {
	router   *gin.Engine
	provider storage.Provider
	registry *registry.Registry
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Storage{
		SQLite: &config.SQLiteStorage{
			Path: filepath.Join(t.TempDir(), "test.db"),
		},
	}
	provider := storage.NewProvider(cfg)
	if provider == nil {
		t.Fatal("NewProvider returned nil")
	}
	t.Cleanup(func() { provider.Close() })

	reg := registry.New(provider)
	dir := directory.New(provider)
	if err := dir.Seed(context.Background(), "bootstrap-secret"); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	sessions := session.NewManager("test-secret", time.Hour)
	t.Cleanup(sessions.Close)

	r := gin.New()
	r.Use(Inject(reg, dir, sessions, provider))
	RegisterRoutes(r)

	return &testApp{router: r, provider: provider, registry: reg}
}

func (app *testApp) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

// login authenticates as the bootstrap account and returns the session cookie.
func (app *testApp) login(t *testing.T) *http.Cookie {
	t.Helper()

	w := app.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "admin",
		"password": "bootstrap-secret",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", w.Code, w.Body.String())
	}

	for _, c := range w.Result().Cookies() {
		if c.Name == AUTH_COOKIE_NAME {
			return c
		}
	}
	t.Fatal("login response did not set the session cookie")
	return nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorStruct {
	t.Helper()
	var resp errorStruct
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not an error envelope: %v\nbody: %s", err, w.Body.String())
	}
	return resp
}

func hasCode(resp errorStruct, code string) bool {
	for _, c := range resp.Code {
		if c == code {
			return true
		}
	}
	return false
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetAuthMode_NoSessionRequired(t *testing.T) {
	app := newTestApp(t)

	device := storage.Device{
		SerialNo:   "BC9001",
		DeviceName: "Main Entrance",
		AuthMode:   storage.AuthModeFaceAndVein,
		IsActive:   true,
	}
	if _, err := app.registry.Create(context.Background(), device, "tester"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	w := app.do(t, http.MethodPost, "/api/device/getAuthMode", gin.H{"serialNo": "BC9001"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		AuthMode   int    `json:"authMode"`
		DeviceName string `json:"deviceName"`
		IsActive   bool   `json:"isActive"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.AuthMode != 2 || resp.DeviceName != "Main Entrance" || !resp.IsActive {
		t.Errorf("unexpected payload: %+v", resp)
	}
}

func TestGetAuthMode_UnknownSerial_ErrorEnvelope(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/device/getAuthMode", gin.H{"serialNo": "GHOST"}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	resp := decodeError(t, w)
	if resp.Succeed {
		t.Error("error envelope claims success")
	}
	if resp.Status != "error" {
		t.Errorf("expected status error, got %s", resp.Status)
	}
	if !hasCode(resp, "NOT_FOUND") {
		t.Errorf("expected NOT_FOUND stop code, got %v", resp.Code)
	}
}

func TestDeviceRoutes_RequireSession(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/device", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", w.Code)
	}
	if !hasCode(decodeError(t, w), "AUTH_REQUIRED") {
		t.Error("expected AUTH_REQUIRED stop code")
	}
}

func TestLoginLogout_Flow(t *testing.T) {
	app := newTestApp(t)

	// Wrong password fails with 401
	w := app.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "admin",
		"password": "wrong",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", w.Code)
	}

	cookie := app.login(t)

	w = app.do(t, http.MethodGet, "/api/auth/status", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status with session: expected 200, got %d", w.Code)
	}

	w = app.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", w.Code)
	}

	// Session is revoked, not just the cookie cleared
	w = app.do(t, http.MethodGet, "/api/auth/status", nil, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status after logout: expected 401, got %d", w.Code)
	}
}

func TestCreateDevice_Conflict(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)

	body := gin.H{"serialNo": "BC9001", "deviceName": "Gate", "authMode": 0, "isActive": true}

	w := app.do(t, http.MethodPost, "/api/device", body, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodPost, "/api/device", body, cookie)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate serial, got %d", w.Code)
	}
	if !hasCode(decodeError(t, w), "CONFLICT") {
		t.Error("expected CONFLICT stop code")
	}
}

func TestDeviceLogs_SurviveDeletion(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)

	body := gin.H{"serialNo": "BC9001", "deviceName": "Gate", "authMode": 1, "isActive": true}
	if w := app.do(t, http.MethodPost, "/api/device", body, cookie); w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", w.Code)
	}
	if w := app.do(t, http.MethodDelete, "/api/device/BC9001", nil, cookie); w.Code != http.StatusNoContent {
		t.Fatalf("delete failed: %d", w.Code)
	}

	w := app.do(t, http.MethodGet, "/api/device/logs/BC9001", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for logs of deleted device, got %d", w.Code)
	}

	var logs []storage.DeviceLog
	if err := json.Unmarshal(w.Body.Bytes(), &logs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(logs))
	}
}

func TestReportAuthLog_AndExportCSV(t *testing.T) {
	app := newTestApp(t)

	report := gin.H{
		"timestamp": "2026-03-01T09:00:00Z",
		"userId":    "EMP-1001",
		"userName":  "Tanaka",
		"serialNo":  "BC9001",
		"authMode":  0,
		"isSuccess": true,
	}
	// Terminal reporting needs no session
	if w := app.do(t, http.MethodPost, "/api/authlogs", report, nil); w.Code != http.StatusCreated {
		t.Fatalf("report failed: %d", w.Code)
	}

	cookie := app.login(t)

	w := app.do(t, http.MethodGet, "/api/authlogs/export.csv?date=2026-03-01", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("export failed: %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "auth_logs_2026-03-01.csv") {
		t.Errorf("unexpected disposition: %s", w.Header().Get("Content-Disposition"))
	}

	body := w.Body.Bytes()
	if !bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("export is missing the UTF-8 BOM")
	}
	if !strings.Contains(string(body), `"EMP-1001"`) {
		t.Errorf("exported row missing: %s", body)
	}
}

func TestReportAuthLog_RejectsInvalidMode(t *testing.T) {
	app := newTestApp(t)

	report := gin.H{
		"userId":   "EMP-1001",
		"serialNo": "BC9001",
		"authMode": 9,
	}
	w := app.do(t, http.MethodPost, "/api/authlogs", report, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid mode, got %d", w.Code)
	}
}

func TestUserRoutes_AdminCannotMutate(t *testing.T) {
	app := newTestApp(t)
	cookie := app.login(t)

	// Create a plain admin and log in as them
	w := app.do(t, http.MethodPost, "/api/users", gin.H{
		"username": "ops1",
		"role":     "admin",
		"password": "ops1-pw",
	}, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("create user failed: %d: %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "ops1",
		"password": "ops1-pw",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ops1 login failed: %d", w.Code)
	}
	var opsCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == AUTH_COOKIE_NAME {
			opsCookie = c
		}
	}
	if opsCookie == nil {
		t.Fatal("ops1 login did not set the session cookie")
	}

	// ops1 is authenticated but lacks super_admin
	w = app.do(t, http.MethodPost, "/api/users", gin.H{
		"username": "sneaky",
		"role":     "super_admin",
		"password": "pw",
	}, opsCookie)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin-role mutation, got %d", w.Code)
	}
	if !hasCode(decodeError(t, w), "FORBIDDEN") {
		t.Error("expected FORBIDDEN stop code")
	}
}
