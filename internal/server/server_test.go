package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/terriblecrypt/terrible/internal/config"
	"github.com/terriblecrypt/terrible/internal/keyring"
	"github.com/terriblecrypt/terrible/internal/keystream"
)

func testConfig() *config.Config {
	return &config.Config{
		Serve: config.ServeConfig{
			Address:  "127.0.0.1",
			Port:     0,
			Username: "admin",
			Password: "hunter2",
		},
		Log:       config.LogConfig{Level: "error", Format: "console"},
		JWTSecret: "test-secret",
		JWTExpire: 1,
	}
}

func testKey() []byte {
	key := make([]byte, keystream.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ring, err := keyring.Open(t.TempDir(), "test-passphrase")
	if err != nil {
		t.Fatalf("opening keyring: %v", err)
	}
	t.Cleanup(func() { ring.Close() })

	if err := ring.Put("main", testKey()); err != nil {
		t.Fatalf("seeding keyring: %v", err)
	}
	return New(testConfig(), ring)
}

func login(t *testing.T, s *Server) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "hunter2"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing login response: %v", err)
	}
	return resp.Data.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body)))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/keystream?key=main&length=16", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestKeystreamEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/keystream?key=main&length=16", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	g, _ := keystream.New(testKey())
	want := make([]byte, 16)
	g.Read(want)
	if !bytes.Equal(w.Body.Bytes(), want) {
		t.Errorf("keystream = %v, want %v", w.Body.Bytes(), want)
	}
}

func TestKeystreamBadLength(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	for _, q := range []string{"length=abc", "length=-1", ""} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/keystream?key=main&"+q, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		s.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("query %q: status = %d, want 400", q, w.Code)
		}
	}
}

func TestCryptRoundTrip(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	plaintext := []byte("attack at dawn, or maybe lunch")

	crypt := func(payload []byte) []byte {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/crypt?key=main", bytes.NewReader(payload))
		req.Header.Set("Authorization", "Bearer "+token)
		s.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		return w.Body.Bytes()
	}

	ciphertext := crypt(plaintext)
	if bytes.Equal(ciphertext, plaintext) {
		t.Error("crypt did not change the data")
	}
	if got := crypt(ciphertext); !bytes.Equal(got, plaintext) {
		t.Errorf("round-trip = %q, want %q", got, plaintext)
	}
}

func TestCryptUnknownKey(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/crypt?key=nope", bytes.NewReader([]byte("x")))
	req.Header.Set("Authorization", "Bearer "+token)
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestKeyCRUD(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s)

	do := func(method, path string, body []byte) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		s.Handler().ServeHTTP(w, req)
		return w
	}

	// Import
	key2 := make([]byte, keystream.KeySize)
	for i := range key2 {
		key2[i] = byte(255 - i)
	}
	body, _ := json.Marshal(map[string]string{"key": base64.StdEncoding.EncodeToString(key2)})
	if w := do(http.MethodPost, "/api/keys/second", body); w.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}

	// Import with a bad size must fail
	short, _ := json.Marshal(map[string]string{"key": base64.StdEncoding.EncodeToString([]byte("short"))})
	if w := do(http.MethodPost, "/api/keys/bad", short); w.Code != http.StatusBadRequest {
		t.Errorf("short import status = %d, want 400", w.Code)
	}

	// Export round-trips
	w := do(http.MethodGet, "/api/keys/second", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	var exp struct {
		Data struct {
			Key string `json:"key"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &exp); err != nil {
		t.Fatalf("parsing export: %v", err)
	}
	got, _ := base64.StdEncoding.DecodeString(exp.Data.Key)
	if !bytes.Equal(got, key2) {
		t.Error("exported key differs from imported key")
	}

	// List shows both
	w = do(http.MethodGet, "/api/keys", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}

	// Delete
	if w := do(http.MethodDelete, "/api/keys/second", nil); w.Code != http.StatusOK {
		t.Errorf("delete status = %d", w.Code)
	}
	if w := do(http.MethodGet, "/api/keys/second", nil); w.Code != http.StatusNotFound {
		t.Errorf("export after delete status = %d, want 404", w.Code)
	}
}
