package handlers_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"pizzafactory/internal/chaos"
	"pizzafactory/internal/email"
	"pizzafactory/internal/httpserver"
	"pizzafactory/internal/keys"
	"pizzafactory/internal/models"
)

const testDelay = 10 * time.Millisecond

// captureSender records outgoing mail so tests can fish out login codes.
type captureSender struct {
	mu   sync.Mutex
	last email.Message
}

func (c *captureSender) Send(_ context.Context, m email.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = m
	return nil
}

var codePattern = regexp.MustCompile(`is: ([0-9a-f]{8})`)

func (c *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	m := codePattern.FindStringSubmatch(c.last.Text)
	if m == nil {
		t.Fatalf("no login code in message %q", c.last.Text)
	}
	return m[1]
}

type env struct {
	ts   *httptest.Server
	st   *memStore
	ks   *keys.Keys
	mail *captureSender
}

func newEnv(t *testing.T) *env {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	ks, err := keys.FromPair(priv, &priv.PublicKey)
	if err != nil {
		t.Fatalf("build keys: %v", err)
	}

	st := newMemStore()
	mail := &captureSender{}

	// The engine needs the server URL for report links, and the server
	// needs the router; route through an indirection to break the cycle.
	var router http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	eng := chaos.NewEngine(st, testDelay, ts.URL)
	router = httpserver.NewRouter(st, ks, eng, mail, zap.NewNop().Sugar())

	return &env{ts: ts, st: st, ks: ks, mail: mail}
}

func (e *env) addVendor(t *testing.T, id, name string, roles ...string) string {
	t.Helper()
	apiKey := "key-" + id
	v := &models.Vendor{ID: id, APIKey: apiKey, Name: name, Email: id + "@jwt.com"}
	if err := e.st.CreateVendor(context.Background(), v); err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	for _, role := range roles {
		if err := e.st.AssignRole(context.Background(), id, role, true); err != nil {
			t.Fatalf("assign role: %v", err)
		}
	}
	return apiKey
}

// do issues a request and decodes the JSON body into a generic map.
func (e *env) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if len(raw) > 0 {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		// array bodies (admin listings) come back as a nil map
		out, _ = parsed.(map[string]any)
	}
	return res.StatusCode, out
}

func validOrderBody() map[string]any {
	return map[string]any{
		"diner": map[string]any{"id": 719, "name": "j", "email": "j@jwt.com"},
		"order": map[string]any{
			"items":   []map[string]any{{"menuId": 1, "description": "Veggie", "price": 0.0038}},
			"storeId": "5",
		},
	}
}

func orderWithItems(n int) map[string]any {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{"menuId": i + 1, "description": "Veggie", "price": 0.05}
	}
	return map[string]any{
		"diner": map[string]any{"id": 1, "name": "a", "email": "a@jwt.com"},
		"order": map[string]any{"items": items},
	}
}
