package handlers_test

import (
	"net/http"
	"testing"
)

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	e := newEnv(t)
	key := e.addVendor(t, "v1", "pizza vendor")
	status, _ := e.do(t, http.MethodGet, "/api/admin/vendors", key, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("plain vendor: status = %d, want 401", status)
	}
}

func TestAdminListVendors(t *testing.T) {
	e := newEnv(t)
	adminKey := e.addVendor(t, "boss", "the boss", "admin")
	e.addVendor(t, "v1", "pizza vendor")

	req, _ := http.NewRequest(http.MethodGet, e.ts.URL+"/api/admin/vendors", nil)
	req.Header.Set("Authorization", "Bearer "+adminKey)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
}

func TestAdminGrantsAndRevokesAdminRole(t *testing.T) {
	e := newEnv(t)
	adminKey := e.addVendor(t, "boss", "the boss", "admin")
	vKey := e.addVendor(t, "v1", "pizza vendor")

	status, body := e.do(t, http.MethodPut, "/api/admin/vendor", adminKey, map[string]any{
		"id": "v1", "roles": []string{"admin"},
	})
	if status != http.StatusOK {
		t.Fatalf("grant: status = %d, body = %v", status, body)
	}

	if status, _ := e.do(t, http.MethodGet, "/api/admin/vendors", vKey, nil); status != http.StatusOK {
		t.Errorf("promoted vendor denied: status = %d", status)
	}

	status, _ = e.do(t, http.MethodPut, "/api/admin/vendor", adminKey, map[string]any{
		"id": "v1", "roles": []string{},
	})
	if status != http.StatusOK {
		t.Fatalf("revoke: status = %d", status)
	}
	if status, _ := e.do(t, http.MethodGet, "/api/admin/vendors", vKey, nil); status != http.StatusUnauthorized {
		t.Errorf("demoted vendor still admin: status = %d", status)
	}
}

func TestAdminUpdateMissingID(t *testing.T) {
	e := newEnv(t)
	adminKey := e.addVendor(t, "boss", "the boss", "admin")
	status, body := e.do(t, http.MethodPut, "/api/admin/vendor", adminKey, map[string]any{"roles": []string{"admin"}})
	if status != http.StatusBadRequest || body["message"] != "Missing required parameter" {
		t.Errorf("status = %d, body = %v", status, body)
	}
}

func TestAdminDeleteVendorCascades(t *testing.T) {
	e := newEnv(t)
	adminKey := e.addVendor(t, "boss", "the boss", "admin")
	keyA := e.addVendor(t, "alice", "Alice Pizza")
	keyB := e.addVendor(t, "bob", "Bob Pizza")

	e.do(t, http.MethodPut, "/api/vendor/chaos/fail", keyA, nil)
	e.do(t, http.MethodPost, "/api/vendor/connect", keyA, map[string]any{"purpose": "test"})
	e.do(t, http.MethodPost, "/api/vendor/connect", keyB, map[string]any{"purpose": "test"})

	status, body := e.do(t, http.MethodDelete, "/api/admin/vendor/alice", adminKey, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: status = %d, body = %v", status, body)
	}

	if status, _ := e.do(t, http.MethodGet, "/api/vendor", keyA, nil); status != http.StatusUnauthorized {
		t.Errorf("deleted vendor still authenticates: status = %d", status)
	}
	// both directions of the pairing are gone
	_, body = e.do(t, http.MethodGet, "/api/vendor", keyB, nil)
	if conns, ok := body["connections"].(map[string]any); ok {
		if _, still := conns["test"]; still {
			t.Error("partner's connection row survived the cascade")
		}
	}

	status, _ = e.do(t, http.MethodDelete, "/api/admin/vendor/alice", adminKey, nil)
	if status != http.StatusNotFound {
		t.Errorf("double delete: status = %d, want 404", status)
	}
}

func TestUnknownEndpoint(t *testing.T) {
	e := newEnv(t)
	status, body := e.do(t, http.MethodGet, "/api/nope", "", nil)
	if status != http.StatusNotFound || body["message"] != "unknown endpoint" {
		t.Errorf("status = %d, body = %v", status, body)
	}
}

func TestDocsEndpoint(t *testing.T) {
	e := newEnv(t)
	status, body := e.do(t, http.MethodGet, "/api/docs", "", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["message"] != "welcome to JWT Pizza Factory" {
		t.Errorf("message = %v", body["message"])
	}
	if eps, _ := body["endpoints"].([]any); len(eps) == 0 {
		t.Error("no endpoints listed")
	}
}
