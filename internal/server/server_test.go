package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/llamadrama/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.SetLocation(time.UTC); err != nil {
		t.Fatalf("SetLocation: %v", err)
	}
	return New(db, nil, "test-version")
}

// do sends a request and decodes a JSON object response.
func do(t *testing.T, srv http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, out
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	code, body := do(t, srv, "GET", "/api/health", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want %d", code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
	if body["reminder"] != false {
		t.Errorf("reminder = %v, want false", body["reminder"])
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := testServer(t)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{"GET", "/api/members/999", "", http.StatusNotFound},
		{"GET", "/api/members/abc", "", http.StatusBadRequest},
		{"POST", "/api/members", `{"name":"   "}`, http.StatusBadRequest},
		{"POST", "/api/members", `{bad`, http.StatusBadRequest},
		{"PATCH", "/api/members/999", `{"name":"X"}`, http.StatusNotFound},
		{"DELETE", "/api/members/999", "", http.StatusNotFound},
		{"POST", "/api/members/999/notes", `{"content":"hi"}`, http.StatusNotFound},
		{"PUT", "/api/notes/999", `{"content":"hi"}`, http.StatusNotFound},
		{"DELETE", "/api/notes/999", "", http.StatusNotFound},
		{"POST", "/api/reminders/check", "", http.StatusServiceUnavailable},
	}

	for _, c := range cases {
		code, body := do(t, srv, c.method, c.path, c.body)
		if code != c.want {
			t.Errorf("%s %s: status = %d, want %d", c.method, c.path, code, c.want)
		}
		if body["error"] == nil || body["error"] == "" {
			t.Errorf("%s %s: expected error message in body", c.method, c.path)
		}
	}
}
