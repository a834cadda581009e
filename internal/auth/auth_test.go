package auth_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/micro-nova/powctl-go/internal/auth"
)

// writeKeys writes a keys file into dir and returns its path.
func writeKeys(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "keys.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile keys.yaml: %v", err)
	}
	return path
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// --- Open mode ---

func TestService_EmptyPath_OpenMode(t *testing.T) {
	svc, err := auth.NewService("")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)

	if !svc.IsOpenMode() {
		t.Error("IsOpenMode() = false, want true with no keys file")
	}
	if _, ok := svc.VerifyKey("any-key"); ok {
		t.Error("VerifyKey(any) = true with no keys, want false")
	}
}

func TestService_MissingFile_OpenMode(t *testing.T) {
	svc, err := auth.NewService(filepath.Join(t.TempDir(), "keys.yaml"))
	if err != nil {
		t.Fatalf("NewService with missing file: %v", err)
	}
	t.Cleanup(svc.Close)

	if !svc.IsOpenMode() {
		t.Error("expected open mode for missing keys file")
	}
}

func TestMiddleware_OpenMode_PassesThrough(t *testing.T) {
	svc, _ := auth.NewService("")
	t.Cleanup(svc.Close)

	rr := httptest.NewRecorder()
	svc.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/charger", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 in open mode", rr.Code)
	}
}

// --- Secured mode ---

func newSecuredService(t *testing.T) *auth.Service {
	t.Helper()
	path := writeKeys(t, t.TempDir(), "keys:\n  psm: secret-key\n  blank: \"\"\n")
	svc, err := auth.NewService(path)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestService_Secured_VerifyKey(t *testing.T) {
	svc := newSecuredService(t)

	if svc.IsOpenMode() {
		t.Error("IsOpenMode() = true, want false")
	}
	name, ok := svc.VerifyKey("secret-key")
	if !ok || name != "psm" {
		t.Errorf("VerifyKey(correct) = %q, %v; want psm, true", name, ok)
	}
	if _, ok := svc.VerifyKey("wrong"); ok {
		t.Error("VerifyKey(wrong) = true")
	}
	if _, ok := svc.VerifyKey(""); ok {
		t.Error("VerifyKey(\"\") = true, empty keys are never valid")
	}
}

func TestMiddleware_Secured(t *testing.T) {
	svc := newSecuredService(t)
	h := svc.Middleware(okHandler())

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		target string
		want   int
	}{
		{"header", func(r *http.Request) { r.Header.Set("X-API-Key", "secret-key") }, "/api/charger", http.StatusOK},
		{"query", func(r *http.Request) {}, "/api/charger?api-key=secret-key", http.StatusOK},
		{"wrong key", func(r *http.Request) { r.Header.Set("X-API-Key", "nope") }, "/api/charger", http.StatusUnauthorized},
		{"no key", func(r *http.Request) {}, "/api/charger", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, tc.target, nil)
			tc.setup(req)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Errorf("status = %d, want %d", rr.Code, tc.want)
			}
		})
	}
}

func TestService_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.yaml")

	svc, err := auth.NewService(path)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	if !svc.IsOpenMode() {
		t.Fatal("initially expected open mode")
	}

	writeKeys(t, dir, "keys:\n  api: reload-key\n")
	if err := svc.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if _, ok := svc.VerifyKey("reload-key"); !ok {
		t.Error("VerifyKey after reload returned false for correct key")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reload(); err != nil {
		t.Fatalf("Reload after remove: %v", err)
	}
	if !svc.IsOpenMode() {
		t.Error("expected open mode after the keys file is removed")
	}
}

func TestService_WatchPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeKeys(t, dir, "keys:\n  a: first\n")
	svc, err := auth.NewService(path)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)

	writeKeys(t, dir, "keys:\n  a: second\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := svc.VerifyKey("second"); ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Skip("fsnotify did not deliver an event in time (unsupported filesystem?)")
}

func TestNewService_BadYAML(t *testing.T) {
	path := writeKeys(t, t.TempDir(), "keys: [oops")
	if _, err := auth.NewService(path); err == nil {
		t.Error("NewService(bad yaml) error = nil")
	}
}
