package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalPutServeDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "/files/")
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	ctx := context.Background()

	url, err := store.Put(ctx, "t1/123_lease.pdf", "application/pdf", strings.NewReader("lease"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if url != "/files/t1/123_lease.pdf" {
		t.Errorf("url = %q", url)
	}

	srv := httptest.NewServer(store.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + url)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "lease" {
		t.Errorf("served %d %q", resp.StatusCode, body)
	}

	if err := store.Delete(ctx, "t1/123_lease.pdf"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "t1", "123_lease.pdf")); !os.IsNotExist(err) {
		t.Errorf("expected file to be removed, stat err = %v", err)
	}
	if err := store.Delete(ctx, "t1/123_lease.pdf"); err != nil {
		t.Errorf("deleting a missing object should succeed: %v", err)
	}
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	for _, key := range []string{"", "/etc/passwd", "../x", "a/../../x", `a\b`} {
		if _, err := store.Put(context.Background(), key, "", strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q) err = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"lease.pdf":          "lease.pdf",
		"My Lease (1).pdf":   "My_Lease__1_.pdf",
		"../../etc/passwd":   "passwd",
		`C:\docs\id card.png`: "id_card.png",
		"..":                 "file",
	}
	for in, want := range tests {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
