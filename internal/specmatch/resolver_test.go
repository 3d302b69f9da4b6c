package specmatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileResolver(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "button-v2.md"), []byte("blue button, 40px"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "card"), []byte("plain card"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewFileResolver(dir)

	t.Run("resolves with extension probing", func(t *testing.T) {
		artifact, err := r.Resolve(context.Background(), "button-v2")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if artifact != "blue button, 40px" {
			t.Errorf("unexpected artifact %q", artifact)
		}
	})

	t.Run("resolves exact name", func(t *testing.T) {
		artifact, err := r.Resolve(context.Background(), "card")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if artifact != "plain card" {
			t.Errorf("unexpected artifact %q", artifact)
		}
	})

	t.Run("missing reference", func(t *testing.T) {
		if _, err := r.Resolve(context.Background(), "nope"); err == nil {
			t.Error("expected an error for a missing reference")
		}
	})

	t.Run("rejects directory escape", func(t *testing.T) {
		if _, err := r.Resolve(context.Background(), "../../etc/passwd"); err == nil {
			t.Error("expected an error for a traversal reference")
		}
	})
}
