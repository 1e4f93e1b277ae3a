package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromValue(t *testing.T) {
	t.Parallel()

	secret, err := Load(Source{Name: "api key", Value: "  token-123  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "token-123" {
		t.Fatalf("expected trimmed secret, got %q", secret)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("token-456\n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	secret, err := Load(Source{Name: "api key", Value: "ignored", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "token-456" {
		t.Fatalf("expected file to take precedence, got %q", secret)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	if _, err := Load(Source{Name: "api key"}); err == nil {
		t.Fatalf("expected error for unconfigured secret")
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}
	if _, err := Load(Source{Name: "api key", File: empty}); err == nil {
		t.Fatalf("expected error for empty secret file")
	}

	if _, err := Load(Source{Name: "api key", File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatalf("expected error for missing secret file")
	}
}
