package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFilePathsUseXDGDataHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	wantPath := filepath.Join(tmp, "proptrans", "auth.json")
	if got := FilePath(); got != wantPath {
		t.Fatalf("FilePath() = %q, want %q", got, wantPath)
	}

	prompts, err := PromptsFilePath()
	if err != nil {
		t.Fatalf("PromptsFilePath() error: %v", err)
	}
	if want := filepath.Join(tmp, "proptrans", "prompts.json"); prompts != want {
		t.Fatalf("PromptsFilePath() = %q, want %q", prompts, want)
	}
}

func TestSaveLoadRemoveLifecycle(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	if err := SetAPIKey(DefaultProvider, "sk-apikey123456", "http://localhost:8080/v1"); err != nil {
		t.Fatalf("SetAPIKey() error: %v", err)
	}
	if err := SetAPIKey("local", "other-key", ""); err != nil {
		t.Fatalf("SetAPIKey(local) error: %v", err)
	}

	path := filepath.Join(tmp, "proptrans", "auth.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat auth.json: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("auth.json mode = %o, want 600", info.Mode().Perm())
	}

	loaded := Load()
	if loaded[DefaultProvider] == nil || loaded[DefaultProvider].Key != "sk-apikey123456" {
		t.Fatalf("Load() missing openai key: %#v", loaded[DefaultProvider])
	}
	if got := GetBaseURL(DefaultProvider); got != "http://localhost:8080/v1" {
		t.Errorf("GetBaseURL() = %q", got)
	}

	if err := Remove(DefaultProvider); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if Get(DefaultProvider) != nil {
		t.Fatalf("openai entry should be gone after Remove")
	}
	if Get("local") == nil {
		t.Fatalf("local entry should remain after removing openai")
	}
	if err := Remove("missing-provider"); err != nil {
		t.Fatalf("Remove(missing) should be no-op, got: %v", err)
	}
}

func TestLoadInvalidJSONReturnsEmpty(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir := filepath.Join(tmp, "proptrans")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "auth.json"), []byte("{broken"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := Load(); len(got) != 0 {
		t.Fatalf("Load() on invalid json = %#v, want empty", got)
	}
}

func TestAPIKeyLookupOrder(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PROPTRANS_API_KEY", "")

	if _, _, err := APIKey(); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("APIKey() with nothing configured: err = %v, want ErrNoAPIKey", err)
	}

	if err := SetAPIKey(DefaultProvider, "stored-key", ""); err != nil {
		t.Fatal(err)
	}
	key, source, err := APIKey()
	if err != nil || key != "stored-key" || source != FilePath() {
		t.Fatalf("APIKey() = %q, %q, %v; want stored key from auth.json", key, source, err)
	}

	t.Setenv("PROPTRANS_API_KEY", "tool-key")
	if key, source, _ = APIKey(); key != "tool-key" || source != "PROPTRANS_API_KEY" {
		t.Fatalf("APIKey() = %q from %q, want PROPTRANS_API_KEY", key, source)
	}

	t.Setenv("OPENAI_API_KEY", "env-key")
	if key, source, _ = APIKey(); key != "env-key" || source != "OPENAI_API_KEY" {
		t.Fatalf("APIKey() = %q from %q, want OPENAI_API_KEY", key, source)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "****"},
		{"12345678", "****"},
		{"123456789", "1234...6789"},
		{"sk-abcdefghijklmnop", "sk-a...mnop"},
	}
	for _, tt := range tests {
		if got := MaskKey(tt.in); got != tt.want {
			t.Errorf("MaskKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
