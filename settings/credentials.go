// Package settings provides storage for proptrans user settings: the model
// API key and the customizable system prompts.
//
// All settings are stored in the XDG data directory:
//
//	$XDG_DATA_HOME/proptrans/  (default: ~/.local/share/proptrans/)
//
// Files stored:
//   - auth.json: API keys keyed by provider ID
//   - prompts.json: translate and review system prompts (customizable by user)
//
// auth.json permissions are 0600 (owner read/write only).
//
// Lookup order for the API key:
//  1. OPENAI_API_KEY environment variable
//  2. PROPTRANS_API_KEY environment variable
//  3. This credential store
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minios-linux/proptrans/atomicfile"
)

const (
	dataDirName = "proptrans"
	fileName    = "auth.json"

	// DefaultProvider is the provider ID used for the OpenAI-compatible endpoint.
	DefaultProvider = "openai"
)

// ErrNoAPIKey is returned by APIKey when no key is configured anywhere.
var ErrNoAPIKey = errors.New("no API key: set OPENAI_API_KEY or PROPTRANS_API_KEY, or run 'proptrans auth set-key'")

// Info is the entry stored per provider in auth.json.
type Info struct {
	Type    string `json:"type"` // always "api"
	Key     string `json:"key,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds all provider credentials, keyed by provider ID.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for proptrans.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// PromptsFilePath returns the path to the prompts.json file.
func PromptsFilePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompts.json"), nil
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return atomicfile.WriteFile(path, data, 0600)
}

// ---------------------------------------------------------------------------
// Get / Set / Remove
// ---------------------------------------------------------------------------

// Get returns the auth entry for a provider, or nil if not found.
func Get(providerID string) *Info {
	return Load()[providerID]
}

// SetAPIKey stores an API key and optional base URL for a provider.
func SetAPIKey(providerID, key, baseURL string) error {
	store := Load()
	store[providerID] = &Info{Type: "api", Key: key, BaseURL: baseURL}
	return Save(store)
}

// Remove deletes credentials for a provider.
func Remove(providerID string) error {
	store := Load()
	if _, ok := store[providerID]; !ok {
		return nil
	}
	delete(store, providerID)
	return Save(store)
}

// GetBaseURL retrieves the stored base URL for a provider.
func GetBaseURL(providerID string) string {
	if info := Get(providerID); info != nil {
		return info.BaseURL
	}
	return ""
}

// APIKey resolves the API key and reports where it came from.
func APIKey() (key, source string, err error) {
	for _, env := range []string{"OPENAI_API_KEY", "PROPTRANS_API_KEY"} {
		if v := os.Getenv(env); v != "" {
			return v, env, nil
		}
	}
	if info := Get(DefaultProvider); info != nil && info.Key != "" {
		return info.Key, FilePath(), nil
	}
	return "", "", ErrNoAPIKey
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
