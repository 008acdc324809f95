package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CookieStore is the on-disk shape of .cookies.json.
type CookieStore struct {
	TimestampMs int64           `json:"timestamp"`
	Cookies     json.RawMessage `json:"cookies"`
}

const cookieFileName = ".cookies.json"

// LoadCookies reads the cookie store at dir/.cookies.json if its age is
// within ttl. Returns (nil, false, nil) when absent or stale.
func LoadCookies(dir string, ttl time.Duration) (*CookieStore, bool, error) {
	path := filepath.Join(dir, cookieFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("session: read cookie store: %w", err)
	}

	var store CookieStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, false, fmt.Errorf("session: decode cookie store: %w", err)
	}

	age := time.Since(time.UnixMilli(store.TimestampMs))
	if age > ttl {
		return nil, false, nil
	}
	return &store, true, nil
}

// SaveCookies writes cookies to dir/.cookies.json atomically via
// write-to-temp-then-rename.
func SaveCookies(dir string, cookies json.RawMessage) error {
	store := CookieStore{TimestampMs: time.Now().UnixMilli(), Cookies: cookies}
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("session: encode cookie store: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cookies-*.tmp")
	if err != nil {
		return fmt.Errorf("session: create temp cookie file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: write temp cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: close temp cookie file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, cookieFileName)); err != nil {
		return fmt.Errorf("session: rename cookie file: %w", err)
	}
	return nil
}
