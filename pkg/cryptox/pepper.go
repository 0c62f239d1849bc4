package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrCreateSecret reads a base64url secret from path, generating and
// writing a new one of size bytes when the file does not exist. The pepper
// and the key-encryption master key are both kept this way.
func LoadOrCreateSecret(path string, size int) ([]byte, error) {
	if path == "" {
		return nil, errors.New("cryptox: secret path is empty")
	}
	path = filepath.Clean(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		secret, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("cryptox: decode secret %s: %w", path, err)
		}
		if len(secret) < TokenSize128 {
			return nil, fmt.Errorf("cryptox: secret %s is too short", path)
		}
		return secret, nil

	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("cryptox: read secret %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("cryptox: create secret dir: %w", err)
	}

	secret := make([]byte, size)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("cryptox: generate secret: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(secret)
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("cryptox: write secret %s: %w", path, err)
	}
	return secret, nil
}

// LoadPepper loads the password pepper, creating it on first start.
func LoadPepper(path string) ([]byte, error) {
	return LoadOrCreateSecret(path, keyLength)
}
