package auth

import (
	"encoding/json"
	"fmt"
	"os"
)

// ErrUnauthenticated is returned by CredentialsStore.Verify on unknown
// username or wrong password; callers map it to the RPC Unauthenticated
// code.
var ErrUnauthenticated = fmt.Errorf("auth: invalid username or password")

// CredentialsStore is the credentials file Master.Authenticate validates
// against (spec.md §4.2). The file is a JSON object mapping username to an
// argon2id PHC hash produced by HashPassword.
type CredentialsStore struct {
	hashes map[string]string
}

// LoadCredentialsStore reads and parses the credentials file at path.
func LoadCredentialsStore(path string) (*CredentialsStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: read credentials file %s: %w", path, err)
	}
	var hashes map[string]string
	if err := json.Unmarshal(data, &hashes); err != nil {
		return nil, fmt.Errorf("auth: parse credentials file %s: %w", path, err)
	}
	return &CredentialsStore{hashes: hashes}, nil
}

// Verify reports whether username/password match an entry in the store.
func (c *CredentialsStore) Verify(username, password string) error {
	hash, ok := c.hashes[username]
	if !ok {
		return ErrUnauthenticated
	}
	ok, err := VerifyPassword(password, hash)
	if err != nil {
		return fmt.Errorf("auth: verify password for %s: %w", username, err)
	}
	if !ok {
		return ErrUnauthenticated
	}
	return nil
}
