// Package auth handles SSH public key authentication and the server host key.
package auth

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
)

// ErrAllowlistNotFound is returned when the allowlist file doesn't exist.
var ErrAllowlistNotFound = errors.New("allowlist file not found")

// Allowlist is the set of public keys allowed to open a storefront session,
// read from an OpenSSH authorized_keys file. It can be reloaded while the
// server runs.
type Allowlist struct {
	path string

	mu      sync.RWMutex
	keys    map[string]string // SHA256 fingerprint -> comment
	skipped []int
}

// LoadAllowlist reads the file at path.
func LoadAllowlist(path string) (*Allowlist, error) {
	a := &Allowlist{path: path}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload re-reads the file. On error the previous keys stay in effect.
func (a *Allowlist) Reload() error {
	file, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrAllowlistNotFound
		}
		return fmt.Errorf("opening allowlist: %w", err)
	}
	defer file.Close()

	keys := make(map[string]string)
	var skipped []int
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pubKey, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			skipped = append(skipped, lineNum)
			continue
		}
		keys[ssh.FingerprintSHA256(pubKey)] = comment
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading allowlist: %w", err)
	}

	a.mu.Lock()
	a.keys = keys
	a.skipped = skipped
	a.mu.Unlock()
	return nil
}

// Allows reports whether key is on the list.
func (a *Allowlist) Allows(key ssh.PublicKey) bool {
	if key == nil {
		return false
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.keys[ssh.FingerprintSHA256(key)]
	return ok
}

// Len returns the number of usable keys.
func (a *Allowlist) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.keys)
}

// Skipped returns the line numbers that could not be parsed on the last load.
func (a *Allowlist) Skipped() []int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]int(nil), a.skipped...)
}

// Path returns the file the allowlist is read from.
func (a *Allowlist) Path() string {
	return a.path
}

// CreateEmptyAllowlist creates an empty allowlist file with a helpful comment.
func CreateEmptyAllowlist(path string) error {
	content := `# Storefront SSH allowlist
# One public key per line in OpenSSH authorized_keys format, e.g.
# ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIExample... shop-admin@laptop
`
	return os.WriteFile(path, []byte(content), 0600)
}
