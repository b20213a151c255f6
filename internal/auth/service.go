package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/hospitalops/kpi-engine/internal/rbac"
	"github.com/hospitalops/kpi-engine/internal/shared"
)

// KeyRing verifies bearer tokens of the form "<id>.<secret>" against bcrypt hashes.
type KeyRing struct {
	keys     map[string]Key
	verified sync.Map
}

// NewKeyRing builds a ring from key id → bcrypt hash and key id → role maps. Every hashed
// key needs a known role.
func NewKeyRing(hashes, roles map[string]string) (*KeyRing, error) {
	ring := &KeyRing{keys: make(map[string]Key, len(hashes))}
	for id, hash := range hashes {
		id = strings.TrimSpace(id)
		if id == "" || strings.Contains(id, ".") {
			return nil, fmt.Errorf("auth: invalid key id %q", id)
		}
		role, err := rbac.ParseRole(roles[id])
		if err != nil {
			return nil, fmt.Errorf("auth: key %s: %w", id, err)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("auth: key %s: %w", id, err)
		}
		ring.keys[id] = Key{ID: id, Role: role, hash: []byte(hash)}
	}
	return ring, nil
}

// Len reports the number of configured keys.
func (k *KeyRing) Len() int {
	if k == nil {
		return 0
	}
	return len(k.keys)
}

// IDs lists the configured key ids in order.
func (k *KeyRing) IDs() []string {
	if k == nil {
		return nil
	}
	out := make([]string, 0, len(k.keys))
	for id := range k.keys {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Authenticate resolves a token to its principal.
func (k *KeyRing) Authenticate(token string) (shared.Principal, error) {
	id, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || id == "" || secret == "" {
		return shared.Principal{}, ErrMalformedKey
	}
	if k == nil {
		return shared.Principal{}, shared.ErrInvalidCredentials
	}
	key, ok := k.keys[id]
	if !ok {
		return shared.Principal{}, shared.ErrInvalidCredentials
	}
	digest := fingerprint(token)
	if cached, ok := k.verified.Load(digest); ok {
		return cached.(shared.Principal), nil
	}
	if err := bcrypt.CompareHashAndPassword(key.hash, []byte(secret)); err != nil {
		return shared.Principal{}, shared.ErrInvalidCredentials
	}
	principal := shared.Principal{KeyID: key.ID, Role: string(key.Role)}
	k.verified.Store(digest, principal)
	return principal, nil
}

// HashSecret returns the bcrypt hash to configure for a key secret.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash secret: %w", err)
	}
	return string(hash), nil
}

// GenerateKey issues a fresh token for id together with the hash to configure.
func GenerateKey(id string) (token, hash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("auth: random: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)
	hash, err = HashSecret(secret)
	if err != nil {
		return "", "", err
	}
	return id + "." + secret, hash, nil
}

func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
