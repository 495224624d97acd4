// Package credentials turns plaintext passwords into stored digests and checks
// them again at login and password reset.
package credentials

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt reads in full.
const MaxPasswordBytes = 72

var (
	// ErrMalformedDigest is returned when a stored digest matches no known scheme.
	ErrMalformedDigest = errors.New("malformed password digest")
	// ErrPasswordTooLong is returned by Bcrypt.Hash for passwords over MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password is longer than 72 bytes")
)

// Hasher produces and checks password digests.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
}

// Legacy is the unsalted single-round SHA-256 scheme, base64 encoded. Digests
// it produces are deterministic. It exists only to read accounts created
// before bcrypt was introduced.
type Legacy struct{}

// Hash returns base64(SHA-256(password)).
func (Legacy) Hash(password string) (string, error) {
	return legacyDigest(password), nil
}

// Verify recomputes the digest and compares it with the stored one.
func (Legacy) Verify(password, digest string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(legacyDigest(password)), []byte(digest)) == 1, nil
}

func legacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Bcrypt is the scheme for every newly written digest.
type Bcrypt struct {
	Cost int
}

// Hash returns a salted bcrypt digest.
func (b Bcrypt) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether password matches a bcrypt digest. Passwords over
// MaxPasswordBytes never match, since bcrypt would only compare their prefix.
func (Bcrypt) Verify(password, digest string) (bool, error) {
	if len(password) > MaxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	}
}

// IsBcrypt reports whether digest is in bcrypt's modular crypt format.
func IsBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}

// Migrating writes bcrypt digests and accepts both bcrypt and legacy ones.
type Migrating struct {
	Current Bcrypt
	Legacy  Legacy
}

// NewMigrating returns a Migrating hasher with the given bcrypt cost.
func NewMigrating(cost int) *Migrating {
	return &Migrating{Current: Bcrypt{Cost: cost}}
}

// Hash always uses bcrypt.
func (m *Migrating) Hash(password string) (string, error) {
	return m.Current.Hash(password)
}

// Verify dispatches on the digest format.
func (m *Migrating) Verify(password, digest string) (bool, error) {
	if IsBcrypt(digest) {
		return m.Current.Verify(password, digest)
	}
	return m.Legacy.Verify(password, digest)
}

// NeedsRehash reports whether digest should be replaced by a fresh bcrypt one.
func (m *Migrating) NeedsRehash(digest string) bool {
	if !IsBcrypt(digest) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return true
	}
	want := m.Current.Cost
	if want == 0 {
		want = bcrypt.DefaultCost
	}
	return cost < want
}
