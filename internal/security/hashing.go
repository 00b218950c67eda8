package security

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	Cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Cost 12 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	h := &Hasher{Cost: cost}
	h.dummy()
	return h
}

// Hash produces a bcrypt hash of password with a fresh random salt embedded
// in the output. Returns the hash as a string suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies password against the stored hash using constant-time
// comparison. Returns nil if they match; returns an error (including
// bcrypt.ErrMismatchedHashAndPassword) if they do not or on invalid hash.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}

// Verify reports whether password matches hash. A malformed or empty stored
// hash is a mismatch, never a panic.
func (h *Hasher) Verify(hash string, password []byte) bool {
	if hash == "" {
		return false
	}
	return h.Compare(hash, password) == nil
}

// CompareDummy spends the same bcrypt work as a real Verify against a fixed
// hash. Login calls it when no identity matched so response time does not
// reveal whether the login key exists.
func (h *Hasher) CompareDummy(password []byte) {
	hash := h.dummy()
	if hash == nil {
		return
	}
	_ = bcrypt.CompareHashAndPassword(hash, password)
}

// dummy returns the fixed hash used by CompareDummy. NewHasher computes it up
// front so no login request pays for GenerateFromPassword.
func (h *Hasher) dummy() []byte {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("streamline-dummy-password"), h.Cost)
	})
	return h.dummyHash
}
