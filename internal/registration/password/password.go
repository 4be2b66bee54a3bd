package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Changing these invalidates no stored credentials
// because the salt and digest are stored per user.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	keyLength    = 32
	saltLength   = 16
)

// Credential is the derived password material handed to the security store.
// The plaintext never leaves the Hash call.
type Credential struct {
	Hash string
	Salt string
}

// Hasher derives and verifies salted Argon2id digests.
type Hasher struct{}

func New() *Hasher {
	return &Hasher{}
}

// Hash generates a fresh random salt and derives the digest. It fails only on
// an internal entropy error.
func (h *Hasher) Hash(plaintext string) (Credential, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return Credential{}, fmt.Errorf("generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(plaintext), salt, argonTime, argonMemory, argonThreads, keyLength)

	return Credential{
		Hash: base64.StdEncoding.EncodeToString(digest),
		Salt: base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// Verify compares a plaintext password against a stored digest and salt.
// A malformed digest or salt returns a non-nil error so callers can tell
// tampering apart from an ordinary mismatch, which returns (false, nil).
func (h *Hasher) Verify(plaintext, hash, salt string) (bool, error) {
	decodedSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}

	decodedHash, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}

	comparison := argon2.IDKey([]byte(plaintext), decodedSalt, argonTime, argonMemory, argonThreads, keyLength)

	return subtle.ConstantTimeCompare(decodedHash, comparison) == 1, nil
}
