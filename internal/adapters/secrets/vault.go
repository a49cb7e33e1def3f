// Package secrets stores API keys and tokens encrypted at rest with
// AES-256-GCM. The key is derived once per process from the operator secret
// via scrypt with a fixed salt and is never written to disk.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/scrypt"

	"zotreader/internal/domain"
)

const (
	keySize   = 32
	nonceSize = 12
	kdfSalt   = "zotreader-salt"

	// scrypt cost parameters
	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// Vault implements ports.SecretVault. Construct one per process and inject
// it; key derivation happens lazily on first use.
type Vault struct {
	secret string

	once sync.Once
	aead cipher.AEAD
	err  error
}

func New(secret string) *Vault { return &Vault{secret: secret} }

func (v *Vault) init() {
	key, err := scrypt.Key([]byte(v.secret), []byte(kdfSalt), scryptN, scryptR, scryptP, keySize)
	if err != nil {
		v.err = fmt.Errorf("derive key: %w", err)
		return
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		v.err = fmt.Errorf("init cipher: %w", err)
		return
	}
	v.aead, v.err = cipher.NewGCM(block)
}

// Encrypt seals plaintext under a fresh random nonce. The blob format is
// hex(nonce):hex(tag):hex(ciphertext).
func (v *Vault) Encrypt(plaintext string) (string, error) {
	v.once.Do(v.init)
	if v.err != nil {
		return "", v.err
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := v.aead.Seal(nil, nonce, []byte(plaintext), nil)
	// Seal appends the 16-byte tag after the ciphertext.
	ct := sealed[:len(sealed)-v.aead.Overhead()]
	tag := sealed[len(sealed)-v.aead.Overhead():]
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct), nil
}

// Decrypt opens a blob produced by Encrypt. Any malformed or forged input
// fails with domain.ErrIntegrity.
func (v *Vault) Decrypt(blob string) (string, error) {
	v.once.Do(v.init)
	if v.err != nil {
		return "", v.err
	}
	parts := strings.Split(blob, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: want 3 blob components, got %d", domain.ErrIntegrity, len(parts))
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", fmt.Errorf("%w: bad nonce", domain.ErrIntegrity)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: bad tag", domain.ErrIntegrity)
	}
	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext", domain.ErrIntegrity)
	}
	plain, err := v.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", domain.ErrIntegrity)
	}
	return string(plain), nil
}

// Mask renders a decrypted secret for display: first 4 and last 4 characters
// with "****" between, or "****" alone for short secrets. Masked values must
// never round-trip into storage; see IsMasked.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-4:]
}

// IsMasked reports whether a submitted value is a display mask rather than a
// real secret. Update paths use it to leave stored secrets untouched.
func IsMasked(value string) bool { return strings.Contains(value, "****") }
