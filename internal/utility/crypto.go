package utility

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"

	"secretlink/internal/domain"
)

const (
	nonceLen = 12 // GCM standard
	keyLen   = 32 // AES-256
)

// CryptoConfig holds the argon2id parameters used to derive the
// process key from the configured master secret.
type CryptoConfig struct {
	ArgonTime    uint32
	ArgonMemory  uint32
	ArgonThreads uint8
}

// DefaultCryptoConfig returns the default production configuration.
func DefaultCryptoConfig() CryptoConfig {
	return CryptoConfig{
		ArgonTime:    1,
		ArgonMemory:  64 * 1024, // 64 MB
		ArgonThreads: 4,
	}
}

// TestCryptoConfig returns a faster configuration suitable for testing.
func TestCryptoConfig() CryptoConfig {
	return CryptoConfig{
		ArgonTime:    1,
		ArgonMemory:  1024, // 1 MB - faster for tests
		ArgonThreads: 4,
	}
}

// Crypto is the server-side encryption layer. It holds a single
// symmetric key derived once at startup; no key material derived from
// request data is ever used or stored. Safe for concurrent use.
type Crypto struct {
	gcm cipher.AEAD
}

// NewCrypto derives the AES-256 key from the master secret and salt
// with argon2id and prepares the AEAD. The master secret comes from
// external configuration and must never be logged or persisted.
func NewCrypto(masterKey, salt string, cfg CryptoConfig) (*Crypto, error) {
	if masterKey == "" {
		return nil, errors.New("master key is required")
	}

	key := argon2.IDKey(
		[]byte(masterKey),
		[]byte(salt),
		cfg.ArgonTime,
		cfg.ArgonMemory,
		cfg.ArgonThreads,
		keyLen,
	)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &Crypto{gcm: gcm}, nil
}

// Encrypt seals plaintext under the process key. The blob is stored as
// "v1:" + base64(nonce|ciphertext). An empty plaintext still produces
// a valid blob that round-trips to empty.
func (c *Crypto) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	ct := c.gcm.Seal(nil, nonce, plaintext, nil)

	raw := make([]byte, 0, len(nonce)+len(ct))
	raw = append(raw, nonce...)
	raw = append(raw, ct...)

	out := "v1:" + base64.StdEncoding.EncodeToString(raw)
	return []byte(out), nil
}

// Decrypt opens a blob produced by Encrypt. An empty blob returns an
// empty plaintext without error: absent optional fields are a normal
// case, not a failure. Anything malformed or tampered with returns
// domain.ErrDecryption.
func (c *Crypto) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, nil
	}

	s := string(blob)
	if !strings.HasPrefix(s, "v1:") {
		return nil, fmt.Errorf("%w: unsupported format", domain.ErrDecryption)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, "v1:"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	if len(raw) < nonceLen+c.gcm.Overhead() {
		return nil, fmt.Errorf("%w: blob too short", domain.ErrDecryption)
	}

	nonce := raw[:nonceLen]
	ct := raw[nonceLen:]

	pt, err := c.gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: auth failed", domain.ErrDecryption)
	}
	return pt, nil
}
