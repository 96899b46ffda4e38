package utility

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"secretlink/internal/domain"
)

func TestEncryptDecrypt(t *testing.T) {
	c := NewTestCrypto(t)

	plaintext := []byte("this is a very secret message")

	encrypted, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if len(encrypted) == 0 {
		t.Fatal("Encrypt() returned empty byte slice")
	}
	if bytes.Contains(encrypted, plaintext) {
		t.Error("ciphertext contains the plaintext")
	}

	decrypted, err := c.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}

	if string(decrypted) != string(plaintext) {
		t.Errorf("Decrypt() got = %s, want %s", string(decrypted), string(plaintext))
	}
}

func TestEncryptDecrypt_EmptyPlaintext(t *testing.T) {
	c := NewTestCrypto(t)

	encrypted, err := c.Encrypt(nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	decrypted, err := c.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if len(decrypted) != 0 {
		t.Errorf("Decrypt() got = %q, want empty", decrypted)
	}
}

func TestDecrypt_EmptyBlob(t *testing.T) {
	c := NewTestCrypto(t)

	// Absent optional fields decrypt to empty without error.
	decrypted, err := c.Decrypt(nil)
	if err != nil {
		t.Fatalf("Decrypt(nil) error = %v", err)
	}
	if len(decrypted) != 0 {
		t.Errorf("Decrypt(nil) got = %q, want empty", decrypted)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	c := NewTestCrypto(t)

	other, err := NewCrypto("a-different-master-key", "test-salt", TestCryptoConfig())
	if err != nil {
		t.Fatalf("NewCrypto() error = %v", err)
	}

	encrypted, err := c.Encrypt([]byte("this is a very secret message"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	_, err = other.Decrypt(encrypted)
	if !errors.Is(err, domain.ErrDecryption) {
		t.Errorf("Decrypt() with wrong key error = %v, want ErrDecryption", err)
	}
}

func TestDecrypt_InvalidBlob(t *testing.T) {
	c := NewTestCrypto(t)

	tests := []struct {
		name string
		blob []byte
	}{
		{"no prefix", []byte("invalidblob")},
		{"short blob", []byte("v1:short")},
		{"bad base64", []byte("v1:!@#$%^")},
		{"truncated", []byte("v1:AAAA")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Decrypt(tc.blob)
			if !errors.Is(err, domain.ErrDecryption) {
				t.Errorf("Decrypt(%q) error = %v, want ErrDecryption", tc.blob, err)
			}
		})
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	c := NewTestCrypto(t)

	encrypted, err := c.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	// Flip a character in the base64 body.
	s := string(encrypted)
	i := len(s) - 2
	var flip byte = 'A'
	if s[i] == 'A' {
		flip = 'B'
	}
	tampered := s[:i] + string(flip) + s[i+1:]

	if _, err := c.Decrypt([]byte(tampered)); !errors.Is(err, domain.ErrDecryption) {
		t.Errorf("Decrypt() of tampered blob error = %v, want ErrDecryption", err)
	}
}

func TestEncrypt_BlobFormat(t *testing.T) {
	c := NewTestCrypto(t)

	encrypted, err := c.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if !strings.HasPrefix(string(encrypted), "v1:") {
		t.Errorf("blob %q missing v1: prefix", encrypted)
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	c := NewTestCrypto(t)

	a, err := c.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	b, err := c.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same plaintext produced the same blob")
	}
}

func TestNewCrypto_RequiresMasterKey(t *testing.T) {
	if _, err := NewCrypto("", "salt", TestCryptoConfig()); err == nil {
		t.Error("NewCrypto() with empty master key should fail")
	}
}
