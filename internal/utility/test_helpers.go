package utility

import "testing"

// NewTestCrypto builds a Crypto with lowered argon2 params to speed up
// tests. It should only be called from tests.
func NewTestCrypto(t *testing.T) *Crypto {
	t.Helper()
	c, err := NewCrypto("test-master-key", "test-salt", TestCryptoConfig())
	if err != nil {
		t.Fatalf("NewTestCrypto: %v", err)
	}
	return c
}
