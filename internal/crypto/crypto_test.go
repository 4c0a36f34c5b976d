package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestVault(t *testing.T) *CardVault {
	t.Helper()
	vault, err := New(Config{
		MasterKey: "test-master-key",
		HashKey:   "test-hash-key",
		Salt:      "test-salt-16byte",
	})
	assert.NoError(t, err)
	return vault
}

func TestCardVault_EncryptDecrypt(t *testing.T) {
	vault := newTestVault(t)

	t.Run("round trip", func(t *testing.T) {
		ciphertext, err := vault.Encrypt("5555555555555599")
		assert.NoError(t, err)
		assert.NotEqual(t, "5555555555555599", ciphertext)

		plaintext, err := vault.Decrypt(ciphertext)
		assert.NoError(t, err)
		assert.Equal(t, "5555555555555599", plaintext)
	})

	t.Run("fresh nonce per encryption", func(t *testing.T) {
		first, err := vault.Encrypt("5555555555555599")
		assert.NoError(t, err)
		second, err := vault.Encrypt("5555555555555599")
		assert.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("tampered ciphertext rejected", func(t *testing.T) {
		_, err := vault.Decrypt("bm90LWEtcmVhbC1jaXBoZXJ0ZXh0LWJsb2I=")
		assert.Error(t, err)
	})

	t.Run("garbage encoding rejected", func(t *testing.T) {
		_, err := vault.Decrypt("not base64 !!!")
		assert.Error(t, err)
	})
}

func TestCardVault_Hash(t *testing.T) {
	vault := newTestVault(t)

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, vault.Hash("5555555555555599"), vault.Hash("5555555555555599"))
	})

	t.Run("distinct numbers distinct tokens", func(t *testing.T) {
		assert.NotEqual(t, vault.Hash("5555555555555599"), vault.Hash("5555555555555598"))
	})

	t.Run("key changes token", func(t *testing.T) {
		other, err := New(Config{MasterKey: "test-master-key", HashKey: "other-hash-key", Salt: "test-salt-16byte"})
		assert.NoError(t, err)
		assert.NotEqual(t, vault.Hash("5555555555555599"), other.Hash("5555555555555599"))
	})
}

func TestNew_RequiresSecrets(t *testing.T) {
	_, err := New(Config{HashKey: "h", Salt: "s"})
	assert.Error(t, err)

	_, err = New(Config{MasterKey: "m", Salt: "s"})
	assert.Error(t, err)

	_, err = New(Config{MasterKey: "m", HashKey: "h"})
	assert.Error(t, err)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "55555555", First8("5555555555555599"))
	assert.Equal(t, "5599", Last4("5555555555555599"))
	assert.Equal(t, "**** **** **** 5599", Mask("5555555555555599"))
}
