package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// Cipher is the tokenization contract the card services depend on. Hash must
// be deterministic: the same card number always yields the same token, so it
// can back a unique index and equality lookups without storing plaintext.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	Hash(plaintext string) string
}

// CardVault encrypts card numbers with AES-GCM under a key derived from the
// master passphrase, and computes HMAC-SHA256 search tokens.
type CardVault struct {
	aead    cipher.AEAD
	hashKey []byte
}

type Config struct {
	MasterKey string
	HashKey   string
	Salt      string
}

// New derives the AES key from the master passphrase with argon2id and
// builds the vault. All three config values are required.
func New(config Config) (*CardVault, error) {
	if config.MasterKey == "" {
		return nil, errors.New("card crypto master key required")
	}
	if config.HashKey == "" {
		return nil, errors.New("card crypto hash key required")
	}
	if config.Salt == "" {
		return nil, errors.New("card crypto salt required")
	}

	key := argon2.IDKey([]byte(config.MasterKey), []byte(config.Salt), 1, 64*1024, 4, 32)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &CardVault{
		aead:    aead,
		hashKey: []byte(config.HashKey),
	}, nil
}

// Encrypt returns base64(nonce || ciphertext). A fresh nonce is used per
// call, so two encryptions of the same number differ; equality search goes
// through Hash instead.
func (v *CardVault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (v *CardVault) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}

	if len(raw) < v.aead.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, sealed := raw[:v.aead.NonceSize()], raw[v.aead.NonceSize():]
	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}

	return string(plaintext), nil
}

// Hash returns the base64 HMAC-SHA256 search token for a card number.
func (v *CardVault) Hash(plaintext string) string {
	h := hmac.New(sha256.New, v.hashKey)
	h.Write([]byte(plaintext))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
