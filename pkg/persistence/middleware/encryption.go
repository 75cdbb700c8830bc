package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/roguepath/pkg/ports"
)

// EnvelopeType tags documents written by the encryption middleware.
const EnvelopeType = "roguepath.sealed"

// ErrNotSealed is returned when a loaded document is not an encryption envelope.
var ErrNotSealed = errors.New("document is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// Validate checks key sizes.
func (c EncryptionConfig) Validate() error {
	if len(c.ActiveKey) != 32 {
		return fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(c.ActiveKey))
	}
	for i, k := range c.FallbackKeys {
		if len(k) != 32 {
			return fmt.Errorf("fallback key %d must be 32 bytes, got %d", i, len(k))
		}
	}
	return nil
}

type sealed struct {
	Type       string `json:"type"`
	Ciphertext []byte `json:"ciphertext"`
}

type encryptionMiddleware struct {
	next   ports.GraphStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals documents with AES-GCM.
// The stored value is a small JSON envelope carrying the base64 ciphertext.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return func(next ports.GraphStore) ports.GraphStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, owner string, doc []byte) error {
	ciphertext, err := encrypt(doc, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt document: %w", err)
	}
	envelope, err := json.Marshal(sealed{Type: EnvelopeType, Ciphertext: ciphertext})
	if err != nil {
		return err
	}
	return m.next.Save(ctx, owner, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, owner string) ([]byte, error) {
	raw, err := m.next.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	var envelope sealed
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Type != EnvelopeType {
		return nil, ErrNotSealed
	}

	plain, err := decryptWithRotation(envelope.Ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt document: %w", err)
	}
	return plain, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, owner string) error {
	return m.next.Delete(ctx, owner)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
