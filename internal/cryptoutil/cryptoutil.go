// Package cryptoutil seals short secrets, such as backend bearer tokens, before
// they are written to shared storage.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sealer encrypts and decrypts a value bound to a context string (the
// session id). A value sealed under one context does not open under another.
type Sealer interface {
	Seal(plaintext, context string) (string, error)
	Open(sealed, context string) (string, error)
}

const (
	// Versioned prefix to allow future key/algorithm rotations.
	sealedPrefixV1 = "v1:"
	plainPrefix    = "plain:"
	keyLen         = 32
)

// ErrWrongContext is returned when a value is opened with a different context
// than it was sealed with, or the ciphertext was altered.
var ErrWrongContext = errors.New("sealed value does not match its context")

// ParseKey decodes a 32-byte AES-256 key given as base64 (standard or URL,
// padded or not) or as 64 hex characters.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("key is empty")
	}
	if len(raw) == hex.EncodedLen(keyLen) {
		if b, err := hex.DecodeString(raw); err == nil {
			return b, nil
		}
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(raw); err == nil && len(b) == keyLen {
			return b, nil
		}
	}
	return nil, fmt.Errorf("key must decode to %d bytes (base64 or hex)", keyLen)
}

// AESGCM seals with AES-256-GCM; the context is the additional authenticated data.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM constructs a sealer. Key must be 32 bytes.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != keyLen {
		return nil, fmt.Errorf("aes-gcm key must be %d bytes, got %d", keyLen, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCM{aead: aead}, nil
}

// Seal returns "v1:" + base64(nonce||ciphertext). Empty plaintext stays empty.
func (s *AESGCM) Seal(plaintext, context string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(context))
	return sealedPrefixV1 + base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Values written by Plain are accepted so a key can be
// introduced without signing everyone out.
func (s *AESGCM) Open(sealed, context string) (string, error) {
	switch {
	case sealed == "":
		return "", nil
	case strings.HasPrefix(sealed, plainPrefix):
		return Plain{}.Open(sealed, context)
	case !strings.HasPrefix(sealed, sealedPrefixV1):
		return "", fmt.Errorf("unknown sealed value version (prefix: %s)", prefixOf(sealed))
	}

	data, err := base64.StdEncoding.DecodeString(sealed[len(sealedPrefixV1):])
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	n := s.aead.NonceSize()
	if len(data) < n {
		return "", errors.New("sealed value too short")
	}
	pt, err := s.aead.Open(nil, data[:n], data[n:], []byte(context))
	if err != nil {
		return "", ErrWrongContext
	}
	return string(pt), nil
}

// Plain stores values base64-encoded behind a marker. It is used when no key
// is configured and in tests.
type Plain struct{}

// Seal ignores the context.
func (Plain) Seal(plaintext, _ string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return plainPrefix + base64.StdEncoding.EncodeToString([]byte(plaintext)), nil
}

// Open ignores the context.
func (Plain) Open(sealed, _ string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	if !strings.HasPrefix(sealed, plainPrefix) {
		return "", fmt.Errorf("unknown sealed value version (prefix: %s)", prefixOf(sealed))
	}
	b, err := base64.StdEncoding.DecodeString(sealed[len(plainPrefix):])
	if err != nil {
		return "", fmt.Errorf("decode plain value: %w", err)
	}
	return string(b), nil
}

func prefixOf(s string) string {
	if len(s) > 6 {
		return s[:6]
	}
	return s
}
