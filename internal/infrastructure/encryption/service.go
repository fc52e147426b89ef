// Package encryption implements at-rest encryption for credential blobs.
//
// Tokens are AES-256-GCM with a fresh 16-byte IV per call, formatted as three
// colon-separated hex segments: <ivHex>:<authTagHex>:<ciphertextHex>. The same
// plaintext therefore never encrypts to the same token twice, but every token
// decrypts back to the original value.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const ivLength = 16

// DecryptionError reports a token that could not be decrypted: wrong segment
// count, bad hex, failed tag verification, or non-JSON plaintext.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decrypt credentials: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decrypt credentials: %s", e.Reason)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// Service encrypts and decrypts JSON credential blobs with a process-wide key.
type Service struct {
	aead cipher.AEAD
}

// NewService builds a Service from a 64-character hex key. The key is
// configuration loaded once at startup; callers treat an error here as fatal.
func NewService(hexKey string) (*Service, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("encryption key is not set")
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return &Service{aead: aead}, nil
}

// Encrypt JSON-marshals v and returns an opaque token.
func (s *Service) Encrypt(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal credentials: %w", err)
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	sealed := s.aead.Seal(nil, iv, plaintext, nil)
	tagStart := len(sealed) - s.aead.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	), nil
}

// Decrypt reverses Encrypt into out, which must be a pointer.
func (s *Service) Decrypt(token string, out any) error {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return &DecryptionError{Reason: "invalid token format"}
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return &DecryptionError{Reason: "invalid IV segment", Err: err}
	}
	if len(iv) != ivLength {
		return &DecryptionError{Reason: "invalid IV length"}
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return &DecryptionError{Reason: "invalid auth tag segment", Err: err}
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return &DecryptionError{Reason: "invalid ciphertext segment", Err: err}
	}

	plaintext, err := s.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return &DecryptionError{Reason: "authentication failed", Err: err}
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return &DecryptionError{Reason: "plaintext is not valid JSON", Err: err}
	}
	return nil
}
