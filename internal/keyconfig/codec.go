// Package keyconfig serializes managed-key metadata to and from the
// encrypted config column of an integration row. Plaintext key material
// exists only inside this package's callers, never in the store.
package keyconfig

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keywarden/keywarden/internal/secretbox"
)

// ErrDecode is returned when stored config cannot be decrypted or parsed.
// Callers revoking a key must treat this as "revocation metadata
// unavailable" and continue with local cleanup.
var ErrDecode = errors.New("managed key config could not be decoded")

// KeyConfig is the plaintext shape behind Integration.Config.
type KeyConfig struct {
	APIKey       string `json:"apiKey"`
	ManagedKeyID string `json:"managedKeyId"`
	TeamID       string `json:"teamId"`
}

// CanRevoke reports whether the record carries everything needed to
// delete the remote key.
func (k *KeyConfig) CanRevoke() bool {
	return k.ManagedKeyID != "" && k.TeamID != ""
}

// Codec encodes KeyConfig records through the symmetric cipher.
type Codec struct {
	cipher *secretbox.Cipher
}

func NewCodec(cipher *secretbox.Cipher) *Codec {
	return &Codec{cipher: cipher}
}

// Encode serializes and encrypts a record.
func (c *Codec) Encode(config KeyConfig) (string, error) {
	plaintext, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	return c.cipher.Encrypt(string(plaintext))
}

// Decode decrypts and parses a stored config. All failure modes collapse
// into ErrDecode.
func (c *Codec) Decode(ciphertext string) (*KeyConfig, error) {
	plaintext, err := c.cipher.Decrypt(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	var config KeyConfig
	if err := json.Unmarshal([]byte(plaintext), &config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &config, nil
}
