package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"scout/internal/domain"
)

// KeyEnv names the environment variable holding the passphrase for "enc:"
// values in the config file.
const KeyEnv = "SCOUT_CONFIG_KEY"

const (
	encPrefix = "enc:"
	saltLen   = 16
)

// decryptSecrets replaces every "enc:" secret field with its plaintext.
func decryptSecrets(cfg *Config, key string) error {
	fields := []struct {
		name string
		val  *string
	}{
		{"llm.api_key", &cfg.LLM.APIKey},
		{"tools.search.tavily_api_key", &cfg.Tools.Search.TavilyAPIKey},
	}
	for _, f := range fields {
		sealed, ok := strings.CutPrefix(*f.val, encPrefix)
		if !ok {
			continue
		}
		plain, err := DecryptValue(sealed, key)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.val = plain
	}
	return nil
}

// EncryptValue seals plaintext with AES-256-GCM under a key stretched from
// passphrase by Argon2id. The result reads "hex(salt):hex(nonce|ciphertext)"
// and goes into the config file behind an "enc:" prefix.
func EncryptValue(plaintext, passphrase string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	aead, err := aeadFor(passphrase, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(sealed), nil
}

// DecryptValue opens a value produced by EncryptValue. Every failure wraps
// domain.ErrDecryption.
func DecryptValue(encrypted, passphrase string) (string, error) {
	saltHex, dataHex, ok := strings.Cut(encrypted, ":")
	if !ok {
		return "", fmt.Errorf("%w: want salt:ciphertext", domain.ErrDecryption)
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("%w: salt: %w", domain.ErrDecryption, err)
	}
	data, err := hex.DecodeString(dataHex)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %w", domain.ErrDecryption, err)
	}

	aead, err := aeadFor(passphrase, salt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrDecryption, err)
	}
	n := aead.NonceSize()
	if len(data) < n {
		return "", fmt.Errorf("%w: ciphertext too short", domain.ErrDecryption)
	}
	plain, err := aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: wrong key or corrupted value", domain.ErrDecryption)
	}
	return string(plain), nil
}

func aeadFor(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
