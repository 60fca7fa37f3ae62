package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// KeyFileName is the machine key stored next to the database.
	KeyFileName = "secret.key"

	// Argon2id parameters (RFC 9106 recommendations)
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32 // AES-256

	saltLength = 32
)

// ErrDecrypt is returned when a sealed password cannot be opened with the key.
var ErrDecrypt = errors.New("decryption failed (wrong key or corrupted data)")

// LoadOrCreateKey reads the machine key from dir, generating it on first use.
func LoadOrCreateKey(dir string) (string, error) {
	path := filepath.Join(dir, KeyFileName)

	data, err := os.ReadFile(path)
	if err == nil {
		key := strings.TrimSpace(string(data))
		if key == "" {
			return "", fmt.Errorf("key file %s is empty", path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("read key file: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	key := hex.EncodeToString(raw)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write key file: %w", err)
	}
	return key, nil
}

// SealPassword encrypts password with AES-256-GCM under an Argon2id key derived
// from key. Returns base64(salt || nonce || ciphertext).
func SealPassword(password, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("sealing key required")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(key, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := make([]byte, 0, saltLength+len(nonce)+len(password)+gcm.Overhead())
	sealed = append(sealed, salt...)
	sealed = append(sealed, nonce...)
	sealed = gcm.Seal(sealed, nonce, []byte(password), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenPassword reverses SealPassword.
func OpenPassword(sealed, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("sealing key required")
	}

	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode sealed password: %w", err)
	}

	// salt + GCM nonce (12) + auth tag (16)
	if len(data) < saltLength+12+16 {
		return "", fmt.Errorf("sealed password too short")
	}

	salt := data[:saltLength]
	gcm, err := newGCM(key, salt)
	if err != nil {
		return "", err
	}

	nonce := data[saltLength : saltLength+gcm.NonceSize()]
	ciphertext := data[saltLength+gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}

func newGCM(key string, salt []byte) (cipher.AEAD, error) {
	derived := argon2.IDKey([]byte(key), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// SetPassword stores password in the account section, sealed with key.
// An empty password or RememberPassword=false clears the stored value.
func (c *Config) SetPassword(password, key string) error {
	if !c.Account.RememberPassword || password == "" {
		c.Account.Password = ""
		return nil
	}
	sealed, err := SealPassword(password, key)
	if err != nil {
		return err
	}
	c.Account.Password = sealed
	return nil
}

// GetPassword returns the remembered password, or "" when none is stored.
func (c *Config) GetPassword(key string) (string, error) {
	if c.Account.Password == "" {
		return "", nil
	}
	return OpenPassword(c.Account.Password, key)
}
