package store

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// ErrWrongPassphrase is returned when a sealed value cannot be opened.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted credential")

const (
	sealPrefix = "v1:"
	saltSize   = 16
	nonceSize  = 24

	// scrypt parameters recommended for interactive logins.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// Seal encrypts plaintext with a key derived from passphrase. The result is
// "v1:" followed by base64 of salt, nonce and the secretbox.
func Seal(plaintext []byte, passphrase string) (string, error) {
	var salt [saltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	key, err := deriveKey(passphrase, salt[:])
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plaintext)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, plaintext, &nonce, key)
	return sealPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Unseal reverses Seal.
func Unseal(sealed, passphrase string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(sealed, sealPrefix)
	if !ok {
		return nil, fmt.Errorf("unsupported sealed credential format")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sealed credential: %w", err)
	}
	if len(raw) < saltSize+nonceSize+secretbox.Overhead {
		return nil, ErrWrongPassphrase
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[saltSize:saltSize+nonceSize])
	key, err := deriveKey(passphrase, raw[:saltSize])
	if err != nil {
		return nil, err
	}
	plain, ok := secretbox.Open(nil, raw[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrWrongPassphrase
	}
	return plain, nil
}

func deriveKey(passphrase string, salt []byte) (*[32]byte, error) {
	derived, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	var key [32]byte
	copy(key[:], derived)
	return &key, nil
}
