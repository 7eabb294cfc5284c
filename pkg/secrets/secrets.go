/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package secrets encrypts configuration values such as database passwords.
// Encrypted values are written as ENC(<salt>.<ciphertext>) and decrypted with
// a passphrase taken from the environment or an owner-read-only password file.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	keyLength   = 32
	nonceLength = 12
	saltLength  = 16

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1

	encPrefix = "ENC("
	encSuffix = ")"
)

var (
	// ErrInvalidKeyLength indicates the provided key is not the required size.
	ErrInvalidKeyLength = errors.New("secrets: encryption key must be 32 bytes")
	// ErrCiphertextTooShort indicates the ciphertext payload is shorter than the nonce.
	ErrCiphertextTooShort = errors.New("secrets: ciphertext too short")
	// ErrMalformedValue indicates an ENC(...) value that cannot be split into salt and ciphertext.
	ErrMalformedValue = errors.New("secrets: malformed encrypted value")
	// ErrEmptyPassphrase is returned when no usable passphrase was supplied.
	ErrEmptyPassphrase = errors.New("secrets: empty passphrase")
)

// Cipher wraps AES-GCM helpers for encrypting sensitive values.
type Cipher struct {
	key []byte
}

// NewCipher constructs a Cipher from the provided key bytes.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != keyLength {
		return nil, ErrInvalidKeyLength
	}

	buf := make([]byte, keyLength)
	copy(buf, key)

	return &Cipher{key: buf}, nil
}

// DeriveKey stretches passphrase into an AES-256 key with scrypt.
func DeriveKey(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("secrets: derive key: %w", err)
	}

	return key, nil
}

func (c *Cipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("secrets: create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets: init gcm: %w", err)
	}

	return gcm, nil
}

// Encrypt seals plaintext using AES-256-GCM and returns a base64 payload.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrets: generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt and returns the original plaintext bytes.
func (c *Cipher) Decrypt(encoded string) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("secrets: decode ciphertext: %w", err)
	}

	if len(payload) < nonceLength {
		return nil, ErrCiphertextTooShort
	}

	gcm, err := c.gcm()
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, payload[:nonceLength], payload[nonceLength:], nil)
	if err != nil {
		return nil, fmt.Errorf("secrets: decrypt payload: %w", err)
	}

	return plaintext, nil
}

// IsEncrypted reports whether value uses the ENC(...) convention.
func IsEncrypted(value string) bool {
	value = strings.TrimSpace(value)
	return strings.HasPrefix(value, encPrefix) && strings.HasSuffix(value, encSuffix)
}

// EncryptValue encrypts plaintext under passphrase and wraps it as ENC(...).
// Every call uses a fresh salt, so equal inputs give different outputs.
func EncryptValue(passphrase, plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("secrets: generate salt: %w", err)
	}

	c, err := cipherFor(passphrase, salt)
	if err != nil {
		return "", err
	}

	sealed, err := c.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}

	return encPrefix + base64.StdEncoding.EncodeToString(salt) + "." + sealed + encSuffix, nil
}

// DecryptValue returns the plaintext of an ENC(...) value. Values without
// the wrapper are returned unchanged.
func DecryptValue(passphrase, value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}

	value = strings.TrimSpace(value)
	inner := value[len(encPrefix) : len(value)-len(encSuffix)]

	saltPart, sealed, ok := strings.Cut(inner, ".")
	if !ok {
		return "", ErrMalformedValue
	}

	salt, err := base64.StdEncoding.DecodeString(saltPart)
	if err != nil || len(salt) != saltLength {
		return "", ErrMalformedValue
	}

	c, err := cipherFor(passphrase, salt)
	if err != nil {
		return "", err
	}

	plaintext, err := c.Decrypt(sealed)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

func cipherFor(passphrase string, salt []byte) (*Cipher, error) {
	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	return NewCipher(key)
}
