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

package secrets

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"
)

const (
	// PassphraseEnv overrides the password file when set.
	PassphraseEnv = "SQLPOLLER_ENCRYPTION_PASSWORD"
	// DefaultPasswordFile is resolved against the working directory.
	DefaultPasswordFile = ".sqlpollerrc"

	passwordProperty = "encryptionPassword"
	passwordLength   = 64
	passwordChars    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789~`!@#$%^&*()-_=+[{]}\\|;:'\",<.>/?"

	ownerReadOnly os.FileMode = 0o400
)

var (
	errPasswordFileUnusable = errors.New("secrets: password file is missing or not properly secured")
	errPasswordFileEmpty    = errors.New("secrets: password file does not contain a valid password")
)

// FileStatus is the result of CheckPasswordFile.
type FileStatus int

const (
	StatusOK FileStatus = iota
	StatusMissing
	StatusInsecure
)

func (s FileStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusMissing:
		return "MISSING"
	case StatusInsecure:
		return "INSECURE"
	default:
		return fmt.Sprintf("FileStatus(%d)", int(s))
	}
}

// CheckPasswordFile reports whether path exists and is readable by its owner
// only.
func CheckPasswordFile(path string) (FileStatus, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return StatusMissing, nil
	}

	if err != nil {
		return StatusMissing, fmt.Errorf("secrets: stat password file: %w", err)
	}

	if info.Mode().Perm() != ownerReadOnly {
		return StatusInsecure, nil
	}

	return StatusOK, nil
}

// GeneratePassword returns a random 64 character passphrase.
func GeneratePassword() (string, error) {
	var b strings.Builder

	b.Grow(passwordLength)

	limit := big.NewInt(int64(len(passwordChars)))

	for i := 0; i < passwordLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("secrets: generate password: %w", err)
		}

		b.WriteByte(passwordChars[n.Int64()])
	}

	return b.String(), nil
}

// GeneratePasswordFile writes a new random passphrase to path and restricts
// it to owner read. An existing file is never overwritten.
func GeneratePasswordFile(path string) error {
	password, err := GeneratePassword()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("secrets: create password file: %w", err)
	}

	if _, err := fmt.Fprintf(f, "%s=%s\n", passwordProperty, password); err != nil {
		_ = f.Close()
		return fmt.Errorf("secrets: write password file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("secrets: close password file: %w", err)
	}

	if err := os.Chmod(path, ownerReadOnly); err != nil {
		return fmt.Errorf("secrets: secure password file: %w", err)
	}

	return nil
}

// Passphrase returns the encryption passphrase from PassphraseEnv, or else
// from the password file at path, which must pass CheckPasswordFile.
func Passphrase(path string) (string, error) {
	if v, ok := os.LookupEnv(PassphraseEnv); ok {
		return v, nil
	}

	status, err := CheckPasswordFile(path)
	if err != nil {
		return "", err
	}

	if status != StatusOK {
		return "", fmt.Errorf("%w: %s (%s)", errPasswordFileUnusable, path, status)
	}

	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return "", fmt.Errorf("secrets: open password file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(key) == passwordProperty && strings.TrimSpace(value) != "" {
			return value, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("secrets: read password file: %w", err)
	}

	return "", fmt.Errorf("%w: %s", errPasswordFileEmpty, path)
}

// Decrypter reveals ENC(...) values, resolving the passphrase on first use so
// configurations without encrypted values never need one.
type Decrypter struct {
	path string

	once       sync.Once
	passphrase string
	err        error
}

// NewDecrypter returns a Decrypter reading its passphrase from path when the
// environment does not supply one.
func NewDecrypter(path string) *Decrypter {
	if path == "" {
		path = DefaultPasswordFile
	}

	return &Decrypter{path: path}
}

// Reveal returns value unchanged unless it is encrypted.
func (d *Decrypter) Reveal(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}

	d.once.Do(func() {
		d.passphrase, d.err = Passphrase(d.path)
	})

	if d.err != nil {
		return "", d.err
	}

	return DecryptValue(d.passphrase, value)
}
