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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherRoundTrip(t *testing.T) {
	t.Parallel()

	key := make([]byte, keyLength)
	for i := range key {
		key[i] = byte(i)
	}

	c, err := NewCipher(key)
	require.NoError(t, err)

	sealed, err := c.Encrypt([]byte("hunter2"))
	require.NoError(t, err)

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(plain))

	_, err = NewCipher(key[:16])
	require.ErrorIs(t, err, ErrInvalidKeyLength)

	_, err = c.Decrypt("AAAA")
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestEncryptValueRoundTrip(t *testing.T) {
	t.Parallel()

	enc, err := EncryptValue("passphrase", "s3cret")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(enc))
	assert.True(t, strings.HasPrefix(enc, "ENC("))

	other, err := EncryptValue("passphrase", "s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, enc, other, "every value gets its own salt")

	plain, err := DecryptValue("passphrase", enc)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)

	_, err = DecryptValue("wrong", enc)
	require.Error(t, err)
}

func TestDecryptValuePassesPlainText(t *testing.T) {
	t.Parallel()

	plain, err := DecryptValue("", "not encrypted")
	require.NoError(t, err)
	assert.Equal(t, "not encrypted", plain)

	_, err = DecryptValue("p", "ENC(missing-separator)")
	require.ErrorIs(t, err, ErrMalformedValue)

	_, err = EncryptValue("", "x")
	require.ErrorIs(t, err, ErrEmptyPassphrase)
}

func TestCheckPasswordFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPasswordFile)

	status, err := CheckPasswordFile(path)
	require.NoError(t, err)
	assert.Equal(t, StatusMissing, status)

	require.NoError(t, os.WriteFile(path, []byte("encryptionPassword=x\n"), 0o600))

	status, err = CheckPasswordFile(path)
	require.NoError(t, err)
	assert.Equal(t, StatusInsecure, status)
	assert.Equal(t, "INSECURE", status.String())

	require.NoError(t, os.Chmod(path, 0o400))

	status, err = CheckPasswordFile(path)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
}

func TestGeneratePasswordFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultPasswordFile)
	require.NoError(t, GeneratePasswordFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o400), info.Mode().Perm())

	require.Error(t, GeneratePasswordFile(path), "existing files are never replaced")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	key, value, ok := strings.Cut(strings.TrimSpace(string(data)), "=")
	require.True(t, ok)
	assert.Equal(t, "encryptionPassword", key)
	assert.Len(t, value, passwordLength)
}

func TestPassphraseFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPasswordFile)

	t.Setenv(PassphraseEnv, "")
	require.NoError(t, os.Unsetenv(PassphraseEnv))

	_, err := Passphrase(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("# generated\nencryptionPassword=abc=def\n"), 0o400))

	got, err := Passphrase(path)
	require.NoError(t, err)
	assert.Equal(t, "abc=def", got)
}

func TestPassphraseFromEnv(t *testing.T) {
	t.Setenv(PassphraseEnv, "from-env")

	got, err := Passphrase(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}

func TestDecrypterReveal(t *testing.T) {
	t.Setenv(PassphraseEnv, "agent-secret")

	enc, err := EncryptValue("agent-secret", "db-password")
	require.NoError(t, err)

	d := NewDecrypter(filepath.Join(t.TempDir(), "absent"))

	plain, err := d.Reveal(enc)
	require.NoError(t, err)
	assert.Equal(t, "db-password", plain)

	plain, err = d.Reveal("clear")
	require.NoError(t, err)
	assert.Equal(t, "clear", plain)
}
