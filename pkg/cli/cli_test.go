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

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/sqlpoller/pkg/secrets"
)

func inputFile(t *testing.T, content string) *os.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stdin")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	return f
}

func TestParseFlags(t *testing.T) {
	cfg, err := ParseFlags([]string{"encrypt", "-file", "/tmp/pw", "s3cret", "value"})
	require.NoError(t, err)
	assert.Equal(t, "encrypt", cfg.SubCmd)
	assert.Equal(t, "/tmp/pw", cfg.PasswordFile)
	assert.Equal(t, []string{"s3cret", "value"}, cfg.Args)

	cfg, err = ParseFlags([]string{"check"})
	require.NoError(t, err)
	assert.Equal(t, secrets.DefaultPasswordFile, cfg.PasswordFile)

	cfg, err = ParseFlags([]string{"--help"})
	require.NoError(t, err)
	assert.Equal(t, "help", cfg.SubCmd)

	_, err = ParseFlags(nil)
	require.ErrorIs(t, err, errMissingSubcommand)

	_, err = ParseFlags([]string{"decrypt"})
	require.ErrorIs(t, err, errUnknownSubcommand)

	_, err = ParseFlags([]string{"generate", "-bogus"})
	require.Error(t, err)
}

func TestGenerateThenCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sqlpollerrc")

	var out bytes.Buffer

	err := RunCheck(path, &out)
	require.ErrorIs(t, err, errPasswordFileState)
	assert.Equal(t, "MISSING\n", out.String())

	out.Reset()
	require.NoError(t, Run(&CmdConfig{SubCmd: "generate", PasswordFile: path}, nil, &out))
	assert.Contains(t, out.String(), path)

	out.Reset()
	require.NoError(t, RunCheck(path, &out))
	assert.Equal(t, "OK\n", out.String())

	require.Error(t, RunGenerate(path, &out), "existing file must not be replaced")

	require.NoError(t, os.Chmod(path, 0o600))

	out.Reset()
	require.ErrorIs(t, RunCheck(path, &out), errPasswordFileState)
	assert.Equal(t, "INSECURE\n", out.String())
}

func TestEncryptFromArgs(t *testing.T) {
	t.Setenv(secrets.PassphraseEnv, "correct horse")

	var out bytes.Buffer

	require.NoError(t, Run(&CmdConfig{SubCmd: "encrypt", Args: []string{"db", "password"}}, nil, &out))

	encrypted := strings.TrimSpace(out.String())
	assert.True(t, secrets.IsEncrypted(encrypted))

	plain, err := secrets.DecryptValue("correct horse", encrypted)
	require.NoError(t, err)
	assert.Equal(t, "db password", plain)
}

func TestEncryptFromPipedInput(t *testing.T) {
	t.Setenv(secrets.PassphraseEnv, "correct horse")

	var out bytes.Buffer

	require.NoError(t, RunEncrypt("", nil, inputFile(t, "piped-secret\n"), &out))

	plain, err := secrets.DecryptValue("correct horse", strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "piped-secret", plain)
}

func TestEncryptRejectsEmptySecret(t *testing.T) {
	t.Setenv(secrets.PassphraseEnv, "correct horse")

	err := RunEncrypt("", nil, inputFile(t, "\n"), &bytes.Buffer{})
	require.ErrorIs(t, err, errEmptySecret)
}

func TestEncryptWithoutPassphrase(t *testing.T) {
	t.Setenv(secrets.PassphraseEnv, "")
	require.NoError(t, os.Unsetenv(secrets.PassphraseEnv))

	path := filepath.Join(t.TempDir(), "missing")

	err := RunEncrypt(path, []string{"x"}, nil, &bytes.Buffer{})
	require.Error(t, err)
}

func TestHelp(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, Run(&CmdConfig{SubCmd: "help"}, nil, &out))
	assert.Contains(t, out.String(), secrets.PassphraseEnv)
	assert.False(t, IsTerminal(inputFile(t, "")))
}
