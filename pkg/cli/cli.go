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

// Package cli implements sqlpoller-encrypt, the tool that manages the
// encryption password file and encrypts credentials for the agent config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/carverauto/sqlpoller/pkg/secrets"
)

const usage = `Usage: sqlpoller-encrypt <subcommand> [flags] [secret]

Subcommands:
  check      report whether the password file exists and is owner read-only
  generate   create a new password file with a random passphrase
  encrypt    encrypt a secret for use as an ENC(...) config value

Flags:
  -file string   password file (default %q)

The passphrase is read from $%s when set, otherwise from the password file.
encrypt takes the secret from its arguments, from stdin when piped, or
prompts for it.
`

// CmdConfig holds the parsed command line.
type CmdConfig struct {
	SubCmd       string
	PasswordFile string
	Args         []string
}

// SubcommandHandler parses the flags of one subcommand.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

type fileFlagHandler struct {
	name string
}

func (h fileFlagHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := flag.NewFlagSet(h.name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	file := fs.String("file", secrets.DefaultPasswordFile, "password file")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", h.name, err)
	}

	cfg.PasswordFile = *file
	cfg.Args = fs.Args()

	return nil
}

//nolint:gochecknoglobals // fixed subcommand table
var subcommands = map[string]SubcommandHandler{
	"check":    fileFlagHandler{name: "check"},
	"generate": fileFlagHandler{name: "generate"},
	"encrypt":  fileFlagHandler{name: "encrypt"},
}

// ParseFlags parses args, the command line without the program name.
func ParseFlags(args []string) (*CmdConfig, error) {
	if len(args) == 0 {
		return nil, errMissingSubcommand
	}

	cfg := &CmdConfig{SubCmd: args[0]}

	if cfg.SubCmd == "help" || cfg.SubCmd == "-h" || cfg.SubCmd == "--help" {
		cfg.SubCmd = "help"
		return cfg, nil
	}

	handler, ok := subcommands[cfg.SubCmd]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownSubcommand, cfg.SubCmd)
	}

	if err := handler.Parse(args[1:], cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Usage writes the help text.
func Usage(out io.Writer) {
	fmt.Fprintf(out, usage, secrets.DefaultPasswordFile, secrets.PassphraseEnv)
}

// Run executes the parsed subcommand. Secrets are read from in when they are
// not given as arguments.
func Run(cfg *CmdConfig, in *os.File, out io.Writer) error {
	switch cfg.SubCmd {
	case "check":
		return RunCheck(cfg.PasswordFile, out)
	case "generate":
		return RunGenerate(cfg.PasswordFile, out)
	case "encrypt":
		return RunEncrypt(cfg.PasswordFile, cfg.Args, in, out)
	case "help":
		Usage(out)
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownSubcommand, cfg.SubCmd)
	}
}

// RunCheck prints OK, MISSING or INSECURE for the password file. Anything
// but OK is also returned as an error.
func RunCheck(path string, out io.Writer) error {
	status, err := secrets.CheckPasswordFile(path)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, status)

	if status != secrets.StatusOK {
		return fmt.Errorf("%w: %s is %s", errPasswordFileState, path, status)
	}

	return nil
}

// RunGenerate creates the password file. An existing file is left untouched.
func RunGenerate(path string, out io.Writer) error {
	if err := secrets.GeneratePasswordFile(path); err != nil {
		return err
	}

	fmt.Fprintf(out, "Created password file %s\n", path)

	return nil
}

// RunEncrypt prints the ENC(...) form of the secret.
func RunEncrypt(path string, args []string, in *os.File, out io.Writer) error {
	passphrase, err := secrets.Passphrase(path)
	if err != nil {
		return err
	}

	secret, err := readSecret(args, in, out)
	if err != nil {
		return fmt.Errorf("reading secret: %w", err)
	}

	encrypted, err := secrets.EncryptValue(passphrase, secret)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, encrypted)

	return nil
}

func readSecret(args []string, in *os.File, out io.Writer) (string, error) {
	var secret string

	switch {
	case len(args) > 0:
		secret = strings.Join(args, " ")
	case IsTerminal(in):
		fmt.Fprint(out, "Secret: ")

		data, err := term.ReadPassword(int(in.Fd())) //nolint:gosec // fd fits in int
		fmt.Fprintln(out)

		if err != nil {
			return "", err
		}

		secret = string(data)
	default:
		data, err := io.ReadAll(in)
		if err != nil {
			return "", err
		}

		secret = strings.TrimRight(string(data), "\r\n")
	}

	if secret == "" {
		return "", errEmptySecret
	}

	return secret, nil
}

// IsTerminal reports whether f is an interactive terminal rather than a pipe
// or file.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
