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

package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/secrets"
)

// Revealer decrypts configuration values.
type Revealer interface {
	Reveal(value string) (string, error)
}

// LoadAgent loads and validates the agent configuration at path and decrypts
// its credentials. A relative inputfile is resolved against the directory of
// path.
func (c *Config) LoadAgent(ctx context.Context, path string) (*models.AgentConfig, error) {
	var cfg models.AgentConfig

	if err := c.LoadAndValidate(ctx, path, &cfg); err != nil {
		return nil, err
	}

	if path != "" && !filepath.IsAbs(cfg.InputFile) {
		cfg.InputFile = filepath.Join(filepath.Dir(path), cfg.InputFile)
	}

	if err := RevealSecrets(&cfg, secrets.NewDecrypter(cfg.PasswordFile)); err != nil {
		return nil, err
	}

	if c.logger != nil {
		if data, err := Redact(&cfg); err == nil {
			c.logger.Debug().RawJSON("config", data).Msg("Loaded agent configuration")
		}
	}

	return &cfg, nil
}

// RevealSecrets replaces the encrypted credentials of cfg with their
// plaintext.
func RevealSecrets(cfg *models.AgentConfig, r Revealer) error {
	password, err := r.Reveal(cfg.Password)
	if err != nil {
		return fmt.Errorf("unable to decrypt password for agent %q: %w", cfg.Name, err)
	}

	trustStorePassword, err := r.Reveal(cfg.TLS.TrustStorePassword)
	if err != nil {
		return fmt.Errorf("unable to decrypt trust store password for agent %q: %w", cfg.Name, err)
	}

	cfg.Password = password
	cfg.TLS.TrustStorePassword = trustStorePassword

	return nil
}
