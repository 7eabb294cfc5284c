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

package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/carverauto/sqlpoller/pkg/dedup"
	"github.com/carverauto/sqlpoller/pkg/models"
)

// Postgres reaches PostgreSQL through pgx.
type Postgres struct{}

func (Postgres) Name() string { return "Postgres" }

func (Postgres) HashMode() dedup.Mode { return dedup.ModeBytes }

func (Postgres) dataSource(cfg models.ConnectionConfig) (string, error) {
	host, err := hostPort(cfg, 5432)
	if err != nil {
		return "", err
	}

	if cfg.Database == "" {
		return "", errMissingDatabase
	}

	connURL := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + cfg.Database,
	}

	if cfg.Username != "" {
		if cfg.Password != "" {
			connURL.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			connURL.User = url.User(cfg.Username)
		}
	}

	query := connURL.Query()

	sslMode := "disable"
	if cfg.TLS.Enabled {
		sslMode = "verify-full"
		if cfg.TLS.TrustServerCert {
			sslMode = "require"
		}
	}

	query.Set("sslmode", sslMode)
	query.Set("application_name", "sqlpoller")

	if cfg.ConnectTimeout > 0 {
		query.Set("connect_timeout", timeoutSeconds(cfg))
	}

	connURL.RawQuery = query.Encode()

	return connURL.String(), nil
}

func (p Postgres) Open(cfg models.ConnectionConfig) (*sql.DB, error) {
	dsn, err := p.dataSource(cfg)
	if err != nil {
		return nil, err
	}

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse connection string: %w", err)
	}

	tlsConfig, err := buildTLSConfig(cfg.TLS, cfg.Hostname)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	if tlsConfig != nil {
		connConfig.TLSConfig = tlsConfig
	}

	if cfg.ConnectTimeout > 0 {
		connConfig.ConnectTimeout = time.Duration(cfg.ConnectTimeout)
	}

	return stdlib.OpenDB(*connConfig), nil
}

// ErrorCode returns the SQLSTATE of a server error.
func (Postgres) ErrorCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}

	return "", false
}
