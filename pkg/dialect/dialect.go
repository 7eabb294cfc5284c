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

// Package dialect opens database connections for each supported provider and
// classifies provider-specific SQL errors.
package dialect

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/sqlpoller/pkg/dedup"
	"github.com/carverauto/sqlpoller/pkg/models"
)

var (
	errUnknownProvider = errors.New("unknown provider")
	errMissingHost     = errors.New("host is required")
	errMissingDatabase = errors.New("database is required")
	errTrustStore      = errors.New("unable to load trust store")
)

// Dialect knows how to reach one database product.
type Dialect interface {
	// Name is the product name. It doubles as the event type of reported
	// metrics.
	Name() string
	// Open returns a handle for cfg. No connection is made until first use.
	Open(cfg models.ConnectionConfig) (*sql.DB, error)
	// HashMode selects how rows of this product are fingerprinted.
	HashMode() dedup.Mode
	// ErrorCode extracts the vendor error code carried by err.
	ErrorCode(err error) (string, bool)
}

var registry = map[string]Dialect{}

func register(d Dialect, aliases ...string) {
	registry[strings.ToLower(d.Name())] = d

	for _, alias := range aliases {
		registry[strings.ToLower(alias)] = d
	}
}

func init() {
	register(Postgres{}, "postgresql", "pgx")
	register(MySQL{}, "mariadb")
	register(MSSQL{}, "sqlserver")
	register(Oracle{})
	register(Sybase{}, "ase", "tds")
	register(HANA{}, "hdb", "saphana")
	register(Snowflake{})
	register(SQLite{}, "sqlite3", "hsqldb")
}

// Lookup returns the dialect registered for provider, ignoring case.
func Lookup(provider string) (Dialect, error) {
	d, ok := registry[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownProvider, provider)
	}

	return d, nil
}

// IsUnknownProvider reports whether err came from Lookup on an unregistered
// provider.
func IsUnknownProvider(err error) bool {
	return errors.Is(err, errUnknownProvider)
}

// Providers lists every registered provider name and alias.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

// ErrorCode returns the vendor error code of err, or "0" when no dialect
// recognizes it.
func ErrorCode(d Dialect, err error) string {
	if d != nil {
		if code, ok := d.ErrorCode(err); ok {
			return code
		}
	}

	return "0"
}

func hostPort(cfg models.ConnectionConfig, defaultPort int) (string, error) {
	if strings.TrimSpace(cfg.Hostname) == "" {
		return "", errMissingHost
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	return cfg.Hostname + ":" + strconv.Itoa(port), nil
}

func timeoutSeconds(cfg models.ConnectionConfig) string {
	return strconv.Itoa(int(time.Duration(cfg.ConnectTimeout).Seconds()))
}

// buildTLSConfig translates the shared TLS options. It returns nil when TLS is
// disabled. The trust store is read as a PEM bundle.
func buildTLSConfig(opts models.TLSOptions, host string) (*tls.Config, error) {
	if !opts.Enabled {
		return nil, nil
	}

	serverName := opts.HostnameInCert
	if serverName == "" {
		serverName = host
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         serverName,
		InsecureSkipVerify: opts.TrustServerCert, //nolint:gosec // operator opt-in
	}

	if opts.TrustStoreLocation == "" {
		return cfg, nil
	}

	pem, err := os.ReadFile(opts.TrustStoreLocation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errTrustStore, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: no certificates in %s", errTrustStore, opts.TrustStoreLocation)
	}

	cfg.RootCAs = pool

	return cfg, nil
}
