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
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/sqlpoller/pkg/dedup"
	"github.com/carverauto/sqlpoller/pkg/models"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Postgres":  "Postgres",
		"postgres":  "Postgres",
		"MySQL":     "MySQL",
		"MSSQL":     "MSSQL",
		"sqlserver": "MSSQL",
		"oracle":    "Oracle",
		"Sybase":    "Sybase",
		"hana":      "HANA",
		"snowflake": "Snowflake",
		"HSQLDB":    "SQLite",
	}

	for provider, want := range tests {
		d, err := Lookup(provider)
		require.NoError(t, err, provider)
		assert.Equal(t, want, d.Name())
	}

	_, err := Lookup("DB2")
	require.Error(t, err)
	assert.True(t, IsUnknownProvider(err))
	assert.Contains(t, Providers(), "postgres")
}

func TestHashModes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, dedup.ModeString, SQLite{}.HashMode())
	assert.Equal(t, dedup.ModeBytes, Postgres{}.HashMode())
}

func TestPostgresDataSource(t *testing.T) {
	t.Parallel()

	dsn, err := Postgres{}.dataSource(models.ConnectionConfig{
		Hostname:       "db.local",
		Database:       "inventory",
		Username:       "reader",
		Password:       "p@ss",
		ConnectTimeout: models.Duration(5 * time.Second),
	})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db.local:5432", u.Host)
	assert.Equal(t, "/inventory", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "5", u.Query().Get("connect_timeout"))

	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss", pass)

	dsn, err = Postgres{}.dataSource(models.ConnectionConfig{
		Hostname: "db.local",
		Port:     6432,
		Database: "inventory",
		TLS:      models.TLSOptions{Enabled: true, TrustServerCert: true},
	})
	require.NoError(t, err)
	assert.Contains(t, dsn, "db.local:6432")
	assert.Contains(t, dsn, "sslmode=require")

	_, err = Postgres{}.dataSource(models.ConnectionConfig{Hostname: "db.local"})
	require.ErrorIs(t, err, errMissingDatabase)
}

func TestMSSQLDataSource(t *testing.T) {
	t.Parallel()

	dsn, err := MSSQL{}.dataSource(models.ConnectionConfig{
		Hostname: "sql01",
		Database: "master",
		Username: "sa",
		Password: "secret",
		TLS: models.TLSOptions{
			Enabled:        true,
			Encrypt:        true,
			HostnameInCert: "*.corp",
		},
	})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", u.Scheme)
	assert.Equal(t, "sql01:1433", u.Host)
	assert.Equal(t, "master", u.Query().Get("database"))
	assert.Equal(t, "true", u.Query().Get("encrypt"))
	assert.Equal(t, "false", u.Query().Get("TrustServerCertificate"))
	assert.Equal(t, "*.corp", u.Query().Get("hostNameInCertificate"))
}

func TestMySQLConfig(t *testing.T) {
	t.Parallel()

	mc, err := MySQL{}.config(models.ConnectionConfig{
		Hostname: "mysql01",
		Database: "app",
		Username: "root",
		TLS:      models.TLSOptions{Enabled: true, TrustServerCert: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "mysql01:3306", mc.Addr)
	assert.Equal(t, "skip-verify", mc.TLSConfig)
	assert.Equal(t, "app", mc.DBName)

	_, err = MySQL{}.config(models.ConnectionConfig{})
	require.ErrorIs(t, err, errMissingHost)
}

func TestOtherDataSources(t *testing.T) {
	t.Parallel()

	cfg := models.ConnectionConfig{Hostname: "h", Database: "d", Username: "u", Password: "p"}

	dsn, err := Sybase{}.dataSource(cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "tds://u:p@h:5000/d?"), dsn)

	dsn, err = HANA{}.dataSource(cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "hdb://u:p@h:30015?"), dsn)
	assert.Contains(t, dsn, "databaseName=d")

	dsn, err = Oracle{}.dataSource(cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "oracle://"), dsn)
	assert.Contains(t, dsn, "h:1521/d")

	dsn, err = SQLite{}.dataSource(models.ConnectionConfig{Hostname: MemoryHost, Database: "poll"})
	require.NoError(t, err)
	assert.Equal(t, "file:poll?cache=shared&mode=memory", dsn)

	dsn, err = SQLite{}.dataSource(models.ConnectionConfig{Database: "/var/lib/app.db"})
	require.NoError(t, err)
	assert.Equal(t, "file:/var/lib/app.db?mode=ro", dsn)
}

func TestErrorCodes(t *testing.T) {
	t.Parallel()

	wrapped := func(err error) error { return fmt.Errorf("query failed: %w", err) }

	code, ok := Postgres{}.ErrorCode(wrapped(&pgconn.PgError{Code: "42P01", Message: "relation does not exist"}))
	require.True(t, ok)
	assert.Equal(t, "42P01", code)

	code, ok = MySQL{}.ErrorCode(wrapped(&mysql.MySQLError{Number: 1146, Message: "no such table"}))
	require.True(t, ok)
	assert.Equal(t, "1146", code)

	code, ok = MSSQL{}.ErrorCode(wrapped(mssql.Error{Number: 208, Message: "Invalid object name"}))
	require.True(t, ok)
	assert.Equal(t, "208", code)

	_, ok = Postgres{}.ErrorCode(errors.New("dial tcp: connection refused"))
	assert.False(t, ok)
	assert.Equal(t, "0", ErrorCode(Postgres{}, errors.New("dial tcp: connection refused")))
	assert.Equal(t, "0", ErrorCode(nil, errors.New("boom")))
}

func TestSQLiteOpenAndErrorCode(t *testing.T) {
	t.Parallel()

	db, err := SQLite{}.Open(models.ConnectionConfig{Hostname: MemoryHost, Database: "dialect_test"})
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT 1").Scan(&n))
	assert.Equal(t, 1, n)

	_, err = db.ExecContext(context.Background(), "SELECT * FROM no_such_table")
	require.Error(t, err)
	assert.NotEqual(t, "0", ErrorCode(SQLite{}, err))
}

func TestBuildTLSConfig(t *testing.T) {
	t.Parallel()

	cfg, err := buildTLSConfig(models.TLSOptions{}, "h")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = buildTLSConfig(models.TLSOptions{Enabled: true, HostnameInCert: "db.corp"}, "h")
	require.NoError(t, err)
	assert.Equal(t, "db.corp", cfg.ServerName)
	assert.False(t, cfg.InsecureSkipVerify)

	_, err = buildTLSConfig(models.TLSOptions{Enabled: true, TrustStoreLocation: "/nonexistent/ca.pem"}, "h")
	require.ErrorIs(t, err, errTrustStore)

	empty := filepath.Join(t.TempDir(), "empty.pem")
	require.NoError(t, os.WriteFile(empty, []byte("not a cert"), 0o600))

	_, err = buildTLSConfig(models.TLSOptions{Enabled: true, TrustStoreLocation: empty}, "h")
	require.ErrorIs(t, err, errTrustStore)
}
