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
	"net/url"
	"strconv"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/carverauto/sqlpoller/pkg/dedup"
	"github.com/carverauto/sqlpoller/pkg/models"
)

// MSSQL reaches Microsoft SQL Server.
type MSSQL struct{}

func (MSSQL) Name() string { return "MSSQL" }

func (MSSQL) HashMode() dedup.Mode { return dedup.ModeBytes }

func (MSSQL) dataSource(cfg models.ConnectionConfig) (string, error) {
	host, err := hostPort(cfg, 1433)
	if err != nil {
		return "", err
	}

	connectionURL := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   host,
	}

	query := url.Values{}
	if cfg.ConnectTimeout > 0 {
		query.Add("dial timeout", timeoutSeconds(cfg))
		query.Add("connection timeout", timeoutSeconds(cfg))
	}

	if cfg.Database != "" {
		query.Add("database", cfg.Database)
	}

	if cfg.TLS.Enabled {
		query.Add("encrypt", strconv.FormatBool(cfg.TLS.Encrypt || !cfg.TLS.TrustServerCert))
		query.Add("TrustServerCertificate", strconv.FormatBool(cfg.TLS.TrustServerCert))

		if cfg.TLS.HostnameInCert != "" {
			query.Add("hostNameInCertificate", cfg.TLS.HostnameInCert)
		}

		if !cfg.TLS.TrustServerCert && cfg.TLS.TrustStoreLocation != "" {
			query.Add("certificate", cfg.TLS.TrustStoreLocation)
		}
	} else {
		query.Add("encrypt", "disable")
	}

	connectionURL.RawQuery = query.Encode()

	return connectionURL.String(), nil
}

func (m MSSQL) Open(cfg models.ConnectionConfig) (*sql.DB, error) {
	dsn, err := m.dataSource(cfg)
	if err != nil {
		return nil, err
	}

	connector, err := mssql.NewConnector(dsn)
	if err != nil {
		return nil, err
	}

	return sql.OpenDB(connector), nil
}

func (MSSQL) ErrorCode(err error) (string, bool) {
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return strconv.Itoa(int(msErr.SQLErrorNumber())), true
	}

	return "", false
}
