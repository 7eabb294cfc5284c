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
	"strconv"

	"github.com/SAP/go-hdb/driver"

	"github.com/carverauto/sqlpoller/pkg/dedup"
	"github.com/carverauto/sqlpoller/pkg/models"
)

// HANA reaches SAP HANA through go-hdb.
type HANA struct{}

func (HANA) Name() string { return "HANA" }

func (HANA) HashMode() dedup.Mode { return dedup.ModeBytes }

func (HANA) dataSource(cfg models.ConnectionConfig) (string, error) {
	host, err := hostPort(cfg, 30015)
	if err != nil {
		return "", err
	}

	connURL := url.URL{
		Scheme: "hdb",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   host,
	}

	query := url.Values{}
	if cfg.Database != "" {
		query.Set("databaseName", cfg.Database)
	}

	if cfg.ConnectTimeout > 0 {
		query.Set("timeout", timeoutSeconds(cfg))
	}

	if cfg.TLS.Enabled {
		serverName := cfg.TLS.HostnameInCert
		if serverName == "" {
			serverName = cfg.Hostname
		}

		query.Set("TLSServerName", serverName)
		query.Set("TLSInsecureSkipVerify", strconv.FormatBool(cfg.TLS.TrustServerCert))

		if cfg.TLS.TrustStoreLocation != "" {
			query.Set("TLSRootCAFile", cfg.TLS.TrustStoreLocation)
		}
	}

	connURL.RawQuery = query.Encode()

	return connURL.String(), nil
}

func (h HANA) Open(cfg models.ConnectionConfig) (*sql.DB, error) {
	dsn, err := h.dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("hdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("hana: %w", err)
	}

	return db, nil
}

func (HANA) ErrorCode(err error) (string, bool) {
	var hdbErr driver.Error
	if errors.As(err, &hdbErr) {
		return strconv.Itoa(hdbErr.Code()), true
	}

	return "", false
}
