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
	"strconv"

	go_ora "github.com/sijms/go-ora/v2"
	"github.com/sijms/go-ora/v2/network"

	"github.com/carverauto/sqlpoller/pkg/dedup"
	"github.com/carverauto/sqlpoller/pkg/models"
)

// Oracle reaches Oracle Database through the pure Go go-ora driver. The
// configured database is the service name.
type Oracle struct{}

func (Oracle) Name() string { return "Oracle" }

func (Oracle) HashMode() dedup.Mode { return dedup.ModeBytes }

func (Oracle) dataSource(cfg models.ConnectionConfig) (string, error) {
	if cfg.Hostname == "" {
		return "", errMissingHost
	}

	if cfg.Database == "" {
		return "", errMissingDatabase
	}

	port := cfg.Port
	if port == 0 {
		port = 1521
	}

	options := map[string]string{}

	if cfg.ConnectTimeout > 0 {
		options["CONNECTION TIMEOUT"] = timeoutSeconds(cfg)
	}

	if cfg.TLS.Enabled {
		options["SSL"] = "enable"
		options["SSL VERIFY"] = strconv.FormatBool(!cfg.TLS.TrustServerCert)

		if cfg.TLS.TrustStoreLocation != "" {
			options["WALLET"] = cfg.TLS.TrustStoreLocation
		}

		if cfg.TLS.TrustStorePassword != "" {
			options["WALLET PASSWORD"] = cfg.TLS.TrustStorePassword
		}
	}

	return go_ora.BuildUrl(cfg.Hostname, port, cfg.Database, cfg.Username, cfg.Password, options), nil
}

func (o Oracle) Open(cfg models.ConnectionConfig) (*sql.DB, error) {
	dsn, err := o.dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}

	return db, nil
}

func (Oracle) ErrorCode(err error) (string, bool) {
	var oraErr *network.OracleError
	if errors.As(err, &oraErr) {
		return strconv.Itoa(oraErr.ErrCode), true
	}

	return "", false
}
