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
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/carverauto/sqlpoller/pkg/dedup"
	"github.com/carverauto/sqlpoller/pkg/models"
)

// MySQL reaches MySQL and MariaDB through go-sql-driver.
type MySQL struct{}

func (MySQL) Name() string { return "MySQL" }

func (MySQL) HashMode() dedup.Mode { return dedup.ModeBytes }

func (MySQL) config(cfg models.ConnectionConfig) (*mysql.Config, error) {
	host, err := hostPort(cfg, 3306)
	if err != nil {
		return nil, err
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = host
	mc.DBName = cfg.Database
	mc.ParseTime = true

	if cfg.ConnectTimeout > 0 {
		mc.Timeout = time.Duration(cfg.ConnectTimeout)
	}

	if cfg.TLS.Enabled {
		mc.TLSConfig = "true"
		if cfg.TLS.TrustServerCert {
			mc.TLSConfig = "skip-verify"
		}

		if cfg.TLS.TrustStoreLocation != "" {
			tlsConfig, err := buildTLSConfig(cfg.TLS, cfg.Hostname)
			if err != nil {
				return nil, fmt.Errorf("mysql: %w", err)
			}

			name := "sqlpoller-" + cfg.Hostname + "-" + strconv.Itoa(cfg.Port)

			if err := mysql.RegisterTLSConfig(name, tlsConfig); err != nil {
				return nil, fmt.Errorf("mysql: failed to register tls config: %w", err)
			}

			mc.TLSConfig = name
		}
	}

	return mc, nil
}

func (m MySQL) Open(cfg models.ConnectionConfig) (*sql.DB, error) {
	mc, err := m.config(cfg)
	if err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql: failed to create connector: %w", err)
	}

	return sql.OpenDB(connector), nil
}

func (MySQL) ErrorCode(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return strconv.Itoa(int(myErr.Number)), true
	}

	return "", false
}
