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

	"github.com/thda/tds"

	"github.com/carverauto/sqlpoller/pkg/dedup"
	"github.com/carverauto/sqlpoller/pkg/models"
)

// Sybase reaches SAP ASE over TDS.
type Sybase struct{}

func (Sybase) Name() string { return "Sybase" }

func (Sybase) HashMode() dedup.Mode { return dedup.ModeBytes }

func (Sybase) dataSource(cfg models.ConnectionConfig) (string, error) {
	host, err := hostPort(cfg, 5000)
	if err != nil {
		return "", err
	}

	connURL := url.URL{
		Scheme: "tds",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   host,
		Path:   "/" + cfg.Database,
	}

	query := url.Values{}
	query.Set("charset", "utf8")

	if cfg.TLS.Enabled || cfg.TLS.Encrypt {
		query.Set("encryptPassword", "yes")
	}

	if cfg.ConnectTimeout > 0 {
		query.Set("loginTimeout", timeoutSeconds(cfg))
	}

	connURL.RawQuery = query.Encode()

	return connURL.String(), nil
}

func (s Sybase) Open(cfg models.ConnectionConfig) (*sql.DB, error) {
	dsn, err := s.dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("tds", dsn)
	if err != nil {
		return nil, fmt.Errorf("sybase: %w", err)
	}

	return db, nil
}

func (Sybase) ErrorCode(err error) (string, bool) {
	var sybErr *tds.SybError
	if errors.As(err, &sybErr) {
		return strconv.Itoa(int(sybErr.MsgNumber)), true
	}

	return "", false
}
