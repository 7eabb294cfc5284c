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
	"strings"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"github.com/carverauto/sqlpoller/pkg/dedup"
	"github.com/carverauto/sqlpoller/pkg/models"
)

const snowflakeDomain = ".snowflakecomputing.com"

// Snowflake reaches Snowflake. The host may be a bare account identifier or
// the account's full snowflakecomputing.com host name.
type Snowflake struct{}

func (Snowflake) Name() string { return "Snowflake" }

func (Snowflake) HashMode() dedup.Mode { return dedup.ModeBytes }

func (Snowflake) dataSource(cfg models.ConnectionConfig) (string, error) {
	host := strings.TrimSpace(cfg.Hostname)
	if host == "" {
		return "", errMissingHost
	}

	sfCfg := &gosnowflake.Config{
		Account:  strings.TrimSuffix(host, snowflakeDomain),
		User:     cfg.Username,
		Password: cfg.Password,
		Database: cfg.Database,
	}

	if strings.HasSuffix(host, snowflakeDomain) {
		sfCfg.Host = host
	}

	if cfg.Port != 0 {
		sfCfg.Port = cfg.Port
	}

	if cfg.ConnectTimeout > 0 {
		sfCfg.LoginTimeout = time.Duration(cfg.ConnectTimeout)
	}

	dsn, err := gosnowflake.DSN(sfCfg)
	if err != nil {
		return "", fmt.Errorf("snowflake: %w", err)
	}

	return dsn, nil
}

func (s Snowflake) Open(cfg models.ConnectionConfig) (*sql.DB, error) {
	dsn, err := s.dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("snowflake: %w", err)
	}

	return db, nil
}

func (Snowflake) ErrorCode(err error) (string, bool) {
	var sfErr *gosnowflake.SnowflakeError
	if errors.As(err, &sfErr) {
		return strconv.Itoa(sfErr.Number), true
	}

	return "", false
}
