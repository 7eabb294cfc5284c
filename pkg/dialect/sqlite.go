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
	"strings"
	"time"

	"modernc.org/sqlite"

	"github.com/carverauto/sqlpoller/pkg/dedup"
	"github.com/carverauto/sqlpoller/pkg/models"
)

// MemoryHost selects an in-memory SQLite database shared by every connection
// of the process, named after the configured database.
const MemoryHost = "mem"

// SQLite opens embedded SQLite databases. File databases are opened
// read-only. Its driver reports no raw column bytes, so rows are hashed from
// their string rendering.
type SQLite struct{}

func (SQLite) Name() string { return "SQLite" }

func (SQLite) HashMode() dedup.Mode { return dedup.ModeString }

func (SQLite) dataSource(cfg models.ConnectionConfig) (string, error) {
	if strings.TrimSpace(cfg.Database) == "" {
		return "", errMissingDatabase
	}

	query := url.Values{}

	if strings.EqualFold(cfg.Hostname, MemoryHost) {
		query.Set("mode", "memory")
		query.Set("cache", "shared")
	} else {
		query.Set("mode", "ro")
	}

	if cfg.ConnectTimeout > 0 {
		query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", time.Duration(cfg.ConnectTimeout).Milliseconds()))
	}

	return "file:" + cfg.Database + "?" + query.Encode(), nil
}

func (s SQLite) Open(cfg models.ConnectionConfig) (*sql.DB, error) {
	dsn, err := s.dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	return db, nil
}

func (SQLite) ErrorCode(err error) (string, bool) {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return strconv.Itoa(liteErr.Code()), true
	}

	return "", false
}
