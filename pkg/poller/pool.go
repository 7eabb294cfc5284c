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

package poller

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/carverauto/sqlpoller/pkg/dialect"
	"github.com/carverauto/sqlpoller/pkg/models"
)

type poolKey struct {
	dialect  string
	database string
}

// dbPool shares one *sql.DB per dialect and database among the commands of
// an agent.
type dbPool struct {
	agent *models.AgentConfig

	mu  sync.Mutex
	dbs map[poolKey]*sql.DB
}

func newDBPool(agent *models.AgentConfig) *dbPool {
	return &dbPool{agent: agent, dbs: make(map[poolKey]*sql.DB)}
}

func (p *dbPool) get(d dialect.Dialect, database string) (*sql.DB, error) {
	key := poolKey{dialect: d.Name(), database: database}

	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.dbs[key]; ok {
		return db, nil
	}

	db, err := d.Open(p.agent.Connection(database))
	if err != nil {
		return nil, fmt.Errorf("open %s database %q: %w", d.Name(), database, err)
	}

	p.dbs[key] = db

	return db, nil
}

func (p *dbPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.dbs)
}

func (p *dbPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error

	for key, db := range p.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", key.dialect, key.database, err))
		}
	}

	p.dbs = make(map[poolKey]*sql.DB)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", errClosingHandles, errors.Join(errs...))
	}

	return nil
}
