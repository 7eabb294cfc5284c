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

// Package command runs one configured query per poll cycle and aggregates its
// rows into metric, inventory or raw results.
package command

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/sqlpoller/pkg/dedup"
	"github.com/carverauto/sqlpoller/pkg/dialect"
	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/parser"
)

const (
	defaultDatabase = "UnknownDatabase"
	defaultTable    = "Unknown Table"

	tracerName = "github.com/carverauto/sqlpoller/pkg/command"
)

var (
	errMissingDialect = errors.New("dialect is required")
	errMissingDB      = errors.New("database handle is required")
)

// Config wires a command definition to its collaborators.
type Config struct {
	Definition models.CommandDefinition
	Dialect    dialect.Dialect
	DB         *sql.DB
	// Host is reported as the databaseHost attribute.
	Host    string
	Parsers *parser.Registry
	Logger  logger.Logger
}

// Command is one configured query together with the state it keeps between
// polls: its dedup cache, incremental parameters and parser.
//
// A Command must not be polled by more than one goroutine at a time.
type Command struct {
	name        string
	provider    string
	database    string
	query       string
	queryType   models.QueryType
	prefix      string
	metricType  string
	eventType   string
	host        string
	deduplicate bool

	tableName string

	dialect dialect.Dialect
	db      *sql.DB
	parser  parser.Parser
	params  *ParamState
	cache   *dedup.Cache
	hasher  dedup.Hasher
	logger  logger.Logger
	tracer  trace.Tracer
}

// New validates cfg.Definition and builds the command.
func New(cfg Config) (*Command, error) {
	def := cfg.Definition
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("command %q: %w", def.Name, err)
	}

	if cfg.Dialect == nil {
		return nil, fmt.Errorf("command %q: %w", def.Name, errMissingDialect)
	}

	if cfg.DB == nil {
		return nil, fmt.Errorf("command %q: %w", def.Name, errMissingDB)
	}

	queryType, _ := models.ParseQueryType(*def.Type)

	registry := cfg.Parsers
	if registry == nil {
		registry = parser.NewRegistry()
	}

	c := &Command{
		name:        def.Name,
		provider:    def.Provider,
		database:    *def.Database,
		query:       *def.Query,
		queryType:   queryType,
		prefix:      models.DefaultPrefix,
		metricType:  def.MetricType,
		eventType:   def.EventType,
		host:        cfg.Host,
		deduplicate: def.Deduplicate,
		dialect:     cfg.Dialect,
		db:          cfg.DB,
		params:      NewParamState(def.QueryOptions),
		logger:      cfg.Logger,
		tracer:      logger.GetTracer(tracerName),
	}

	if def.Prefix != nil {
		c.prefix = *def.Prefix
	}

	if c.eventType == "" {
		c.eventType = def.Provider
	}

	c.parser = registry.Resolve(def.Parser, def.ParserOptions, cfg.Logger)

	if c.deduplicate {
		history := def.UniqueHistorySize
		if history <= 0 {
			history = models.DefaultUniqueHistorySize
		}

		buffer := def.RowBufferSize
		if buffer <= 0 {
			buffer = models.DefaultRowBufferSize
		}

		c.cache = dedup.NewCache(history)
		c.hasher = dedup.NewHasher(cfg.Dialect.HashMode(), buffer)
	}

	return c, nil
}

// Name returns the configured command name.
func (c *Command) Name() string { return c.name }

func (c *Command) Provider() string { return c.provider }

func (c *Command) Query() string { return c.query }

func (c *Command) QueryType() models.QueryType { return c.queryType }

func (c *Command) Dialect() dialect.Dialect { return c.dialect }

// Params exposes the incremental query state.
func (c *Command) Params() *ParamState { return c.params }

// Cache returns the dedup cache, or nil when deduplication is off.
func (c *Command) Cache() *dedup.Cache { return c.cache }

// Database returns the configured database name, or a placeholder when none
// was given.
func (c *Command) Database() string {
	if c.database == "" {
		return defaultDatabase
	}

	return c.database
}

// TableName returns the table captured by the last poll, or a placeholder.
func (c *Command) TableName() string {
	if c.tableName == "" {
		return defaultTable
	}

	return c.tableName
}

// InventoryPath is the lower-cased prefix/database/table key of inventory
// results.
func (c *Command) InventoryPath() string {
	return strings.ToLower(c.prefix + "/" + c.Database() + "/" + c.TableName())
}

// Identity is the command state that default attributes are derived from.
type Identity struct {
	EventType string
	Database  string
	Name      string
	Query     string
	Host      string
	// Table is empty until a poll has captured it.
	Table string
}

func (c *Command) identity(withTable bool) Identity {
	id := Identity{
		EventType: c.eventType,
		Database:  c.Database(),
		Name:      c.name,
		Query:     c.query,
		Host:      c.host,
	}

	if withTable {
		id.Table = c.TableName()
	}

	return id
}

// DefaultAttributes returns the attributes attached to every metric row of a
// command.
func DefaultAttributes(id Identity) models.MetricRow {
	row := models.MetricRow{
		models.NewAttribute("event_type", id.EventType),
		models.NewAttribute("database", id.Database),
		models.NewAttribute("queryName", id.Name),
		models.NewAttribute("query", id.Query),
		models.NewAttribute("databaseHost", id.Host),
	}

	if id.Table != "" {
		row = append(row, models.NewAttribute("tableName", id.Table))
	}

	return row
}

// EntityKey identifies the command's metric stream to a reporter.
func (c *Command) EntityKey(agentName string) string {
	return agentName + "_" + c.name + "_" + c.provider + "_" + c.query
}
