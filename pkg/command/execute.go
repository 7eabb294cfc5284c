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

package command

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/sqlpoller/pkg/dialect"
	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/parser"
	"github.com/carverauto/sqlpoller/pkg/rowset"
)

type rowStats struct {
	parsed     int
	total      int
	duplicates int
}

// Seed runs the initial query if it has not run yet and stores the first
// row's parameter values. The initial query never runs twice, even when it
// fails or returns no rows. Seed reports whether parameters were stored.
func (c *Command) Seed(ctx context.Context) bool {
	if !c.params.NeedsSeed() {
		return false
	}

	c.logger.Debug().Str("command", c.name).Str("query", c.params.InitialQuery()).Msg("Making initial query")

	result := c.run(ctx, models.QueryTypeRaw, c.params.InitialQuery())
	c.params.MarkConsumed()

	if len(result.Raw) == 0 {
		c.logger.Warn().Str("command", c.name).Msg("Initial query returned no rows, parameters left unset")
		return false
	}

	c.params.Update(result.Raw[0], c.logger)

	return true
}

// Execute runs one poll cycle of the command's configured query type.
func (c *Command) Execute(ctx context.Context) *Result {
	c.Seed(ctx)

	return c.run(ctx, c.queryType, c.query)
}

// ExecuteMetric runs the query and returns its metric rows.
func (c *Command) ExecuteMetric(ctx context.Context) []models.MetricRow {
	c.Seed(ctx)

	return c.run(ctx, models.QueryTypeMetric, c.query).Metrics
}

// ExecuteInventory runs the query and returns its inventory mappings.
func (c *Command) ExecuteInventory(ctx context.Context) map[string]map[string]string {
	c.Seed(ctx)

	return c.run(ctx, models.QueryTypeInventory, c.query).Inventory
}

// ExecuteRaw runs the query and returns its raw rows.
func (c *Command) ExecuteRaw(ctx context.Context) []map[string]interface{} {
	c.Seed(ctx)

	return c.run(ctx, models.QueryTypeRaw, c.query).Raw
}

// run executes query once. SQL failures never escape: they replace the result
// with a single diagnostic metric row. Other failures are logged and the rows
// gathered so far are returned.
func (c *Command) run(ctx context.Context, kind models.QueryType, query string) *Result {
	result := NewResult()
	attrs := DefaultAttributes(c.identity(false))

	ctx, span := c.tracer.Start(ctx, logger.PollSpanName(c.provider, c.name), trace.WithAttributes(
		attribute.String(logger.AttrCommand, c.name),
		attribute.String(logger.AttrProvider, c.provider),
		attribute.String("sqlpoller.query_type", string(kind)),
		attribute.String(logger.AttrStatement, query),
	))
	defer span.End()

	var (
		conn  *sql.Conn
		stmt  *sql.Stmt
		rows  *sql.Rows
		stats rowStats
	)

	defer func() { c.release(stmt, rows, conn) }()

	sqlFailure := func(err error) *Result {
		c.logger.Error().Err(err).Str("command", c.name).Str("query", query).Msg("SQL error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "sql error")

		return c.errorResult(attrs, err)
	}

	otherFailure := func(err error) {
		c.logger.Error().Err(err).Str("command", c.name).Msg("Poll cycle failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	var err error

	if conn, err = c.db.Conn(ctx); err != nil {
		return sqlFailure(err)
	}

	statement := &parser.Statement{Query: query, Args: c.params.Args()}

	if err = c.parser.BeforeQuery(ctx); err != nil {
		otherFailure(fmt.Errorf("before query hook: %w", err))
		return result
	}

	if c.parser.IsStateful() {
		if err = c.parser.PrepareStatement(statement); err != nil {
			otherFailure(fmt.Errorf("prepare statement hook: %w", err))
			return result
		}
	}

	if stmt, err = conn.PrepareContext(ctx, statement.Query); err != nil {
		return sqlFailure(err)
	}

	c.logger.Debug().Str("command", c.name).Str("query", statement.Query).
		Int("args", len(statement.Args)).Msg("Executing statement")

	if rows, err = stmt.QueryContext(ctx, statement.Args...); err != nil {
		return sqlFailure(err)
	}

	cursor, err := rowset.Open(rows)
	if err != nil {
		return sqlFailure(err)
	}

	c.tableName = TableName(statement.Query)
	attrs = DefaultAttributes(c.identity(true))

	for cursor.Next() {
		c.processRow(cursor, kind, attrs, result, &stats)
	}

	if err = cursor.Err(); err != nil {
		return sqlFailure(err)
	}

	if c.params.Tracked() {
		if last, ok := cursor.Last(); ok {
			if values, err := c.parser.ParseRawRow(last); err != nil {
				c.logger.Error().Err(err).Str("command", c.name).Msg("Unable to read query parameters from last row")
			} else {
				c.params.Update(values, c.logger)
			}
		}
	}

	if err = c.parser.AfterQuery(ctx); err != nil {
		otherFailure(fmt.Errorf("after query hook: %w", err))
	}

	span.SetAttributes(
		attribute.Int("sqlpoller.rows_total", stats.total),
		attribute.Int("sqlpoller.rows_parsed", stats.parsed),
		attribute.Int("sqlpoller.duplicates", stats.duplicates),
	)

	c.logger.Info().
		Str("command", c.name).
		Int("rows_parsed", stats.parsed).
		Int("rows_total", stats.total).
		Int("duplicates", stats.duplicates).
		Msg("Successfully parsed rows")

	return result
}

// processRow handles the cursor's current row. Every row counts toward the
// total; a row that fails to scan or parse is skipped.
func (c *Command) processRow(cursor *rowset.Cursor, kind models.QueryType, attrs models.MetricRow, result *Result, stats *rowStats) {
	stats.total++

	row, err := cursor.Scan()
	if err != nil {
		c.logger.Error().Err(err).Str("command", c.name).Msg("Failed to read row, skipping")
		return
	}

	var hash string

	if c.deduplicate {
		hash, err = c.hasher.Hash(row)
		if err != nil {
			c.logger.Error().Err(err).Str("command", c.name).Int("row", row.Number).Msg("Unable to check row for duplicate")

			hash = ""
		} else if c.cache.Observe(hash) {
			count, _ := c.cache.Count(hash)

			c.logger.Debug().
				Str("command", c.name).
				Str("hash", hash).
				Int("count", count).
				Msg("Found duplicate row")

			stats.duplicates++

			return
		}
	}

	var added bool

	switch kind {
	case models.QueryTypeMetric:
		var metrics models.MetricRow

		if metrics, err = c.parser.ParseMetricRow(c.metricType, row); err == nil && len(metrics) > 0 {
			added = result.AddMetric(append(metrics, attrs...))
		}
	case models.QueryTypeInventory:
		var inventory map[string]string

		if inventory, err = c.parser.ParseInventoryRow(row); err == nil {
			added = result.AddInventory(c.InventoryPath(), inventory)
		}
	case models.QueryTypeRaw:
		var raw map[string]interface{}

		if raw, err = c.parser.ParseRawRow(row); err == nil {
			added = result.AddRaw(raw)
		}
	}

	if err != nil {
		c.logger.Error().Err(err).Str("command", c.name).Int("row", row.Number).Msg("Failed to parse row, skipping")
		return
	}

	if added {
		stats.parsed++
	}

	if hash != "" {
		c.cache.Insert(hash)
	}
}

// errorResult is the single metric row reported for a failed cycle.
func (c *Command) errorResult(attrs models.MetricRow, err error) *Result {
	sqlErr := &SQLError{Code: dialect.ErrorCode(c.dialect, err), Message: err.Error(), Err: err}

	row := make(models.MetricRow, 0, len(attrs)+2)
	row = append(row, attrs...)
	row = append(row,
		models.NewAttribute("errorCode", sqlErr.Code),
		models.NewAttribute("errorMessage", sqlErr.Message),
	)

	result := NewResult()
	result.AddMetric(row)
	result.Err = sqlErr

	return result
}

// resource is something a poll cycle must close before it returns.
type resource struct {
	name   string
	closer io.Closer
}

// release closes the statement, the cursor and the connection, in that order.
// Failures are logged only.
func (c *Command) release(stmt *sql.Stmt, rows *sql.Rows, conn *sql.Conn) {
	resources := make([]resource, 0, 3)

	if stmt != nil {
		resources = append(resources, resource{name: "statement", closer: stmt})
	}

	if rows != nil {
		resources = append(resources, resource{name: "result set", closer: rows})
	}

	if conn != nil {
		resources = append(resources, resource{name: "connection", closer: conn})
	}

	c.closeAll(resources)
}

func (c *Command) closeAll(resources []resource) {
	for _, r := range resources {
		if err := r.closer.Close(); err != nil {
			c.logger.Error().Err(err).Str("command", c.name).Str("resource", r.name).Msg("Error releasing resource")
		}
	}
}
