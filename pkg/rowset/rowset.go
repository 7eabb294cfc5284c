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

// Package rowset walks a database/sql result set row by row, keeping column
// metadata and the last row read.
package rowset

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carverauto/sqlpoller/pkg/sqlvalue"
)

var errNoColumns = errors.New("result set has no columns")

// Column describes one result column.
type Column struct {
	// Name is the column label as reported by the driver.
	Name string
	// TypeName is the driver's DatabaseTypeName.
	TypeName string
}

// Key returns the trimmed, lower-cased column name used as an output key.
func (c Column) Key() string {
	return strings.ToLower(strings.TrimSpace(c.Name))
}

// Row is a single scanned result row.
type Row struct {
	// Number is the 1-based position of the row in its result set.
	Number  int
	Columns []Column
	Values  []interface{}
}

// Len returns the number of columns in the row.
func (r *Row) Len() int { return len(r.Values) }

// Decode converts column i through the column decoder.
func (r *Row) Decode(i int) (sqlvalue.Value, error) {
	return sqlvalue.Decode(r.Columns[i].TypeName, r.Values[i])
}

// Lookup returns the raw value of the column whose label matches name,
// ignoring case.
func (r *Row) Lookup(name string) (interface{}, bool) {
	for i, c := range r.Columns {
		if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			return r.Values[i], true
		}
	}

	return nil, false
}

// Cursor iterates a *sql.Rows, scanning every row into a fresh Row.
type Cursor struct {
	rows    *sql.Rows
	columns []Column
	count   int
	last    *Row
}

// Open reads column metadata from rows. The caller still owns rows and must
// close it.
func Open(rows *sql.Rows) (*Cursor, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	if len(types) == 0 {
		return nil, errNoColumns
	}

	columns := make([]Column, len(types))
	for i, ct := range types {
		columns[i] = Column{Name: ct.Name(), TypeName: ct.DatabaseTypeName()}
	}

	return &Cursor{rows: rows, columns: columns}, nil
}

// Columns returns the result column metadata.
func (c *Cursor) Columns() []Column { return c.columns }

// Next advances to the next row.
func (c *Cursor) Next() bool {
	return c.rows.Next()
}

// Scan reads the current row. A scan failure is returned for that row only;
// iteration may continue with Next.
func (c *Cursor) Scan() (*Row, error) {
	c.count++

	values := make([]interface{}, len(c.columns))
	dest := make([]interface{}, len(c.columns))

	for i := range values {
		dest[i] = &values[i]
	}

	if err := c.rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan row %d: %w", c.count, err)
	}

	row := &Row{Number: c.count, Columns: c.columns, Values: values}
	c.last = row

	return row, nil
}

// Count returns the number of rows visited so far.
func (c *Cursor) Count() int { return c.count }

// Last returns the most recently scanned row.
func (c *Cursor) Last() (*Row, bool) {
	return c.last, c.last != nil
}

// Err returns the error, if any, that ended iteration.
func (c *Cursor) Err() error {
	return c.rows.Err()
}
