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

//go:generate mockgen -destination=mock_parser.go -package=parser github.com/carverauto/sqlpoller/pkg/parser Parser

// Package parser turns scanned result rows into metric, inventory or raw
// records.
package parser

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/rowset"
)

var (
	errMissingColumn   = errors.New("required column not present in row")
	errInvalidOptions  = errors.New("invalid parser options")
	errNonNumericValue = errors.New("value column is not numeric")
)

// Statement is the SQL text and positional arguments about to be executed.
// Stateful parsers may rewrite either before execution.
type Statement struct {
	Query string
	Args  []interface{}
}

// Parser converts rows of a single command. A parser instance belongs to one
// command and is never shared between commands.
type Parser interface {
	Name() string
	ParseMetricRow(metricType string, row *rowset.Row) (models.MetricRow, error)
	ParseInventoryRow(row *rowset.Row) (map[string]string, error)
	ParseRawRow(row *rowset.Row) (map[string]interface{}, error)
	// IsStateful reports whether PrepareStatement must be called before each
	// execution.
	IsStateful() bool
	BeforeQuery(ctx context.Context) error
	AfterQuery(ctx context.Context) error
	PrepareStatement(stmt *Statement) error
	SetOptions(options json.RawMessage) error
}
