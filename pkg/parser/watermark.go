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

package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/rowset"
	"github.com/carverauto/sqlpoller/pkg/sqlvalue"
)

// WatermarkName is the registry name of the Watermark parser.
const WatermarkName = "watermark"

// WatermarkOptions configures the tracked column and its starting value.
type WatermarkOptions struct {
	Column  string      `json:"column"`
	Initial interface{} `json:"initial"`
}

// Watermark remembers the highest value of one column across polls and binds
// it as the final positional argument of every query, so a statement such as
// "SELECT ... WHERE id > ?" only returns rows newer than the last poll.
//
// The high mark observed during a poll only becomes visible to the next poll
// once AfterQuery runs.
type Watermark struct {
	*Generic
	column  string
	current sqlvalue.Value
	pending sqlvalue.Value
}

// NewWatermark creates a Watermark parser tracking the "id" column.
func NewWatermark(log logger.Logger) *Watermark {
	return &Watermark{
		Generic: NewGeneric(log),
		column:  "id",
		current: sqlvalue.Null(sqlvalue.TypeUnknown),
		pending: sqlvalue.Null(sqlvalue.TypeUnknown),
	}
}

func (*Watermark) Name() string { return WatermarkName }

func (*Watermark) IsStateful() bool { return true }

func (w *Watermark) SetOptions(options json.RawMessage) error {
	if len(options) == 0 {
		return nil
	}

	var opts WatermarkOptions

	dec := json.NewDecoder(strings.NewReader(string(options)))
	dec.UseNumber()

	if err := dec.Decode(&opts); err != nil {
		return fmt.Errorf("%w: %w", errInvalidOptions, err)
	}

	if c := strings.TrimSpace(opts.Column); c != "" {
		w.column = c
	}

	switch v := opts.Initial.(type) {
	case nil:
	case json.Number:
		if n, err := v.Int64(); err == nil {
			w.current = sqlvalue.Value{Kind: sqlvalue.KindInt, Type: sqlvalue.TypeBigInt, Int: n}
		} else if f, err := v.Float64(); err == nil {
			w.current = sqlvalue.Value{Kind: sqlvalue.KindFloat, Type: sqlvalue.TypeDouble, Float: f}
		}
	case string:
		w.current = sqlvalue.Value{Kind: sqlvalue.KindString, Type: sqlvalue.TypeVarchar, Str: v}
	default:
		return fmt.Errorf("%w: unsupported initial value %v", errInvalidOptions, v)
	}

	return nil
}

// Current returns the committed watermark, or nil before the first value.
func (w *Watermark) Current() interface{} {
	return w.current.Interface()
}

func (w *Watermark) BeforeQuery(context.Context) error {
	w.pending = w.current
	return nil
}

// PrepareStatement appends the committed watermark to the bound arguments.
func (w *Watermark) PrepareStatement(stmt *Statement) error {
	if w.current.IsNull() {
		return nil
	}

	stmt.Args = append(stmt.Args, w.current.Interface())

	return nil
}

func (w *Watermark) AfterQuery(context.Context) error {
	w.current = w.pending
	return nil
}

func (w *Watermark) observe(row *rowset.Row) {
	for i, c := range row.Columns {
		if !strings.EqualFold(c.Key(), w.column) {
			continue
		}

		v, err := row.Decode(i)
		if err != nil || v.IsNull() {
			return
		}

		if w.pending.IsNull() || greater(v, w.pending) {
			w.pending = v
		}

		return
	}
}

func greater(a, b sqlvalue.Value) bool {
	switch {
	case a.IsNumeric() && b.IsNumeric():
		return asFloat(a) > asFloat(b)
	case a.Kind == sqlvalue.KindString && b.Kind == sqlvalue.KindString:
		return a.Str > b.Str
	}

	return false
}

func asFloat(v sqlvalue.Value) float64 {
	if v.Kind == sqlvalue.KindInt {
		return float64(v.Int)
	}

	return v.Float
}

func (w *Watermark) ParseMetricRow(metricType string, row *rowset.Row) (models.MetricRow, error) {
	out, err := w.Generic.ParseMetricRow(metricType, row)
	if err == nil {
		w.observe(row)
	}

	return out, err
}

func (w *Watermark) ParseInventoryRow(row *rowset.Row) (map[string]string, error) {
	out, err := w.Generic.ParseInventoryRow(row)
	if err == nil {
		w.observe(row)
	}

	return out, err
}

func (w *Watermark) ParseRawRow(row *rowset.Row) (map[string]interface{}, error) {
	out, err := w.Generic.ParseRawRow(row)
	if err == nil {
		w.observe(row)
	}

	return out, err
}
