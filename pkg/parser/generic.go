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
	"errors"
	"fmt"
	"strings"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/rowset"
	"github.com/carverauto/sqlpoller/pkg/sqlvalue"
)

// GenericName is the registry name of the built-in parser.
const GenericName = "generic"

// Generic maps every column of a row onto one record entry.
type Generic struct {
	logger logger.Logger
}

// NewGeneric creates the built-in parser.
func NewGeneric(log logger.Logger) *Generic {
	return &Generic{logger: log}
}

func (*Generic) Name() string { return GenericName }

// ParseMetricRow emits string columns as attributes and every other non-null
// column as a numeric metric of metricType.
func (g *Generic) ParseMetricRow(metricType string, row *rowset.Row) (models.MetricRow, error) {
	out := make(models.MetricRow, 0, row.Len())

	for i := 0; i < row.Len(); i++ {
		name := row.Columns[i].Key()

		v, err := g.decode(row, i)
		if err != nil {
			return nil, err
		}

		if v.IsNull() {
			continue
		}

		if v.Kind == sqlvalue.KindString {
			out = append(out, models.NewAttribute(name, strings.TrimSpace(v.Str)))
			continue
		}

		kind, ok := models.ParseMetricType(metricType)
		if !ok {
			g.logger.Error().
				Str("metric_type", metricType).
				Str("column", name).
				Msg("Unknown metric type, skipping column")

			continue
		}

		out = append(out, models.NewNumeric(name, kind, v.Interface()))
	}

	g.logger.Debug().Int("row", row.Number).Int("metrics", len(out)).Msg("Parsed metric row")

	return out, nil
}

// ParseInventoryRow renders every non-null column as a string.
func (*Generic) ParseInventoryRow(row *rowset.Row) (map[string]string, error) {
	out := make(map[string]string, row.Len())

	for i := 0; i < row.Len(); i++ {
		if row.Values[i] == nil {
			continue
		}

		out[row.Columns[i].Key()] = sqlvalue.Format(row.Values[i])
	}

	return out, nil
}

// ParseRawRow returns the decoded value of every named, non-null column.
func (g *Generic) ParseRawRow(row *rowset.Row) (map[string]interface{}, error) {
	out := make(map[string]interface{}, row.Len())

	for i := 0; i < row.Len(); i++ {
		name := row.Columns[i].Key()

		v, err := g.decode(row, i)
		if err != nil {
			return nil, err
		}

		if name == "" || v.IsNull() {
			continue
		}

		out[name] = v.Interface()
	}

	return out, nil
}

// decode converts column i. Columns of an unrecognized type come back as
// null after a diagnostic.
func (g *Generic) decode(row *rowset.Row, i int) (sqlvalue.Value, error) {
	v, err := row.Decode(i)
	if err == nil {
		return v, nil
	}

	if errors.Is(err, sqlvalue.ErrUnknownType) {
		g.logger.Warn().
			Str("column", row.Columns[i].Name).
			Str("type", row.Columns[i].TypeName).
			Int("row", row.Number).
			Msg("Unsupported column type, value dropped")

		return v, nil
	}

	return v, fmt.Errorf("row %d column %q: %w", row.Number, row.Columns[i].Name, err)
}

func (*Generic) IsStateful() bool { return false }

func (*Generic) BeforeQuery(context.Context) error { return nil }

func (*Generic) AfterQuery(context.Context) error { return nil }

func (*Generic) PrepareStatement(*Statement) error { return nil }

// SetOptions is a no-op; the generic parser takes no options.
func (g *Generic) SetOptions(options json.RawMessage) error {
	if len(options) > 0 {
		g.logger.Debug().Msg("Generic parser ignores parser options")
	}

	return nil
}
