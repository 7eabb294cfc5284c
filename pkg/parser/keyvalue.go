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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/rowset"
	"github.com/carverauto/sqlpoller/pkg/sqlvalue"
)

// KeyValueName is the registry name of the KeyValue parser.
const KeyValueName = "keyvalue"

// KeyValueOptions names the columns of a name/value shaped result.
type KeyValueOptions struct {
	NameColumn  string `json:"name_column"`
	ValueColumn string `json:"value_column"`
}

// KeyValue pivots rows shaped like (name, value, ...) so that each row yields
// one numeric metric named after its name column. Remaining string columns
// are carried as attributes.
type KeyValue struct {
	*Generic
	opts KeyValueOptions
}

// NewKeyValue creates a KeyValue parser reading the "name" and "value"
// columns until options say otherwise.
func NewKeyValue(log logger.Logger) *KeyValue {
	return &KeyValue{
		Generic: NewGeneric(log),
		opts:    KeyValueOptions{NameColumn: "name", ValueColumn: "value"},
	}
}

func (*KeyValue) Name() string { return KeyValueName }

func (p *KeyValue) SetOptions(options json.RawMessage) error {
	if len(options) == 0 {
		return nil
	}

	opts := p.opts
	if err := json.Unmarshal(options, &opts); err != nil {
		return fmt.Errorf("%w: %w", errInvalidOptions, err)
	}

	if strings.TrimSpace(opts.NameColumn) == "" || strings.TrimSpace(opts.ValueColumn) == "" {
		return fmt.Errorf("%w: name_column and value_column must be set", errInvalidOptions)
	}

	p.opts = opts

	return nil
}

func (p *KeyValue) columns(row *rowset.Row) (nameIdx, valueIdx int, err error) {
	nameIdx, valueIdx = -1, -1

	for i, c := range row.Columns {
		switch {
		case strings.EqualFold(c.Key(), p.opts.NameColumn):
			nameIdx = i
		case strings.EqualFold(c.Key(), p.opts.ValueColumn):
			valueIdx = i
		}
	}

	if nameIdx < 0 {
		return 0, 0, fmt.Errorf("%w: %s", errMissingColumn, p.opts.NameColumn)
	}

	if valueIdx < 0 {
		return 0, 0, fmt.Errorf("%w: %s", errMissingColumn, p.opts.ValueColumn)
	}

	return nameIdx, valueIdx, nil
}

// ParseMetricRow emits the value column as a metric named by the name column.
func (p *KeyValue) ParseMetricRow(metricType string, row *rowset.Row) (models.MetricRow, error) {
	nameIdx, valueIdx, err := p.columns(row)
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(sqlvalue.Format(row.Values[nameIdx])))
	if name == "" {
		return nil, fmt.Errorf("%w: empty %s", errMissingColumn, p.opts.NameColumn)
	}

	value, err := p.decode(row, valueIdx)
	if err != nil {
		return nil, err
	}

	out := make(models.MetricRow, 0, row.Len()-1)

	if !value.IsNull() {
		if !value.IsNumeric() {
			return nil, fmt.Errorf("%w: %s=%q", errNonNumericValue, name, value.Str)
		}

		kind, ok := models.ParseMetricType(metricType)
		if !ok {
			p.logger.Error().Str("metric_type", metricType).Str("metric", name).Msg("Unknown metric type, skipping value")
		} else {
			out = append(out, models.NewNumeric(name, kind, value.Interface()))
		}
	}

	for i := 0; i < row.Len(); i++ {
		if i == nameIdx || i == valueIdx {
			continue
		}

		v, err := p.decode(row, i)
		if err != nil {
			return nil, err
		}

		if v.Kind == sqlvalue.KindString {
			out = append(out, models.NewAttribute(row.Columns[i].Key(), strings.TrimSpace(v.Str)))
		}
	}

	return out, nil
}

// ParseInventoryRow maps the name column onto the rendered value column.
func (p *KeyValue) ParseInventoryRow(row *rowset.Row) (map[string]string, error) {
	nameIdx, valueIdx, err := p.columns(row)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, 1)
	if row.Values[nameIdx] != nil && row.Values[valueIdx] != nil {
		out[strings.TrimSpace(sqlvalue.Format(row.Values[nameIdx]))] = sqlvalue.Format(row.Values[valueIdx])
	}

	return out, nil
}
