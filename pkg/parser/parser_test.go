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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/rowset"
)

type col struct {
	name, typ string
	value     interface{}
}

func makeRow(cols ...col) *rowset.Row {
	row := &rowset.Row{Number: 1}
	for _, c := range cols {
		row.Columns = append(row.Columns, rowset.Column{Name: c.name, TypeName: c.typ})
		row.Values = append(row.Values, c.value)
	}

	return row
}

func TestGenericParseMetricRow(t *testing.T) {
	t.Parallel()

	row := makeRow(
		col{" Host ", "VARCHAR", " db01 "},
		col{"CONNECTIONS", "INTEGER", int64(12)},
		col{"load", "DOUBLE", 0.75},
		col{"missing", "INTEGER", nil},
		col{"shape", "GEOMETRY", []byte{1}},
	)

	tests := []struct {
		name       string
		metricType string
		wantType   models.MetricType
		wantLen    int
	}{
		{name: "default gauge", metricType: "", wantType: models.MetricTypeGauge, wantLen: 3},
		{name: "delta", metricType: "DELTA", wantType: models.MetricTypeDelta, wantLen: 3},
		{name: "rate", metricType: "rate", wantType: models.MetricTypeRate, wantLen: 3},
		{name: "unknown kind skips numerics", metricType: "histogram", wantLen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := NewGeneric(logger.NewTestLogger()).ParseMetricRow(tt.metricType, row)
			require.NoError(t, err)
			require.Len(t, out, tt.wantLen)

			host, ok := out.Lookup("host")
			require.True(t, ok)
			assert.Equal(t, models.MetricTypeAttribute, host.Type)
			assert.Equal(t, "db01", host.Value)

			if tt.wantLen == 1 {
				return
			}

			conns, ok := out.Lookup("connections")
			require.True(t, ok)
			assert.Equal(t, tt.wantType, conns.Type)
			assert.Equal(t, int64(12), conns.Value)
		})
	}
}

func TestGenericParseMetricRowConversionError(t *testing.T) {
	t.Parallel()

	_, err := NewGeneric(logger.NewTestLogger()).ParseMetricRow("", makeRow(col{"n", "INTEGER", "abc"}))
	require.Error(t, err)
}

func TestGenericParseInventoryRow(t *testing.T) {
	t.Parallel()

	out, err := NewGeneric(logger.NewTestLogger()).ParseInventoryRow(makeRow(
		col{"Name", "VARCHAR", "orders"},
		col{"rows", "BIGINT", int64(42)},
		col{"owner", "VARCHAR", nil},
	))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "orders", "rows": "42"}, out)
}

func TestGenericParseRawRow(t *testing.T) {
	t.Parallel()

	out, err := NewGeneric(logger.NewTestLogger()).ParseRawRow(makeRow(
		col{"ID", "INTEGER", int64(1)},
		col{"  ", "VARCHAR", "no name"},
		col{"note", "VARCHAR", nil},
		col{"price", "DECIMAL", "9.99"},
	))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": int64(1), "price": int64(9)}, out)
}

func TestKeyValueParser(t *testing.T) {
	t.Parallel()

	p := NewKeyValue(logger.NewTestLogger())
	require.NoError(t, p.SetOptions(json.RawMessage(`{"name_column":"stat","value_column":"amount"}`)))

	row := makeRow(
		col{"stat", "VARCHAR", "Buffer_Hits"},
		col{"amount", "BIGINT", int64(300)},
		col{"pool", "VARCHAR", "main"},
	)

	out, err := p.ParseMetricRow("delta", row)
	require.NoError(t, err)
	assert.Equal(t, models.MetricRow{
		models.NewNumeric("buffer_hits", models.MetricTypeDelta, int64(300)),
		models.NewAttribute("pool", "main"),
	}, out)

	inv, err := p.ParseInventoryRow(row)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Buffer_Hits": "300"}, inv)

	_, err = p.ParseMetricRow("", makeRow(col{"other", "VARCHAR", "x"}))
	require.ErrorIs(t, err, errMissingColumn)

	require.ErrorIs(t, p.SetOptions(json.RawMessage(`{"name_column":""}`)), errInvalidOptions)
}

func TestWatermarkParser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w := NewWatermark(logger.NewTestLogger())
	require.NoError(t, w.SetOptions(json.RawMessage(`{"column":"seq","initial":10}`)))
	assert.True(t, w.IsStateful())

	stmt := &Statement{Query: "SELECT * FROM t WHERE seq > ?"}
	require.NoError(t, w.BeforeQuery(ctx))
	require.NoError(t, w.PrepareStatement(stmt))
	assert.Equal(t, []interface{}{int64(10)}, stmt.Args)

	for _, seq := range []int64{14, 12, 11} {
		_, err := w.ParseRawRow(makeRow(col{"SEQ", "INTEGER", seq}))
		require.NoError(t, err)
	}

	// not committed until the query finishes
	assert.Equal(t, int64(10), w.Current())
	require.NoError(t, w.AfterQuery(ctx))
	assert.Equal(t, int64(14), w.Current())

	stmt = &Statement{Query: stmt.Query}
	require.NoError(t, w.BeforeQuery(ctx))
	require.NoError(t, w.PrepareStatement(stmt))
	assert.Equal(t, []interface{}{int64(14)}, stmt.Args)
}

func TestWatermarkWithoutInitialBindsNothing(t *testing.T) {
	t.Parallel()

	w := NewWatermark(logger.NewTestLogger())
	stmt := &Statement{Query: "SELECT 1"}
	require.NoError(t, w.PrepareStatement(stmt))
	assert.Empty(t, stmt.Args)
	assert.Nil(t, w.Current())
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	log := logger.NewTestLogger()

	assert.Equal(t, []string{GenericName, KeyValueName, WatermarkName}, r.Names())
	assert.Equal(t, GenericName, r.Resolve("", nil, log).Name())
	assert.Equal(t, GenericName, r.Resolve("Generic", json.RawMessage(`{"x":1}`), log).Name())
	assert.Equal(t, KeyValueName, r.Resolve("KeyValue", nil, log).Name())
	assert.Equal(t, WatermarkName, r.Resolve("watermark", json.RawMessage(`{"column":"id"}`), log).Name())

	// unknown and misconfigured parsers downgrade to generic
	assert.Equal(t, GenericName, r.Resolve("com.example.CustomParser", nil, log).Name())
	assert.Equal(t, GenericName, r.Resolve("keyvalue", json.RawMessage(`not json`), log).Name())
}
