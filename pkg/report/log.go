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

package report

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
)

// LogReporter writes every report as a structured log line.
type LogReporter struct {
	logger logger.Logger
}

// NewLogReporter creates a LogReporter writing to log at info level.
func NewLogReporter(log logger.Logger) *LogReporter {
	return &LogReporter{logger: log}
}

func (r *LogReporter) ReportMetrics(_ context.Context, eventType, entityKey string, row models.MetricRow) error {
	metrics := zerolog.Dict()

	for _, m := range row {
		metrics.Interface(m.Name, m.Value)
	}

	r.logger.Info().
		Str("event_type", eventType).
		Str("entity_key", entityKey).
		Dict("metrics", metrics).
		Msg("Metric row")

	return nil
}

func (r *LogReporter) ReportInventory(_ context.Context, path string, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	items := zerolog.Dict()
	for _, k := range keys {
		items.Str(k, values[k])
	}

	r.logger.Info().
		Str("path", path).
		Dict("items", items).
		Msg("Inventory")

	return nil
}

func (*LogReporter) Close(context.Context) error { return nil }
