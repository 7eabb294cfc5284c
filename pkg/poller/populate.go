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
	"context"
	"errors"
	"sort"

	"github.com/carverauto/sqlpoller/pkg/command"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/report"
)

// StaticAttributes turns the agent's static attributes into metric
// attributes, ordered by name.
func StaticAttributes(attrs map[string]string) models.MetricRow {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}

	sort.Strings(names)

	row := make(models.MetricRow, 0, len(names))
	for _, name := range names {
		row = append(row, models.NewAttribute(name, attrs[name]))
	}

	return row
}

// PopulateMetrics reports every metric row of cmd under the dialect's event
// type, extended with the static attributes and tagged with the command's
// entity key. Every row is attempted; failures are returned joined.
func PopulateMetrics(
	ctx context.Context, r report.Reporter, agentName string, cmd *command.Command, rows []models.MetricRow, static models.MetricRow,
) error {
	eventType := cmd.Dialect().Name()
	entityKey := cmd.EntityKey(agentName)

	var errs []error

	for _, row := range rows {
		full := make(models.MetricRow, 0, len(row)+len(static))
		full = append(full, row...)
		full = append(full, static...)

		if err := r.ReportMetrics(ctx, eventType, entityKey, full); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// PopulateInventory reports each inventory path with its values, in path
// order.
func PopulateInventory(ctx context.Context, r report.Reporter, inventory map[string]map[string]string) error {
	paths := make([]string, 0, len(inventory))
	for path := range inventory {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	var errs []error

	for _, path := range paths {
		if err := r.ReportInventory(ctx, path, inventory[path]); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
