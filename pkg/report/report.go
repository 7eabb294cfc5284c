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

// Package report delivers poll results to their sinks: the log, NATS
// JetStream and OpenTelemetry.
package report

//go:generate mockgen -destination=mock_reporter.go -package=report github.com/carverauto/sqlpoller/pkg/report Reporter

import (
	"context"
	"errors"

	"github.com/carverauto/sqlpoller/pkg/models"
)

// Reporter accepts the metric rows and inventory entries of a poll.
type Reporter interface {
	// ReportMetrics delivers one metric row. eventType names the metric set
	// and entityKey identifies the command that produced it.
	ReportMetrics(ctx context.Context, eventType, entityKey string, row models.MetricRow) error
	// ReportInventory delivers the flat mapping stored under path.
	ReportInventory(ctx context.Context, path string, values map[string]string) error
	Close(ctx context.Context) error
}

// Multi fans every report out to all of its reporters. A failing reporter
// does not stop delivery to the others.
type Multi []Reporter

var _ Reporter = Multi(nil)

func (m Multi) ReportMetrics(ctx context.Context, eventType, entityKey string, row models.MetricRow) error {
	var errs []error

	for _, r := range m {
		if err := r.ReportMetrics(ctx, eventType, entityKey, row); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m Multi) ReportInventory(ctx context.Context, path string, values map[string]string) error {
	var errs []error

	for _, r := range m {
		if err := r.ReportInventory(ctx, path, values); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m Multi) Close(ctx context.Context) error {
	var errs []error

	for _, r := range m {
		if err := r.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
