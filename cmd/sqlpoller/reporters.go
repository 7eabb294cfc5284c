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

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/report"
)

// buildReporter wires every enabled reporter of agent. A single reporter is
// returned as is; several are fanned out through report.Multi.
func buildReporter(ctx context.Context, agent *models.AgentConfig, res logger.Resource, log logger.Logger) (report.Reporter, error) {
	var reporters report.Multi

	fail := func(err error) (report.Reporter, error) {
		return nil, errors.Join(err, reporters.Close(ctx))
	}

	rc := agent.Reporters

	if rc.Log != nil && rc.Log.Enabled {
		reporters = append(reporters, report.NewLogReporter(log))
	}

	if rc.NATS != nil {
		nr, err := report.NewNATSReporter(ctx, rc.NATS, agent.Name, log)
		if err != nil {
			return fail(fmt.Errorf("failed to create NATS reporter: %w", err))
		}

		reporters = append(reporters, nr)
	}

	if rc.OTel != nil && rc.OTel.Enabled {
		provider, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
			Resource: res,
			OTel: &logger.OTelConfig{
				Enabled:  true,
				Endpoint: rc.OTel.Endpoint,
				Insecure: rc.OTel.Insecure,
				Headers:  rc.OTel.Headers,
			},
			ExportInterval: time.Duration(rc.OTel.ExportInterval),
		})
		if err != nil {
			return fail(fmt.Errorf("failed to initialize metrics: %w", err))
		}

		reporters = append(reporters, report.NewOTelReporter(provider, log))
	}

	switch len(reporters) {
	case 0:
		return report.NewLogReporter(log), nil
	case 1:
		return reporters[0], nil
	default:
		return reporters, nil
	}
}
