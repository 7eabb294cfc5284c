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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/report"
)

func TestBuildReporterLogOnly(t *testing.T) {
	t.Parallel()

	agent := &models.AgentConfig{
		Name:      "agent1",
		Reporters: models.ReportersConfig{Log: &models.LogReporterConfig{Enabled: true}},
	}

	r, err := buildReporter(context.Background(), agent, logger.Resource{}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &report.LogReporter{}, r)
}

func TestBuildReporterFallsBackToLog(t *testing.T) {
	t.Parallel()

	r, err := buildReporter(context.Background(), &models.AgentConfig{Name: "agent1"}, logger.Resource{}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &report.LogReporter{}, r)
}

func TestBuildReporterNATSFailure(t *testing.T) {
	t.Parallel()

	agent := &models.AgentConfig{
		Name: "agent1",
		Reporters: models.ReportersConfig{
			Log:  &models.LogReporterConfig{Enabled: true},
			NATS: &models.NATSReporterConfig{URL: "nats://127.0.0.1:1", Stream: "S", SubjectPrefix: "p"},
		},
	}

	r, err := buildReporter(context.Background(), agent, logger.Resource{}, logger.NewTestLogger())
	require.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "failed to create NATS reporter")
}
