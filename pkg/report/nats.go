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
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/natsutil"
)

const (
	MetricEventType    = "com.carverauto.sqlpoller.metric"
	InventoryEventType = "com.carverauto.sqlpoller.inventory"
)

type eventPublisher interface {
	Publish(ctx context.Context, subject, eventType string, ts time.Time, data interface{}) error
}

// NATSReporter publishes reports as CloudEvents to a JetStream stream on
// <prefix>.metrics and <prefix>.inventory.
type NATSReporter struct {
	publisher eventPublisher
	conn      *nats.Conn
	agent     string
	prefix    string
	now       func() time.Time
}

// NewNATSReporter connects to NATS and makes sure the stream covers the
// reporter's subjects.
func NewNATSReporter(ctx context.Context, cfg *models.NATSReporterConfig, agent string, log logger.Logger) (*NATSReporter, error) {
	nc, err := natsutil.Connect(cfg, "sqlpoller-"+agent, log)
	if err != nil {
		return nil, err
	}

	subjects := []string{cfg.SubjectPrefix + ".>"}

	publisher, err := natsutil.CreateEventPublisherWithDomain(ctx, nc, cfg.Domain, cfg.Stream, subjects, "sqlpoller/"+agent, log)
	if err != nil {
		nc.Close()

		return nil, err
	}

	return &NATSReporter{
		publisher: publisher,
		conn:      nc,
		agent:     agent,
		prefix:    cfg.SubjectPrefix,
		now:       time.Now,
	}, nil
}

func (r *NATSReporter) ReportMetrics(ctx context.Context, eventType, entityKey string, row models.MetricRow) error {
	ts := r.now()

	data := models.MetricEventData{
		Agent:     r.agent,
		EventType: eventType,
		EntityKey: entityKey,
		Metrics:   row,
		Timestamp: ts,
	}

	if err := r.publisher.Publish(ctx, r.prefix+".metrics", MetricEventType, ts, data); err != nil {
		return fmt.Errorf("report metrics for %s: %w", entityKey, err)
	}

	return nil
}

func (r *NATSReporter) ReportInventory(ctx context.Context, path string, values map[string]string) error {
	ts := r.now()

	data := models.InventoryEventData{
		Agent:     r.agent,
		Path:      path,
		Values:    values,
		Timestamp: ts,
	}

	if err := r.publisher.Publish(ctx, r.prefix+".inventory", InventoryEventType, ts, data); err != nil {
		return fmt.Errorf("report inventory %s: %w", path, err)
	}

	return nil
}

// Close drains the connection so in-flight publishes complete.
func (r *NATSReporter) Close(context.Context) error {
	if r.conn == nil {
		return nil
	}

	return r.conn.Drain()
}
