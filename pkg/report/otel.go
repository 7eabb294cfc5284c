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
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
)

const (
	meterName         = "github.com/carverauto/sqlpoller/pkg/report"
	attrEventType     = "sqlpoller.event_type"
	attrEntityKey     = "sqlpoller.entity_key"
	maxInstrumentName = 255

	// DefaultSampleTTL is how long a delta or rate baseline survives without
	// a new sample before it is dropped.
	DefaultSampleTTL = 15 * time.Minute
)

// OTelReporter records numeric metrics as OpenTelemetry instruments. Gauge
// metrics are recorded as they are read. Delta metrics feed a counter with
// the increase since the previous sample and rate metrics feed a gauge with
// that increase per second. Attribute metrics become measurement attributes.
//
// Inventory has no metric representation and is only logged at debug level.
type OTelReporter struct {
	meter  metric.Meter
	logger logger.Logger
	now    func() time.Time

	mu        sync.Mutex
	gauges    map[string]metric.Float64Gauge
	counters  map[string]metric.Float64Counter
	samples   map[sampleKey]sample
	sampleTTL time.Duration
	lastSweep time.Time
}

// sampleKey identifies one delta or rate series. String attributes of the
// row are left out so a changing text column does not start a new series.
type sampleKey struct {
	eventType string
	entityKey string
	name      string
}

type sample struct {
	value float64
	at    time.Time
}

// NewOTelReporter creates an OTelReporter on top of provider.
func NewOTelReporter(provider metric.MeterProvider, log logger.Logger) *OTelReporter {
	return &OTelReporter{
		meter:     provider.Meter(meterName),
		logger:    log,
		now:       time.Now,
		gauges:    make(map[string]metric.Float64Gauge),
		counters:  make(map[string]metric.Float64Counter),
		samples:   make(map[sampleKey]sample),
		sampleTTL: DefaultSampleTTL,
	}
}

func (r *OTelReporter) ReportMetrics(ctx context.Context, eventType, entityKey string, row models.MetricRow) error {
	attrs := rowAttributes(eventType, entityKey, row)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep(now)

	for _, m := range row {
		if !m.IsNumeric() {
			continue
		}

		value, ok := m.Float64()
		if !ok {
			continue
		}

		name := instrumentName(m.Name)

		switch m.Type {
		case models.MetricTypeDelta:
			delta, ok := r.advance(sampleKey{eventType, entityKey, name}, value, now)
			if !ok || delta.value < 0 {
				continue
			}

			counter, err := r.counter(name)
			if err != nil {
				return err
			}

			counter.Add(ctx, delta.value, metric.WithAttributeSet(attrs))
		case models.MetricTypeRate:
			delta, ok := r.advance(sampleKey{eventType, entityKey, name}, value, now)
			if !ok || delta.value < 0 {
				continue
			}

			seconds := now.Sub(delta.at).Seconds()
			if seconds <= 0 {
				continue
			}

			gauge, err := r.gauge(name)
			if err != nil {
				return err
			}

			gauge.Record(ctx, delta.value/seconds, metric.WithAttributeSet(attrs))
		default:
			gauge, err := r.gauge(name)
			if err != nil {
				return err
			}

			gauge.Record(ctx, value, metric.WithAttributeSet(attrs))
		}
	}

	return nil
}

// advance stores value as the latest sample and returns the increase over
// the previous sample together with the previous sample time. The first
// sample of a series only sets the baseline.
func (r *OTelReporter) advance(key sampleKey, value float64, now time.Time) (sample, bool) {
	prev, seen := r.samples[key]
	r.samples[key] = sample{value: value, at: now}

	if !seen {
		return sample{}, false
	}

	return sample{value: value - prev.value, at: prev.at}, true
}

// sweep drops baselines older than sampleTTL. It runs at most once per TTL.
func (r *OTelReporter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.sampleTTL {
		return
	}

	for key, s := range r.samples {
		if now.Sub(s.at) >= r.sampleTTL {
			delete(r.samples, key)
		}
	}

	r.lastSweep = now
}

func (r *OTelReporter) gauge(name string) (metric.Float64Gauge, error) {
	if g, ok := r.gauges[name]; ok {
		return g, nil
	}

	g, err := r.meter.Float64Gauge(name)
	if err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", name, err)
	}

	r.gauges[name] = g

	return g, nil
}

func (r *OTelReporter) counter(name string) (metric.Float64Counter, error) {
	if c, ok := r.counters[name]; ok {
		return c, nil
	}

	c, err := r.meter.Float64Counter(name)
	if err != nil {
		return nil, fmt.Errorf("create counter %s: %w", name, err)
	}

	r.counters[name] = c

	return c, nil
}

func (r *OTelReporter) ReportInventory(_ context.Context, path string, values map[string]string) error {
	r.logger.Debug().Str("path", path).Int("items", len(values)).Msg("Inventory not exported to OTel")

	return nil
}

// Close is a no-op; the meter provider is shut down with the logger.
func (*OTelReporter) Close(context.Context) error { return nil }

func rowAttributes(eventType, entityKey string, row models.MetricRow) attribute.Set {
	kvs := []attribute.KeyValue{
		attribute.String(attrEventType, eventType),
		attribute.String(attrEntityKey, entityKey),
	}

	for _, m := range row {
		if m.IsNumeric() || m.Value == nil {
			continue
		}

		kvs = append(kvs, attribute.String(m.Name, fmt.Sprint(m.Value)))
	}

	return attribute.NewSet(kvs...)
}

// instrumentName maps a column derived metric name onto the OTel instrument
// name syntax.
func instrumentName(name string) string {
	var b strings.Builder

	for i, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9', ch == '_', ch == '.', ch == '-', ch == '/':
			if i == 0 {
				b.WriteString("m_")
			}
		default:
			if i == 0 {
				b.WriteString("m_")
			}

			ch = '_'
		}

		b.WriteRune(ch)
	}

	out := b.String()
	if out == "" {
		out = "m_"
	}

	if len(out) > maxInstrumentName {
		out = out[:maxInstrumentName]
	}

	return out
}
