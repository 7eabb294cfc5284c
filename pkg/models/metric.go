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

package models

import (
	"strings"
)

// MetricType identifies how a reporting sink should interpret a Metric value.
type MetricType string

const (
	MetricTypeAttribute MetricType = "attribute"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeDelta     MetricType = "delta"
	MetricTypeRate      MetricType = "rate"
)

// ParseMetricType maps a configured metric kind onto a MetricType. An empty kind
// selects the gauge default; unknown kinds report ok=false.
func ParseMetricType(kind string) (MetricType, bool) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", string(MetricTypeGauge):
		return MetricTypeGauge, true
	case string(MetricTypeDelta):
		return MetricTypeDelta, true
	case string(MetricTypeRate):
		return MetricTypeRate, true
	default:
		return "", false
	}
}

// Metric is a single named value derived from one source row. Attribute metrics
// carry a string; numeric metrics carry an int64 or float64.
type Metric struct {
	Name  string      `json:"name"`
	Type  MetricType  `json:"type"`
	Value interface{} `json:"value"`
}

// NewAttribute builds a string fact.
func NewAttribute(name string, value interface{}) Metric {
	return Metric{Name: name, Type: MetricTypeAttribute, Value: value}
}

// NewNumeric builds a numeric fact of the given type.
func NewNumeric(name string, metricType MetricType, value interface{}) Metric {
	return Metric{Name: name, Type: metricType, Value: value}
}

// IsNumeric reports whether the metric carries a number rather than an attribute.
func (m Metric) IsNumeric() bool {
	return m.Type != MetricTypeAttribute
}

// Float64 returns the numeric value widened to float64.
func (m Metric) Float64() (float64, bool) {
	switch v := m.Value.(type) {
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// MetricRow is the ordered set of facts produced from one result row.
type MetricRow []Metric

// Lookup returns the first metric with the given name.
func (r MetricRow) Lookup(name string) (Metric, bool) {
	for _, m := range r {
		if m.Name == name {
			return m, true
		}
	}

	return Metric{}, false
}
